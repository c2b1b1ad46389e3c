package main

import (
	"hash/fnv"
	"os"

	"github.com/bwmarrin/snowflake"
	"github.com/youthbridge/youthbridge/internal/auth/session"
	"github.com/youthbridge/youthbridge/internal/checkout"
	"github.com/youthbridge/youthbridge/internal/clock"
	"github.com/youthbridge/youthbridge/internal/config"
	"github.com/youthbridge/youthbridge/internal/event"
	"github.com/youthbridge/youthbridge/internal/migration"
	"github.com/youthbridge/youthbridge/internal/notify"
	"github.com/youthbridge/youthbridge/internal/observability"
	"github.com/youthbridge/youthbridge/internal/payable"
	"github.com/youthbridge/youthbridge/internal/paypal"
	"github.com/youthbridge/youthbridge/internal/ratelimit"
	"github.com/youthbridge/youthbridge/internal/reconcile"
	"github.com/youthbridge/youthbridge/internal/server"
	"github.com/youthbridge/youthbridge/internal/webhook"
	"github.com/youthbridge/youthbridge/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		notify.Module,
		paypal.Module,
		event.Module,
		payable.Module,
		reconcile.Module,
		checkout.Module,
		webhook.Module,
		ratelimit.Module,
		session.Module,
		server.Module,
	)

	app.Run()
}

// RegisterSnowflake builds the process-wide id generator. The node id is
// derived from the hostname so replicas in the same deployment do not mint
// colliding ids.
func RegisterSnowflake() (*snowflake.Node, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "youthbridge"
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(hostname))
	nodeID := int64(h.Sum32() % 1024)

	return snowflake.NewNode(nodeID)
}
