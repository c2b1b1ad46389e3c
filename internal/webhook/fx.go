package webhook

import (
	"github.com/youthbridge/youthbridge/internal/config"
	paypalapi "github.com/youthbridge/youthbridge/internal/paypal"
	"github.com/youthbridge/youthbridge/internal/webhook/adapters"
	paypaladapter "github.com/youthbridge/youthbridge/internal/webhook/adapters/paypal"
	stripeadapter "github.com/youthbridge/youthbridge/internal/webhook/adapters/stripe"
	"github.com/youthbridge/youthbridge/internal/webhook/service"
	"go.uber.org/fx"
)

var Module = fx.Module("webhook.service",
	fx.Provide(newRegistry),
	fx.Provide(service.New),
)

func newRegistry(cfg config.Config, paypalClient *paypalapi.Client) *adapters.Registry {
	return adapters.NewRegistry(
		stripeadapter.NewAdapter(cfg.StripeWebhookSecret),
		paypaladapter.NewAdapter(paypalClient),
	)
}
