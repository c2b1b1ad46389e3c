package reconcile

import (
	"github.com/youthbridge/youthbridge/internal/reconcile/repository"
	"github.com/youthbridge/youthbridge/internal/reconcile/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reconcile.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
