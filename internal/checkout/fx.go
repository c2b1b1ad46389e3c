package checkout

import (
	"github.com/youthbridge/youthbridge/internal/checkout/service"
	"go.uber.org/fx"
)

var Module = fx.Module("checkout.service",
	fx.Provide(service.New),
)
