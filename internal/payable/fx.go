package payable

import (
	"github.com/youthbridge/youthbridge/internal/payable/repository"
	"github.com/youthbridge/youthbridge/internal/payable/service"
	"go.uber.org/fx"
)

var Module = fx.Module("payable.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
