package event

import (
	"github.com/youthbridge/youthbridge/internal/event/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("event.catalog",
	fx.Provide(repository.Provide),
)
