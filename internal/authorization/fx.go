package authorization

import (
	"go.uber.org/fx"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/cache"
)

var Module = fx.Module("authorization.service",
	fx.Provide(cache.NewAuthorizedPodCache),
	fx.Provide(NewService),
)
