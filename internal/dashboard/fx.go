package dashboard

import (
	"go.uber.org/fx"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/dashboard/service"
)

var Module = fx.Module("dashboard",
	fx.Provide(service.NewService),
)
