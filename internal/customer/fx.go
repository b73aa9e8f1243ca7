package customer

import (
	"go.uber.org/fx"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/repository"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer/service"
)

var Module = fx.Module("customer",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
