package request

import (
	"go.uber.org/fx"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/repository"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/request/service"
)

var Module = fx.Module("request",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
)
