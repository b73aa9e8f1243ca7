package podsummary

import (
	"go.uber.org/fx"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/podsummary/repository"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/podsummary/service"
)

var Module = fx.Module("podsummary",
	fx.Provide(repository.New),
	fx.Provide(service.NewService),
	fx.Provide(service.NewRecomputer),
)
