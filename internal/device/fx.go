package device

import (
	"go.uber.org/fx"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/device/repository"
)

var Module = fx.Module("device",
	fx.Provide(repository.New),
)
