package company

import (
	"go.uber.org/fx"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/company/repository"
)

var Module = fx.Module("company",
	fx.Provide(repository.New),
)
