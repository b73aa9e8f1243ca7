package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/authorization"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/clock"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/company"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/config"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/customer"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/dashboard"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/device"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/events"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/logger"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/migration"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/observability"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/podsummary"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/request"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/scheduler"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/seed"
	"github.com/spagnoll1andre/novaflow-tada-delivery/internal/server"
	"github.com/spagnoll1andre/novaflow-tada-delivery/pkg/db"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		migration.Module,
		fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
			if cfg.Bootstrap.EnsureDefaultCompany {
				return seed.EnsureDefaultCompany(conn)
			}
			return nil
		}),

		clock.Module,
		company.Module,
		authorization.Module,
		customer.Module,
		device.Module,
		request.Module,
		events.Module,
		podsummary.Module,
		dashboard.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}
