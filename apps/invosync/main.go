package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/invosync/invosync/internal/backup"
	"github.com/invosync/invosync/internal/client"
	"github.com/invosync/invosync/internal/clock"
	"github.com/invosync/invosync/internal/config"
	"github.com/invosync/invosync/internal/dashboard"
	"github.com/invosync/invosync/internal/invoice"
	"github.com/invosync/invosync/internal/logger"
	"github.com/invosync/invosync/internal/migration"
	"github.com/invosync/invosync/internal/payment"
	"github.com/invosync/invosync/internal/scheduler"
	"github.com/invosync/invosync/internal/server"
	"github.com/invosync/invosync/internal/tax"
	"github.com/invosync/invosync/pkg/db"
	"github.com/invosync/invosync/pkg/telemetry"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		telemetry.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		tax.Module,
		client.Module,
		invoice.Module,
		payment.Module,
		dashboard.Module,
		backup.Module,

		// HTTP surface and background jobs
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
