package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	clientdomain "github.com/invosync/invosync/internal/client/domain"
	"github.com/invosync/invosync/internal/config"
	invoicedomain "github.com/invosync/invosync/internal/invoice/domain"
	paymentdomain "github.com/invosync/invosync/internal/payment/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Versioned SQL migrations are postgres-specific. Other
		// dialects, used for local development, fall back to the
		// schema derived from the models.
		if cfg.DBType != "postgres" {
			return conn.AutoMigrate(
				&clientdomain.Client{},
				&invoicedomain.Invoice{},
				&invoicedomain.InvoiceItem{},
				&paymentdomain.Payment{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
