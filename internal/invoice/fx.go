package invoice

import (
	"github.com/invosync/invosync/internal/invoice/engine"
	"github.com/invosync/invosync/internal/invoice/repository"
	"github.com/invosync/invosync/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	engine.Module,
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
