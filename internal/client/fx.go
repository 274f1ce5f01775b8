package client

import (
	"github.com/invosync/invosync/internal/client/repository"
	"github.com/invosync/invosync/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
