package client

import (
	"github.com/brightfold/portal/internal/client/repository"
	"github.com/brightfold/portal/internal/client/service"
	"go.uber.org/fx"
)

var Module = fx.Module("client.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
