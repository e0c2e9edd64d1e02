package catalog

import (
	"github.com/brightfold/portal/internal/catalog/repository"
	"github.com/brightfold/portal/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
