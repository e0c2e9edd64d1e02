package request

import (
	"github.com/brightfold/portal/internal/request/repository"
	"github.com/brightfold/portal/internal/request/service"
	"go.uber.org/fx"
)

var Module = fx.Module("request.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
