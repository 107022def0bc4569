package changelog

import (
	"github.com/subsurfio/wellstore/internal/changelog/repository"
	"github.com/subsurfio/wellstore/internal/changelog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("changelog",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
