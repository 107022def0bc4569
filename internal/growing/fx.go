package growing

import (
	"github.com/subsurfio/wellstore/internal/growing/repository"
	"github.com/subsurfio/wellstore/internal/growing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("growing",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
