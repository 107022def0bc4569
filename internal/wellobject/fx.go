package wellobject

import (
	"github.com/subsurfio/wellstore/internal/wellobject/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("wellobject",
	fx.Provide(repository.Provide),
)
