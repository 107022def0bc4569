package store

import (
	"github.com/subsurfio/wellstore/internal/store/service"
	"go.uber.org/fx"
)

var Module = fx.Module("store",
	fx.Provide(service.New),
)
