package merge

import (
	"github.com/subsurfio/wellstore/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("merge",
	fx.Provide(ProvideEngine),
)

func ProvideEngine(cfg config.Config) *Engine {
	return NewEngine(Limits{
		MaxNodesAdd:    cfg.MaxNodesAdd,
		MaxNodesUpdate: cfg.MaxNodesUpdate,
		MaxNodesDelete: cfg.MaxNodesDelete,
	})
}
