package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/subsurfio/wellstore/internal/changelog"
	"github.com/subsurfio/wellstore/internal/clock"
	"github.com/subsurfio/wellstore/internal/config"
	"github.com/subsurfio/wellstore/internal/growing"
	"github.com/subsurfio/wellstore/internal/merge"
	"github.com/subsurfio/wellstore/internal/migration"
	"github.com/subsurfio/wellstore/internal/store"
	"github.com/subsurfio/wellstore/internal/sweeper"
	"github.com/subsurfio/wellstore/internal/wellobject"
	"github.com/subsurfio/wellstore/pkg/db"
	"github.com/subsurfio/wellstore/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Store core
		merge.Module,
		wellobject.Module,
		growing.Module,
		changelog.Module,
		store.Module,

		// Background expiration
		sweeper.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
