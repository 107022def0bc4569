package migration

import (
	changelogdomain "github.com/subsurfio/wellstore/internal/changelog/domain"
	growingdomain "github.com/subsurfio/wellstore/internal/growing/domain"
	wellobjectdomain "github.com/subsurfio/wellstore/internal/wellobject/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// All store tables are created automatically on startup so the server is
// usable out of the box for local and self-hosted environments.
var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		return conn.AutoMigrate(
			&wellobjectdomain.Record{},
			&growingdomain.GrowingState{},
			&changelogdomain.Entry{},
		)
	}),
)
