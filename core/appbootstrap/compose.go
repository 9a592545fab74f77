package appbootstrap

import (
	"context"
	"database/sql"

	"stocwatch/api"
	"stocwatch/config"
	"stocwatch/core/notify"
	"stocwatch/core/retention"
	"stocwatch/core/store"
	"stocwatch/core/utils"
)

// BackgroundWorker is a long-lived job owned by the process: started once at
// boot, stopped at shutdown.
type BackgroundWorker interface {
	StartWithContext(ctx context.Context)
	StopWithContext(ctx context.Context) error
}

type runtimeComposition struct {
	serverDeps api.ServerDeps
	workers    []BackgroundWorker
}

func composeRuntime(cfg *config.AppConfig, db *sql.DB, logger *utils.Logger) *runtimeComposition {
	detections := store.NewDetectionsStore(db)
	history := store.NewHistoryStore(db)
	accounts := store.NewAccountsStore(db)
	var hub *notify.Hub
	if cfg.Notify.Enabled {
		hub = notify.NewHub()
	}
	sweeper := retention.NewSweeper(cfg, history, logger)

	return &runtimeComposition{
		serverDeps: api.ServerDeps{
			Detections: detections,
			History:    history,
			Accounts:   accounts,
			Hub:        hub,
		},
		workers: []BackgroundWorker{sweeper},
	}
}
