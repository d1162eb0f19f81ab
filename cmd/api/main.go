package main

import (
	"context"
	"net/http"

	"github.com/inkwellnotes/inkwell/pkg/config"
	"github.com/inkwellnotes/inkwell/pkg/database"
	"github.com/inkwellnotes/inkwell/pkg/migrations"
	"github.com/inkwellnotes/inkwell/pkg/sandbox"
	"github.com/inkwellnotes/inkwell/pkg/server"
	"github.com/inkwellnotes/inkwell/pkg/version"
	"github.com/inkwellnotes/inkwell/pkg/worker"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
)

func main() {
	ctx := context.Background()
	log := logger.New()

	log.Info("starting inkwell", logger.Data{"version": version.Version})

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	sb, err := sandbox.New(cfg.NotesDir)
	if err != nil {
		log.Err(err).Fatal("notes directory error")
	}
	log.Info("notes directory initialized", logger.Data{"path": sb.Root()})

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}

	group, err := migrations.BringUpToDate(ctx, db)
	if err != nil {
		log.Err(err).Fatal("migrations error")
	}
	if group.ID == 0 {
		log.Info("no new migrations to run")
	} else {
		log.Info("migrated to new group", logger.Data{"group_id": group.ID, "migration_names": group.Migrations.String()})
	}

	wrkr := worker.New(cfg, db, sb)

	srv, err := server.New(cfg, db, sb)
	if err != nil {
		log.Err(err).Fatal("server error")
	}

	graceful := signals.Setup()

	go func() {
		log.Info("server started", logger.Data{"addr": srv.Addr})
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Err(err).Fatal("server stopped")
		}
		log.Info("server stopped")
	}()

	wrkr.Start()
	log.Info("worker started", logger.Data{"reconcile_interval_minutes": cfg.ReconcileIntervalMinutes})

	<-graceful
	log.Info("starting graceful shutdown")

	err = srv.Shutdown(ctx)
	if err != nil {
		log.Err(err).Error("server shutdown error")
	}
	log.Info("server shutdown")

	wrkr.Shutdown()
	log.Info("worker shutdown")

	err = db.Close()
	if err != nil {
		log.Err(err).Error("database close error")
	}
	log.Info("database closed")
}
