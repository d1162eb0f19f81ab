package main

import (
	"context"
	"fmt"
	"os"

	"github.com/inkwellnotes/inkwell/pkg/config"
	"github.com/inkwellnotes/inkwell/pkg/database"
	"github.com/inkwellnotes/inkwell/pkg/sandbox"
	"github.com/inkwellnotes/inkwell/pkg/worker"
	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
)

func main() {
	log := logger.New()
	ctx := log.WithContext(context.Background())

	var opts struct {
		Owner string `short:"o" long:"owner" description:"Only reconcile the records of this user id"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}
	if len(args) != 0 {
		fmt.Println("go run ./cmd/scripts/reconcile [--owner <user id>]")
		os.Exit(1)
	}

	cfg, err := config.New()
	if err != nil {
		log.Err(err).Fatal("config error")
	}

	sb, err := sandbox.New(cfg.NotesDir)
	if err != nil {
		log.Err(err).Fatal("notes directory error")
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Err(err).Fatal("database error")
	}
	defer db.Close()

	wrkr := worker.New(cfg, db, sb)

	if opts.Owner != "" {
		removed, err := wrkr.ReconcileOwner(ctx, opts.Owner)
		if err != nil {
			log.Err(err).Fatal("reconcile error")
		}
		for _, path := range removed {
			fmt.Println(path)
		}
		fmt.Printf("Removed %d record(s) for %s\n", len(removed), opts.Owner)
		return
	}

	removed, err := wrkr.Reconcile(ctx)
	if err != nil {
		log.Err(err).Fatal("reconcile error")
	}
	fmt.Printf("Removed %d record(s)\n", removed)
}
