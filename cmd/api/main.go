package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/lloydmeta/gol-rs/internal/config"
	"github.com/lloydmeta/gol-rs/internal/database"
	"github.com/lloydmeta/gol-rs/internal/engine"
	"github.com/lloydmeta/gol-rs/internal/server"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.NewConfig()
	dbs := database.NewDatabaseService(cfg)

	snapshot, err := dbs.GetSnapshot()
	if err != nil {
		log.Fatalf("could not get snapshot: %s", err)
	}

	eng := engine.NewEngine(cfg, snapshot, ctx)

	s := server.NewServer(cfg, dbs, eng)

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.ListenAndServe()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt)
	select {
	case err := <-errChan:
		log.Printf("could not serve: %v", err)
	case sig := <-sigChan:
		log.Printf("terminating: %v", sig)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second*5)
	defer shutdownCancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		log.Printf("could not shut down cleanly: %v", err)
	}
	if err := dbs.Close(); err != nil {
		log.Printf("could not close database: %v", err)
	}
}
