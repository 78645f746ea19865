package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/clauseworks/decision-engine/internal/bootstrap"
	"github.com/clauseworks/decision-engine/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	dir := flag.String("dir", cfg.RawDocsPath, "directory of policy documents to index")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "decision-engine-ingest")
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	count, err := app.IngestUC.Rebuild(ctx, *dir)
	if err != nil {
		log.Fatalf("ingest error: %v", err)
	}
	fmt.Printf("indexed %d chunks from %s into collection %q\n", count, *dir, cfg.QdrantCollection)
}
