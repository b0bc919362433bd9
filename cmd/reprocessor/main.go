/*
The reprocessor scans for records the ingestion path left unprocessed and
attaches their numeric summaries in bulk, polling when the backlog is empty.
*/
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/fluxgate/fluxgate/internal/env"
	"github.com/fluxgate/fluxgate/internal/reprocess"
	"github.com/fluxgate/fluxgate/internal/store"
)

var cli struct {
	Mongo string `short:"m" help:"MongoDB URI." env:"MONGO_URI" default:"mongodb://localhost:27017"`
	DB    string `help:"Database name." env:"MONGO_DB" default:"telemetryDB"`
	Coll  string `help:"Collection name." env:"MONGO_COLL" default:"telemetryRecords"`

	Batch int64         `help:"Documents per pass." default:"200"`
	Poll  time.Duration `help:"Sleep between empty passes." default:"5s"`
}

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)

	env.Load(".env")
	kong.Parse(&cli)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := store.DialMongo(ctx, cli.Mongo, cli.DB, cli.Coll)
	if err != nil {
		log.Fatalf("cannot connect to MongoDB: %v", err)
	}
	defer m.Close(context.Background())
	log.Printf("[mongo] connected to %s db=%s coll=%s", cli.Mongo, cli.DB, cli.Coll)

	w := &reprocess.Worker{Store: m, Batch: cli.Batch, Poll: cli.Poll}

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Printf("[reprocess] stopped")
		return
	}
	log.Fatalf("[reprocess] worker failed: %v", err)
}
