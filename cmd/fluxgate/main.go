/*
The fluxgate server ingests framed telemetry records over TCP, persists them,
and republishes storage change events to SSE and WebSocket subscribers, with
an optional RabbitMQ relay for backend consumers.
*/
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/fluxgate/fluxgate/internal/env"
	"github.com/fluxgate/fluxgate/internal/httpapi"
	"github.com/fluxgate/fluxgate/internal/mq"
	"github.com/fluxgate/fluxgate/internal/pubsub"
	"github.com/fluxgate/fluxgate/internal/store"
	"github.com/fluxgate/fluxgate/internal/tcp"
)

var cli struct {
	Host string `help:"Host to bind the ingestion listener." env:"FLUXGATE_HOST" default:"0.0.0.0"`
	Port int    `help:"Port to bind the ingestion listener." env:"FLUXGATE_PORT" default:"5000"`

	HTTPHost string `name:"http-host" help:"Host for the SSE/WebSocket push transport." env:"FLUXGATE_HTTP_HOST" default:"0.0.0.0"`
	HTTPPort int    `name:"http-port" help:"Port for the SSE/WebSocket push transport." env:"FLUXGATE_HTTP_PORT" default:"8000"`

	Store string `help:"Storage backend." enum:"mongo,memory" env:"FLUXGATE_STORE" default:"mongo"`
	Mongo string `help:"MongoDB URI (change streams require a replica set)." env:"MONGO_URI" default:"mongodb://localhost:27017"`
	DB    string `help:"Database name." env:"MONGO_DB" default:"telemetryDB"`
	Coll  string `help:"Collection name." env:"MONGO_COLL" default:"telemetryRecords"`

	Amqp     string `help:"RabbitMQ URL for the change relay; empty disables it." env:"RABBITMQ_URL" default:""`
	Exchange string `help:"Relay exchange name." env:"RELAY_EXCHANGE" default:"changes"`

	Buffer   int  `help:"Per-subscriber pending event buffer." default:"200"`
	NoEnrich bool `help:"Skip synchronous post-insert enrichment."`
}

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)

	env.Load(".env")
	kong.Parse(&cli)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var st store.Store
	switch cli.Store {
	case "memory":
		st = store.NewMemory()
		log.Printf("[store] using in-memory storage")
	default:
		m, err := store.DialMongo(ctx, cli.Mongo, cli.DB, cli.Coll)
		if err != nil {
			log.Fatalf("cannot connect to MongoDB: %v", err)
		}
		defer m.Close(context.Background())
		st = m
		log.Printf("[mongo] connected to %s db=%s coll=%s", cli.Mongo, cli.DB, cli.Coll)
	}

	registry := pubsub.NewRegistry(cli.Buffer)

	var relay pubsub.Relay
	if cli.Amqp != "" {
		r, err := mq.Dial(cli.Amqp, cli.Exchange)
		if err != nil {
			log.Fatalf("cannot connect to RabbitMQ: %v", err)
		}
		defer r.Close()
		relay = r
		log.Printf("[mq] relaying change events to exchange %q", cli.Exchange)
	}

	broadcaster := pubsub.NewBroadcaster(st, registry, relay)
	go func() {
		if err := broadcaster.Run(ctx); err != nil && ctx.Err() == nil {
			// Notifications are down but ingestion keeps running.
			log.Printf("[watch] broadcaster stopped: %v", err)
		}
	}()

	httpAddr := net.JoinHostPort(cli.HTTPHost, strconv.Itoa(cli.HTTPPort))
	go func() {
		log.Printf("[http] push transport listening on %s", httpAddr)
		if err := http.ListenAndServe(httpAddr, httpapi.NewServer(registry).Routes()); err != nil {
			log.Fatalf("http server: %v", err)
		}
	}()

	srv := tcp.NewServer(st)
	srv.Enrich = !cli.NoEnrich

	addr := net.JoinHostPort(cli.Host, strconv.Itoa(cli.Port))
	if err := srv.Listen(addr); err != nil {
		log.Fatalf("cannot bind ingestion listener: %v", err)
	}
	log.Printf("[tcp] ingestion listening on %s", addr)

	go func() {
		<-ctx.Done()
		log.Printf("[tcp] shutting down, live connections drain on their own")
		srv.Shutdown()
	}()

	if err := srv.Serve(); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
