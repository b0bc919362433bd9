/*
The producer sends telemetry records to the ingestion server over a framed
TCP connection, either replaying a CSV export or generating synthetic
records, at a fixed interval with optional per-message acknowledgement.
*/
package main

import (
	"log"
	"net"
	"strconv"
	"time"

	"github.com/alecthomas/kong"

	"github.com/fluxgate/fluxgate/internal/env"
	"github.com/fluxgate/fluxgate/internal/gen"
	"github.com/fluxgate/fluxgate/pkg/client"
	"github.com/fluxgate/fluxgate/pkg/types"
)

var cli struct {
	Host string `help:"Ingestion server host." env:"FLUXGATE_HOST" default:"127.0.0.1"`
	Port int    `help:"Ingestion server port." env:"FLUXGATE_PORT" default:"5000"`

	Mode string `help:"Record source." enum:"csv,generate" default:"csv"`
	File string `short:"f" help:"CSV file path (required for --mode csv)." env:"CSV_FILE"`
	Loop bool   `help:"Replay CSV rows from the start when the file is exhausted."`

	Interval time.Duration `help:"Delay between batches; 0 sends a single batch and exits." default:"5s"`
	Batch    int           `help:"Records per batch." default:"1"`
	Seed     uint64        `help:"RNG seed for reproducible runs; 0 is random."`
	Ack      bool          `help:"Wait for the server ack after each record."`

	ReconnectBackoff time.Duration `help:"Initial reconnect backoff." default:"1s"`
	MaxBackoff       time.Duration `help:"Reconnect backoff ceiling." default:"60s"`

	CountriesFile string `help:"JSON file overriding the country/city mapping."`
}

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)

	env.Load(".env")
	kong.Parse(&cli)

	if cli.Mode == "csv" && cli.File == "" {
		log.Fatalf("--mode csv requires --file")
	}

	g, err := gen.New(cli.Seed, cli.CountriesFile)
	if err != nil {
		log.Fatalf("cannot build generator: %v", err)
	}

	var src *gen.CSVSource
	if cli.Mode == "csv" {
		src, err = gen.LoadCSV(cli.File, cli.Loop)
		if err != nil {
			log.Fatalf("cannot load CSV: %v", err)
		}
		log.Printf("[csv] loaded %d row(s) from %s", src.Len(), cli.File)
	}

	c := client.New(client.Config{
		Addr:           net.JoinHostPort(cli.Host, strconv.Itoa(cli.Port)),
		WaitAck:        cli.Ack,
		InitialBackoff: cli.ReconnectBackoff,
		MaxBackoff:     cli.MaxBackoff,
	})
	defer c.Close()

	c.Connect()

	sent := 0
	for {
		start := time.Now()

		exhausted := false
		for i := 0; i < cli.Batch; i++ {
			var doc map[string]any
			if cli.Mode == "csv" {
				base, ok := src.Next()
				if !ok {
					exhausted = true
					break
				}
				doc = base
				g.Augment(doc)
			} else {
				doc = g.Record()
			}

			ack, err := c.Send(doc)
			if err != nil {
				log.Printf("[tcp] send failed twice: %v, skipping record", err)
				continue
			}
			if cli.Ack && ack.Status != types.StatusOK {
				log.Printf("[tcp] non-ok ack: %s", ack.Reason)
			}
			sent++
		}

		log.Printf("[tcp] sent %d record(s) total", sent)

		if exhausted {
			log.Printf("[csv] rows exhausted and --loop not set, exiting")
			return
		}
		if cli.Interval <= 0 {
			log.Printf("[run] interval is zero, exiting after a single batch")
			return
		}

		if remaining := cli.Interval - time.Since(start); remaining > 0 {
			time.Sleep(remaining)
		}
	}
}
