// Command client is the SilentSignals terminal client.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"silentsignals/client/internal/api"
	"silentsignals/client/internal/config"
	"silentsignals/client/internal/geo"
	"silentsignals/client/internal/session"
	"silentsignals/client/internal/telemetry"
	otelsetup "silentsignals/client/internal/telemetry/otel"
	"silentsignals/client/internal/ui"
)

const usage = `usage: ` + ui.CommandName + ` <command> [flags]

commands:
  register        create an account (email, PIN, password)
  login           sign in and store the token
  profile         show your profile
  contacts        list trusted contacts
  add-contact     add a trusted contact
  delete-contact  remove a trusted contact
  sos             send an SOS alert to every trusted contact
  logout          remove the stored token
`

// app is everything a command needs.
type app struct {
	cfg    *config.Config
	client *api.Client
	store  *session.FileStore
	geo    *geo.NominatimClient
	term   *ui.Terminal
	events telemetry.EventEmitter
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("client: ")
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]
	run, ok := commands[cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	store := session.NewFileStore(cfg.TokenFile)
	a := &app{
		cfg:    cfg,
		client: api.NewClient(cfg.APIBaseURL, cfg.Timeout(), store),
		store:  store,
		geo:    geo.NewNominatimClient(cfg.GeocoderURL),
		term:   ui.NewTerminal(os.Stdout, os.Stdin),
		events: otelsetup.NewEventEmitter(providers.LoggerProvider),
	}

	runErr := run(ctx, a, args)

	if !telemetry.Drain(telemetry.ShutdownDrainDuration) {
		log.Printf("telemetry: events still in flight at shutdown")
	}
	if err := providers.Shutdown(context.Background()); err != nil {
		log.Printf("telemetry: shutdown: %v", err)
	}

	if runErr != nil {
		if errors.Is(runErr, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
