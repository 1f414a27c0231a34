package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/disgoorg/disgo"
	"github.com/urfave/cli/v3"

	discordaction "github.com/wardenbot/warden/internal/discord"
	"github.com/wardenbot/warden/internal/moderation"
	"github.com/wardenbot/warden/internal/setup"
	"github.com/wardenbot/warden/internal/worker/expiry"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:   "worker",
		Usage:  "Start the warden expiration worker",
		Action: runWorker,
	}

	return app.Run(context.Background(), os.Args)
}

func runWorker(ctx context.Context, _ *cli.Command) error {
	app, err := setup.InitializeApp(ctx)
	if err != nil {
		return err
	}
	defer app.Cleanup()

	// REST-only Discord client; the worker never opens the gateway.
	client, err := disgo.New(app.Config.Bot.Token)
	if err != nil {
		return err
	}
	defer client.Close(context.Background())

	service := moderation.NewService(
		app.DB.Model().Case(),
		app.Jobs,
		discordaction.NewExecutor(client, app.Logger),
		discordaction.NewNotifier(client, app.Logger),
		app.Logger,
	)

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	defer cancel()

	worker := expiry.New(app.Jobs, service, &app.Config.Worker, app.Logger)
	worker.Start(ctx)

	return nil
}
