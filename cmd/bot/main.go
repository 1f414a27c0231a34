package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/wardenbot/warden/internal/bot"
	"github.com/wardenbot/warden/internal/setup"
)

func main() {
	if err := run(); err != nil {
		log.Printf("Error: %v", err)
		os.Exit(1)
	}
}

func run() error {
	app := &cli.Command{
		Name:   "bot",
		Usage:  "Start the warden Discord bot",
		Action: runBot,
	}

	return app.Run(context.Background(), os.Args)
}

func runBot(ctx context.Context, _ *cli.Command) error {
	app, err := setup.InitializeApp(ctx)
	if err != nil {
		return err
	}
	defer app.Cleanup()

	discordBot, err := bot.New(app.Config.Bot.Token, app.DB, app.Jobs, app.Logger)
	if err != nil {
		return err
	}

	if err := discordBot.Start(ctx); err != nil {
		return err
	}

	app.Logger.Info("Bot started, waiting for interrupt signal")

	// Wait for interrupt signal to gracefully shutdown the bot
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	select {
	case <-sc:
	case <-ctx.Done():
	}

	discordBot.Close(context.Background())

	return nil
}
