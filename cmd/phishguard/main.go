package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/phishguard/internal/app"
	"github.com/dmitrijs2005/phishguard/internal/cli"
	"github.com/dmitrijs2005/phishguard/internal/config"
	"github.com/dmitrijs2005/phishguard/internal/flagx"
)

func main() {
	cfg := config.LoadConfig()

	ctx, cancel := app.InitSignalHandler(context.Background())
	defer cancel()

	a, err := app.NewApp(ctx, cfg, app.WithNotifier(cli.Notifier()))
	if err != nil {
		log.Fatalf("%v", err)
	}

	c := cli.New(a.Scanner(), a, cfg.TierValue())

	code := 0
	if args := flagx.Positional(os.Args[1:], config.ValueFlags()); len(args) > 0 {
		if err := c.RunOnce(ctx, args); err != nil {
			log.Printf("%v", err)
			code = 1
		}
	} else {
		c.Run(ctx)
	}

	if err := a.Close(); err != nil {
		log.Printf("%v", err)
	}
	cancel()
	os.Exit(code)
}
