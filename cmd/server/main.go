package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/phishguard/internal/app"
	"github.com/dmitrijs2005/phishguard/internal/buildinfo"
	"github.com/dmitrijs2005/phishguard/internal/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	a, err := app.NewApp(ctx, cfg)

	if err != nil {
		log.Printf("%v", err)
		return
	}
	defer a.Close()

	if err := a.RunServer(ctx); err != nil {
		log.Printf("%v", err)
	}

}
