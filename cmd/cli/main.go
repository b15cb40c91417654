package main

import (
	"context"
	"log"
	"os"

	"github.com/mealbook/mealbook/internal/buildinfo"
	"github.com/mealbook/mealbook/internal/client/cli"
	"github.com/mealbook/mealbook/internal/client/config"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
		return
	}

	app.Run(ctx)

}
