package main

import (
	"embed"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/chazu/fluteforge/pkg/config"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	configPath := pflag.StringP("config", "c", "", "JSON5 config file")
	pflag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			zerolog.New(os.Stderr).Fatal().Err(err).Msg("load config")
		}
	}
	log, err := cfg.Logger(os.Stderr)
	if err != nil {
		zerolog.New(os.Stderr).Fatal().Err(err).Msg("logger")
	}

	app, err := NewApp(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create app")
	}

	err = wails.Run(&options.App{
		Title:  "Fluteforge",
		Width:  1280,
		Height: 800,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Msg("wails")
	}
}
