package main

import (
	"flag"
	"os"

	"stocwatch/config"
	"stocwatch/core/appbootstrap"
	"stocwatch/core/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	flag.Parse()

	logger := utils.NewLogger()
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}
	if err := appbootstrap.Run(cfg, logger); err != nil {
		logger.Errorf("run: %v", err)
		os.Exit(1)
	}
}
