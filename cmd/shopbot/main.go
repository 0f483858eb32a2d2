package main

import (
	"log"

	corecmd "shopbot/core/cmd"
	coreconfig "shopbot/core/config"
	"shopbot/internal/app"
)

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			cfg, err := coreconfig.Load(path)
			if err != nil {
				return nil, err
			}
			return carrier{cfg: cfg}, nil
		},
		Bootstrap: func(cc corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return app.New(cc.CoreConfig())
		},
	})
	if err != nil {
		log.Fatalf("shopbot: %v", err)
	}
}

type carrier struct {
	cfg *coreconfig.Config
}

func (c carrier) CoreConfig() *coreconfig.Config {
	return c.cfg
}
