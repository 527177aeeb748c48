package main

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"unimate-server/internal/auth"
	"unimate-server/internal/config"
	"unimate-server/internal/relay"
	"unimate-server/internal/server"
	"unimate-server/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	gin.SetMode(cfg.GinMode)

	st := store.NewWithOptions(store.Options{StateFile: cfg.StateFile})
	if cfg.SeedDemoData {
		if err := st.SeedDemoData(); err != nil {
			logrus.Fatal(err)
		}
	}

	tokenCfg := auth.TokenConfig{
		Secret:        cfg.MasterSecret,
		AccessExpiry:  cfg.AccessTokenExpiry,
		RefreshExpiry: cfg.RefreshTokenExpiry,
		Issuer:        "unimate-server",
	}

	hub := relay.NewWithOptions(relay.Options{DedupLogin: cfg.DedupLoginEvents})
	stop := make(chan struct{})
	defer close(stop)
	go hub.RunHeartbeat(cfg.HeartbeatInterval, stop)

	router := server.NewRouter(server.Deps{Store: st, TokenConfig: tokenCfg, Relay: hub})
	logrus.Infof("listening on %s", fmt.Sprintf(":%d", cfg.Port))
	logrus.Fatal(server.Run(cfg, router))
}
