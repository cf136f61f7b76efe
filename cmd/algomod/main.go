package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/NathanKirby/AlgoMod-Bot/internal/boot"
	"github.com/NathanKirby/AlgoMod-Bot/internal/catalog"
	"github.com/NathanKirby/AlgoMod-Bot/internal/dispatch"
	"github.com/NathanKirby/AlgoMod-Bot/internal/gateway"
	"github.com/NathanKirby/AlgoMod-Bot/internal/pendingstore"
	"github.com/NathanKirby/AlgoMod-Bot/internal/remotestore"
	"github.com/NathanKirby/AlgoMod-Bot/internal/service/verify"
)

func main() {
	config, err := boot.Load()
	if err != nil {
		log.Fatalf("boot: %+v", err)
	}

	pending, err := pendingstore.New(config)
	if err != nil {
		log.Fatalf("opening pending store: %+v", err)
	}
	defer pending.Close()

	store := remotestore.New(config)
	mods := catalog.New(store, config)

	gw, err := gateway.New(config)
	if err != nil {
		log.Fatalf("creating gateway: %+v", err)
	}

	verifier := verify.New(config, store, pending, mods, gw, gw, gw)
	dispatcher := dispatch.New(config, verifier, gw)

	if err := gw.Open(dispatcher); err != nil {
		log.Fatalf("connecting gateway: %+v", err)
	}
	defer gw.Close()
	log.Info("Logged in!")

	ops := echo.New()
	ops.HideBanner = true
	ops.Use(middleware.Recover())
	ops.Use(echoprometheus.NewMiddleware("algomod"))
	ops.GET("/metrics", echoprometheus.NewHandler())
	ops.GET("/healthz", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	go func() {
		if err := ops.Start(":" + config.Ops.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := ops.Shutdown(ctx); err != nil {
		log.Error(err)
	}
}
