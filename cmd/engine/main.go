package main

import (
	"context"
	"flag"

	"github.com/lintang-b-s/navmatch/pkg/engine"
	"github.com/lintang-b-s/navmatch/pkg/http"
	"github.com/lintang-b-s/navmatch/pkg/http/usecases"
	"github.com/lintang-b-s/navmatch/pkg/logger"
	"github.com/lintang-b-s/navmatch/pkg/mapmatcher/online"
	"github.com/lintang-b-s/navmatch/pkg/util"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	useRateLimit = flag.Bool("rate_limit", false, "limit REST requests with a global token bucket")
)

func main() {
	flag.Parse()
	if err := util.ReadConfig(); err != nil {
		panic(err)
	}
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	profiles, err := online.LoadProfiles()
	if err != nil {
		logger.Fatal("invalid map matcher profiles", zap.Error(err))
	}

	viper.SetDefault("MAX_SESSIONS", 10000)
	mapMatchEngine, err := engine.NewEngine(viper.GetInt("MAX_SESSIONS"), profiles, logger)
	if err != nil {
		logger.Fatal("create map matching engine", zap.Error(err))
	}

	api := http.NewServer(logger)

	mapmatcherService := usecases.NewMapMatcherService(logger, mapMatchEngine)
	ctx, cleanup, err := NewContext(mapMatchEngine)
	if err != nil {
		panic(err)
	}
	if _, err := api.Use(ctx, logger, *useRateLimit, mapmatcherService); err != nil {
		logger.Fatal("start server", zap.Error(err))
	}

	logger.Info("navmatch map matching server started",
		zap.Float64("highway_speed_threshold", profiles.HighwaySpeedThreshold),
		zap.Int("max_sessions", viper.GetInt("MAX_SESSIONS")))

	signal := http.GracefulShutdown()

	logger.Info("navmatch map matching server stopped", zap.String("signal", signal.String()))
	cleanup()
	if err := api.Wait(); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
	}
}

func NewContext(e *engine.Engine) (context.Context, func(), error) {
	ctx, cancel := context.WithCancel(context.Background())
	cb := func() {
		cancel()
		e.Close()
	}

	return ctx, cb, nil
}
