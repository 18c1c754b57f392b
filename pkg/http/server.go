package http

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	http_router "github.com/lintang-b-s/navmatch/pkg/http/router"
	"github.com/lintang-b-s/navmatch/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/navmatch/pkg/http/server"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Server struct {
	Log *zap.Logger
	g   *errgroup.Group
}

func NewServer(log *zap.Logger) *Server {
	return &Server{Log: log}
}

// Use. start the REST API, the websocket server and the websocket proxy in the background; they stop when ctx ends.
func (s *Server) Use(
	ctx context.Context,
	log *zap.Logger,

	useRateLimit bool,
	mapMatcherService controllers.MapMatcherService,
) (*Server, error) {
	viper.SetDefault("API_PORT", 6060)
	viper.SetDefault("WEBSOCKET_PORT", 6666)
	viper.SetDefault("PROXY_PORT", 6767)

	viper.SetDefault("API_TIMEOUT", "60s")

	config := http_server.Config{
		Port:          viper.GetInt("API_PORT"),
		WebsocketPort: viper.GetInt("WEBSOCKET_PORT"),
		Timeout:       viper.GetDuration("API_TIMEOUT"),
		ProxyPort:     viper.GetInt("PROXY_PORT"),
	}

	server := http_router.NewAPI(log)

	g, gctx := errgroup.WithContext(ctx)
	s.g = g

	g.Go(func() error {
		return server.Run(
			gctx, config, log,
			useRateLimit, mapMatcherService,
		)
	})

	return s, nil
}

// Wait. error that stopped the servers.
func (s *Server) Wait() error {
	if s.g == nil {
		return nil
	}
	return s.g.Wait()
}

// GracefulShutdown. blocks until SIGINT or SIGTERM.
func GracefulShutdown() os.Signal {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	return <-quit
}
