package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port          int
	WebsocketPort int
	ProxyPort     int
	Timeout       time.Duration
}

// New. http.Server for handler on config.Port, or config.WebsocketPort when websocket is set.
func New(ctx context.Context, handler http.Handler, config Config, websocket bool) *http.Server {
	viper.SetDefault("HTTP_SERVER_READ_TIMEOUT", "15s")
	viper.SetDefault("HTTP_SERVER_WRITE_TIMEOUT", "15s")
	viper.SetDefault("HTTP_SERVER_IDLE_TIMEOUT", "120s")
	viper.SetDefault("HTTP_SERVER_READ_HEADER_TIMEOUT", "5s")

	port := config.Port
	if websocket {
		port = config.WebsocketPort
	} else if config.Timeout > 0 {
		handler = http.TimeoutHandler(handler, config.Timeout, "request timed out")
	}

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
		ReadTimeout:       viper.GetDuration("HTTP_SERVER_READ_TIMEOUT"),
		WriteTimeout:      config.Timeout + viper.GetDuration("HTTP_SERVER_WRITE_TIMEOUT"),
		IdleTimeout:       viper.GetDuration("HTTP_SERVER_IDLE_TIMEOUT"),
		ReadHeaderTimeout: viper.GetDuration("HTTP_SERVER_READ_HEADER_TIMEOUT"),
	}
}
