package router

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/gobwas/ws"
	"github.com/lintang-b-s/navmatch/pkg/concurrent"
	"github.com/lintang-b-s/navmatch/pkg/http/router/controllers"
	http_server "github.com/lintang-b-s/navmatch/pkg/http/server"
	"github.com/mailru/easygo/netpoll"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func (api *API) handleWebsocket(ctx context.Context, config http_server.Config,
	mapMatcherService controllers.MapMatcherService, errChan chan error,
) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", config.WebsocketPort))
	if err != nil {
		errChan <- err
		return
	}
	api.log.Info(fmt.Sprintf("online map-matcher websocket API run on port %d", config.WebsocketPort))

	acceptDesc, err := netpoll.HandleListener(ln, netpoll.EventRead|netpoll.EventOneShot)
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	api.poller, err = netpoll.New(nil)
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	viper.SetDefault("WEBSOCKET_WORKERS", 128)
	viper.SetDefault("WEBSOCKET_QUEUE", 64)
	api.pool = concurrent.NewPool(viper.GetInt("WEBSOCKET_WORKERS"), viper.GetInt("WEBSOCKET_QUEUE"), 8)
	api.hub = controllers.NewHub(mapMatcherService, api.log)

	// accept is a channel to signal about next incoming connection Accept()
	// results.
	accept := make(chan error, 1)

	err = api.poller.Start(acceptDesc, func(ev netpoll.Event) {
		/*
			listener fd is in the epoll interest list with EPOLLONESHOT; every readiness event
			accepts one connection on a pooled goroutine, then re-arms the descriptor.
		*/
		defer api.poller.Resume(acceptDesc)
		err := api.pool.ScheduleTimeout(time.Millisecond, func() {
			conn, err := ln.Accept()
			if err != nil {
				accept <- err
				return
			}

			accept <- nil
			api.handle(conn)
		})
		if err == nil {
			err = <-accept
		}
		if err != nil {
			if err == concurrent.ErrPoolClosed {
				return
			}
			/*
				pool busy for 1 ms or a temporary accept error: cool down for 5 ms.
			*/
			delay := 5 * time.Millisecond
			api.log.Info("accept error, retrying", zap.Error(err), zap.Duration("delay", delay))
			time.Sleep(delay)
		}
	})
	if err != nil {
		ln.Close()
		errChan <- err
		return
	}

	<-ctx.Done()

	api.poller.Stop(acceptDesc)
	ln.Close()
	api.hub.RemoveAllUser()
	api.pool.Close()

	api.log.Info("websocket server stopped")
}

/*
handle. upgrade conn and register it with the hub, then read client messages whenever epoll reports the
connection readable. ref: https://sergey.kamardin.org/articles/million-websocket-and-go/
*/
func (api *API) handle(conn net.Conn) {
	br := bufio.NewReader(conn)

	rw := struct {
		io.Reader
		io.Writer
	}{br, conn}

	hs, err := ws.Upgrade(rw)
	if err != nil {
		api.log.Info("upgrade error", zap.Error(err), zap.String("connection", nameConn(conn)))
		conn.Close()
		return
	}

	user, err := api.hub.Register(conn)
	if err != nil {
		api.log.Error("register websocket user", zap.Error(err), zap.String("connection", nameConn(conn)))
		conn.Close()
		return
	}
	api.log.Info("established websocket connection", zap.String("connection", nameConn(conn)),
		zap.String("protocol", hs.Protocol), zap.String("session", user.SessionID()))

	desc, err := netpoll.HandleRead(conn)
	if err != nil {
		api.hub.Remove(user)
		return
	}

	err = api.poller.Start(desc, func(ev netpoll.Event) {
		if ev&(netpoll.EventReadHup|netpoll.EventHup) != 0 {
			// peer closed its end.
			api.log.Info("user disconnected from websocket server", zap.String("session", user.SessionID()))
			api.poller.Stop(desc)
			api.hub.Remove(user)
			return
		}

		err := api.pool.Schedule(func() {
			if err := user.Receive(); err != nil {
				api.log.Info("websocket read failed, dropping user", zap.Error(err),
					zap.String("session", user.SessionID()))
				api.poller.Stop(desc)
				api.hub.Remove(user)
			}
		})
		if err != nil {
			api.poller.Stop(desc)
			api.hub.Remove(user)
		}
	})
	if err != nil {
		api.hub.Remove(user)
	}
}

func nameConn(conn net.Conn) string {
	return conn.LocalAddr().String() + " > " + conn.RemoteAddr().String()
}
