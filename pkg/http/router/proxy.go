package router

import (
	"io"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const upstreamDialTimeout = 3 * time.Second

// wsProxy. passes websocket upgrade requests from the public port to the netpoll websocket server.
type wsProxy struct {
	log    *zap.Logger
	name   string
	addr   string
	active atomic.Int64
}

func newWsProxy(log *zap.Logger, name, addr string) *wsProxy {
	return &wsProxy{log: log.With(zap.String("upstream", name)), name: name, addr: addr}
}

func isWebsocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

func (p *wsProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !isWebsocketUpgrade(r) {
		writeError(w, http.StatusBadRequest, "expected a websocket upgrade request")
		return
	}

	peer, err := net.DialTimeout("tcp", p.addr, upstreamDialTimeout)
	if err != nil {
		p.log.Error("dial websocket server", zap.Error(err))
		writeError(w, http.StatusBadGateway, "map matching stream unavailable")
		return
	}
	if err := r.Write(peer); err != nil {
		p.log.Error("forward upgrade request", zap.Error(err))
		peer.Close()
		writeError(w, http.StatusBadGateway, "map matching stream unavailable")
		return
	}

	hj, ok := w.(http.Hijacker)
	if !ok {
		peer.Close()
		writeError(w, http.StatusInternalServerError, "connection cannot be taken over")
		return
	}
	client, buffered, err := hj.Hijack()
	if err != nil {
		peer.Close()
		p.log.Error("hijack client connection", zap.Error(err))
		return
	}

	// frames the client sent right after the upgrade may already sit in the server's read buffer.
	if n := buffered.Reader.Buffered(); n > 0 {
		pending, _ := buffered.Reader.Peek(n)
		if _, err := peer.Write(pending); err != nil {
			client.Close()
			peer.Close()
			return
		}
	}

	go p.pipe(client, peer, r.RemoteAddr)
}

// pipe. copy both directions until either side closes, then close both.
func (p *wsProxy) pipe(client, peer net.Conn, remote string) {
	p.active.Add(1)
	defer p.active.Add(-1)

	var up, down int64
	var g errgroup.Group
	g.Go(func() error {
		defer peer.Close()
		n, err := io.Copy(peer, client)
		up = n
		return err
	})
	g.Go(func() error {
		defer client.Close()
		n, err := io.Copy(client, peer)
		down = n
		return err
	})
	err := g.Wait()

	p.log.Debug("websocket connection proxied", zap.String("remote", remote), zap.Int64("bytes_up", up),
		zap.Int64("bytes_down", down), zap.NamedError("close", err))
}

func (p *wsProxy) Active() int64 {
	return p.active.Load()
}
