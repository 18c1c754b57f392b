package controllers

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/lintang-b-s/navmatch/pkg/mapmatcher/online"
	"go.uber.org/zap"
)

const userStreamBuffer = 64

// User. one websocket connection bound to one map matching session.
type User struct {
	rio  sync.Mutex
	wio  sync.Mutex
	conn io.ReadWriteCloser

	id          uint
	sessionID   string
	hub         *Hub
	unsubscribe func()
}

func (u *User) SessionID() string {
	return u.sessionID
}

func (u *User) readRequest() (*wsMessage, error) {
	u.rio.Lock()
	defer u.rio.Unlock()

	h, r, err := wsutil.NextReader(u.conn, ws.StateServerSide)
	if err != nil {
		return nil, err
	}
	if h.OpCode.IsControl() {
		return nil, wsutil.ControlFrameHandler(u.conn, ws.StateServerSide)(h, r)
	}

	req := &wsMessage{}
	decoder := json.NewDecoder(r)
	if err := decoder.Decode(req); err != nil {
		return nil, err
	}
	return req, nil
}

// Receive. read and apply one client message. route and reset messages are acknowledged, matched locations
// reach the client through the session stream.
func (u *User) Receive() error {
	req, err := u.readRequest()
	if err != nil {
		u.conn.Close()
		return err
	}
	if req == nil {
		return nil
	}

	if err := validateStruct(req); err != nil {
		return u.write(errorEnvelope(http.StatusBadRequest, err.Error()))
	}

	svc := u.hub.mapmatchingService
	switch req.Type {
	case messageRoute:
		route, err := req.Route.ToRoute()
		if err != nil {
			return u.write(errorEnvelope(http.StatusBadRequest, err.Error()))
		}
		if err := svc.UpdateRoute(u.sessionID, route); err != nil {
			return u.write(errorEnvelope(http.StatusNotFound, err.Error()))
		}
		return u.write(envelope{"ack": messageRoute, "empty_route": route.IsEmpty()})
	case messageReset:
		if err := svc.Reset(u.sessionID); err != nil {
			return u.write(errorEnvelope(http.StatusNotFound, err.Error()))
		}
		return u.write(envelope{"ack": messageReset})
	case messageFix:
		if _, _, err := svc.Ingest(u.sessionID, req.Fix.ToGPSPoint()); err != nil {
			return u.write(errorEnvelope(http.StatusNotFound, err.Error()))
		}
	}
	return nil
}

// forward. push the session stream to the client. the stream ends when the session is evicted or the client
// falls a full buffer behind; the user is dropped then so the client reconnects to a fresh session.
func (u *User) forward(stream <-chan online.EnhancedLocation) {
	defer u.hub.Remove(u)
	for loc := range stream {
		if err := u.write(envelope{"data": NewLocationResponse(loc)}); err != nil {
			u.hub.log.Info("push matched location failed", zap.String("session", u.sessionID), zap.Error(err))
			return
		}
	}
	u.hub.log.Info("session stream ended", zap.String("session", u.sessionID))
}

func (u *User) write(x interface{}) error {
	w := wsutil.NewWriter(u.conn, ws.StateServerSide, ws.OpText)
	encoder := json.NewEncoder(w)

	u.wio.Lock()
	defer u.wio.Unlock()

	if err := encoder.Encode(x); err != nil {
		return err
	}

	return w.Flush()
}

type Hub struct {
	mu                 sync.RWMutex
	seq                uint
	us                 []*User
	ns                 map[uint]*User
	mapmatchingService MapMatcherService
	log                *zap.Logger
}

func NewHub(mmService MapMatcherService, log *zap.Logger) *Hub {
	hub := &Hub{
		ns:                 make(map[uint]*User),
		us:                 make([]*User, 0),
		mapmatchingService: mmService,
		log:                log,
	}

	return hub
}

// Register. new user with its own session (no route yet) whose matched locations are pushed to conn.
func (h *Hub) Register(conn net.Conn) (*User, error) {
	user := &User{
		hub:  h,
		conn: conn,
	}

	h.mu.Lock()
	user.id = h.seq
	user.sessionID = fmt.Sprintf("ws-%d", user.id)
	h.ns[user.id] = user
	h.us = append(h.us, user)
	h.seq++
	h.mu.Unlock()

	h.mapmatchingService.StartSession(user.sessionID, nil)
	stream, unsubscribe, err := h.mapmatchingService.Subscribe(user.sessionID, userStreamBuffer)
	if err != nil {
		h.Remove(user)
		return nil, err
	}
	user.unsubscribe = unsubscribe
	go user.forward(stream)

	return user, nil
}

func (h *Hub) Remove(user *User) {
	h.mu.Lock()
	if _, oki := h.ns[user.id]; !oki {
		h.mu.Unlock()
		return
	}
	delete(h.ns, user.id)

	i := sort.Search(len(h.us), func(i int) bool {
		return h.us[i].id >= user.id
	})

	newUs := make([]*User, len(h.us)-1)
	copy(newUs[:i], h.us[:i])
	copy(newUs[i:], h.us[i+1:])
	h.us = newUs
	h.mu.Unlock()

	if user.unsubscribe != nil {
		user.unsubscribe()
	}
	h.mapmatchingService.EndSession(user.sessionID)
	user.conn.Close()
}

func (h *Hub) NumUsers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.us)
}

func (h *Hub) RemoveAllUser() {
	h.mu.RLock()
	users := make([]*User, len(h.us))
	copy(users, h.us)
	h.mu.RUnlock()

	for _, user := range users {
		h.Remove(user)
	}
}
