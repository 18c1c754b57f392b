package routerhelper

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// RouteGroup. httprouter routes sharing a path prefix.
type RouteGroup struct {
	r *httprouter.Router
	p string
}

func NewRouteGroup(r *httprouter.Router, p string) *RouteGroup {
	if p != "" && p[0] != '/' {
		p = "/" + p
	}
	for len(p) > 0 && p[len(p)-1] == '/' {
		p = p[:len(p)-1]
	}
	return &RouteGroup{r: r, p: p}
}

func (g *RouteGroup) Group(path string) *RouteGroup {
	return NewRouteGroup(g.r, g.subPath(path))
}

func (g *RouteGroup) Handle(method, path string, handle httprouter.Handle) {
	g.r.Handle(method, g.subPath(path), handle)
}

func (g *RouteGroup) Handler(method, path string, handler http.Handler) {
	g.r.Handler(method, g.subPath(path), handler)
}

func (g *RouteGroup) GET(path string, handle httprouter.Handle) {
	g.Handle(http.MethodGet, path, handle)
}

func (g *RouteGroup) POST(path string, handle httprouter.Handle) {
	g.Handle(http.MethodPost, path, handle)
}

func (g *RouteGroup) PUT(path string, handle httprouter.Handle) {
	g.Handle(http.MethodPut, path, handle)
}

func (g *RouteGroup) DELETE(path string, handle httprouter.Handle) {
	g.Handle(http.MethodDelete, path, handle)
}

func (g *RouteGroup) subPath(path string) string {
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	return g.p + path
}
