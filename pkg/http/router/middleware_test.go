package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lintang-b-s/navmatch/pkg/engine"
	"github.com/lintang-b-s/navmatch/pkg/http/usecases"
	"github.com/lintang-b-s/navmatch/pkg/mapmatcher/online"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestEnforceJSONHandler(t *testing.T) {
	testCases := []struct {
		name        string
		method      string
		contentType string
		wantStatus  int
	}{
		{name: "get without body", method: http.MethodGet, wantStatus: http.StatusOK},
		{name: "post json", method: http.MethodPost, contentType: "application/json; charset=utf-8", wantStatus: http.StatusOK},
		{name: "post without content type", method: http.MethodPost, wantStatus: http.StatusBadRequest},
		{name: "post malformed content type", method: http.MethodPost, contentType: "application/", wantStatus: http.StatusBadRequest},
		{name: "post text", method: http.MethodPost, contentType: "text/plain", wantStatus: http.StatusUnsupportedMediaType},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/matchTrace", strings.NewReader("{}"))
			if tt.method == http.MethodGet {
				req = httptest.NewRequest(tt.method, "/api/profiles", nil)
			}
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			EnforceJSONHandler(okHandler).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRealIP(t *testing.T) {
	testCases := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{name: "x-real-ip", headers: map[string]string{"X-Real-IP": "10.0.0.7"}, want: "10.0.0.7"},
		{name: "x-forwarded-for", headers: map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, want: "203.0.113.9"},
		{name: "garbage", headers: map[string]string{"X-Real-IP": "not-an-ip"}, want: "192.0.2.1:1234"},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeartbeat(t *testing.T) {
	h := Heartbeat("healthz")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ".", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/other", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestLabels(t *testing.T) {
	var seen []string
	h := Labels(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, RequestID(r.Context()))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, httptest.NewRequest(http.MethodGet, "/", nil))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec3 := httptest.NewRecorder()
	h.ServeHTTP(rec3, req)

	require.Len(t, seen, 3)
	assert.NotEmpty(t, seen[0])
	assert.NotEqual(t, seen[0], seen[1])
	assert.Equal(t, seen[0], rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "abc-123", seen[2])
	assert.Equal(t, "abc-123", rec3.Header().Get("X-Request-Id"))
	assert.Empty(t, RequestID(req.Context()))
}

func TestLimit(t *testing.T) {
	viper.Set("RATE_LIMIT_RPS", 0.001)
	viper.Set("RATE_LIMIT_BURST", 2)
	t.Cleanup(viper.Reset)

	h := Limit(okHandler)
	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusTooManyRequests}, codes)
}

func TestRecoverPanic(t *testing.T) {
	api := NewAPI(zap.NewNop())
	h := api.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
}

func TestHandler(t *testing.T) {
	e, err := engine.NewEngine(8, online.DefaultProfiles(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	service := usecases.NewMapMatcherService(zap.NewNop(), e)

	srv := httptest.NewServer(NewAPI(zap.NewNop()).Handler(false, service))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/profiles")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))

	resp, err = http.Post(srv.URL+"/api/matchTrace", "text/plain", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
