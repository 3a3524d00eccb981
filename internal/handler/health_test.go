package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestHealth_Ready(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name string
		ping func(context.Context) error
		want int
	}{
		{"no db", nil, http.StatusServiceUnavailable},
		{"ping fails", func(context.Context) error { return errors.New("refused") }, http.StatusServiceUnavailable},
		{"ok", func(context.Context) error { return nil }, http.StatusOK},
	}
	for _, tc := range cases {
		r := gin.New()
		(&HealthHandler{Ping: tc.ping}).Register(r)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if w.Code != tc.want {
			t.Fatalf("%s: status=%d want=%d body=%s", tc.name, w.Code, tc.want, w.Body.String())
		}
	}
}

func TestHealth_Live(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	(&HealthHandler{}).Register(r)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
}
