package audit

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"coinpredict/internal/config"
)

type fakeLogServer struct {
	mu      sync.Mutex
	logins  int
	records []Record
	auth    []string
}

func (f *fakeLogServer) handler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/auth/login":
		f.mu.Lock()
		f.logins++
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(map[string]string{
			"token":      "tok",
			"expires_at": time.Now().Add(time.Hour).Format(time.RFC3339),
		})
	case "/api/v1/logs":
		var rec Record
		_ = json.NewDecoder(r.Body).Decode(&rec)
		f.mu.Lock()
		f.records = append(f.records, rec)
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestNewClient_NilWithoutBaseURL(t *testing.T) {
	if c := NewClient(config.AuditConfig{}); c != nil {
		t.Fatalf("expected nil client")
	}
	var c *Client
	c.LogBestEffort("noop", "info", nil)
}

func TestCreateLog_LogsInOnce(t *testing.T) {
	f := &fakeLogServer{}
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	defer srv.Close()

	c := NewClient(config.AuditConfig{BaseURL: srv.URL, APIKey: "k", Agent: "test-agent"})
	c.LogBestEffort("resolution_run", "info", map[string]any{"resolved": 2})
	c.LogBestEffort("resolution_run", "warn", map[string]any{"resolved": 0})

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logins != 1 {
		t.Fatalf("logins=%d want=1", f.logins)
	}
	if len(f.records) != 2 {
		t.Fatalf("records=%d want=2", len(f.records))
	}
	if f.records[0].Agent != "test-agent" || f.auth[0] != "Bearer tok" {
		t.Fatalf("record=%+v auth=%q", f.records[0], f.auth[0])
	}
}

func TestWriteMiddleware_SkipsReads(t *testing.T) {
	gin.SetMode(gin.TestMode)
	f := &fakeLogServer{}
	srv := httptest.NewServer(http.HandlerFunc(f.handler))
	defer srv.Close()

	engine := gin.New()
	engine.Use(WriteMiddleware(NewClient(config.AuditConfig{BaseURL: srv.URL, APIKey: "k"}), nil))
	engine.GET("/api/v1/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.POST("/api/v1/x", func(c *gin.Context) { c.Status(http.StatusConflict) })

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(method, "/api/v1/x", nil))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.records) != 1 {
		t.Fatalf("records=%d want=1", len(f.records))
	}
	if f.records[0].Level != "warn" {
		t.Fatalf("level=%s want=warn", f.records[0].Level)
	}
}
