package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestTrigger_Fire(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s", r.Method)
		}
		if r.Header.Get("Authorization") != "Bearer s3cret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"message":"unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"code":0,"message":"ok","data":{"totalEligible":3,"resolvedThisRun":2,"errorsEncountered":1,"errorMessages":["prediction c: oracle"]}}`))
	}))
	defer srv.Close()

	tr := newTrigger(srv.URL, "s3cret", time.Second, zap.NewNop())
	summary, err := tr.Fire(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if summary.TotalEligible != 3 || summary.ResolvedThisRun != 2 || summary.ErrorsEncountered != 1 {
		t.Fatalf("summary=%+v", summary)
	}

	bad := newTrigger(srv.URL, "wrong", time.Second, zap.NewNop())
	if _, err := bad.Fire(context.Background()); err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("err=%v want 401", err)
	}
}

func TestTrigger_RejectsNonEnvelopeSuccess(t *testing.T) {
	bodies := map[string]string{
		"html":    "<html>proxy login</html>",
		"no data": `{"code":0,"message":"ok"}`,
		"null":    `{"code":0,"message":"ok","data":null}`,
	}
	for name, body := range bodies {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(body))
		}))
		tr := newTrigger(srv.URL, "s3cret", time.Second, zap.NewNop())
		if _, err := tr.Fire(context.Background()); err == nil {
			t.Fatalf("%s: expected error for 200 with body %q", name, body)
		}
		srv.Close()
	}
}

func TestTrigger_EmptySecret(t *testing.T) {
	tr := newTrigger("http://127.0.0.1:1", "", time.Second, zap.NewNop())
	if _, err := tr.Fire(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}
