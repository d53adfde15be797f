package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	perr "gatekeeper/internal/platform/errors"
	phttp "gatekeeper/internal/platform/net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func TestRecoverJSON(t *testing.T) {
	h := chimw.RequestID(RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Code != perr.ErrorCodePanic || env.RequestID == "" {
		t.Fatalf("envelope = %+v", env)
	}
	if rec.Header().Get("X-Request-ID") != env.RequestID {
		t.Fatalf("request id header not mirrored")
	}
}

func TestRecoverJSON_PassThrough(t *testing.T) {
	h := RecoverJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestAccessLog_CapturesStatusAndBytes(t *testing.T) {
	var seen *captureWriter
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		seen = w.(*captureWriter)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("Bot is alive!"))
	})
	h := AccessLogZerolog(AccessLogOptions{Slow: time.Minute, Quiet: []string{"/"}})(inner)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == nil || seen.status != http.StatusAccepted || seen.bytes != len("Bot is alive!") {
		t.Fatalf("capture = %+v", seen)
	}
	if rec.Body.String() != "Bot is alive!" {
		t.Fatalf("body = %q", rec.Body.String())
	}
}
