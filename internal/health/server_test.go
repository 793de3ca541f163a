package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealthAndLive(t *testing.T) {
	logger, _ := test.NewNullLogger()
	s := NewServer(Config{ServiceName: "peloton", Version: "1.0.0", Port: "0", Logger: logger})

	rec, body := get(t, s.Handler(), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "peloton", body["service"])
	assert.Equal(t, "1.0.0", body["version"])

	rec, _ = get(t, s.Handler(), "/live")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyReflectsStateAndChecks(t *testing.T) {
	var sourceErr error
	s := NewServer(Config{ServiceName: "peloton", Port: "0", Checks: map[string]Check{
		"database":    PingCheck(stubPinger{}),
		"pool_source": func(context.Context) error { return sourceErr },
	}})

	rec, body := get(t, s.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body["status"])

	s.SetReady(true)
	rec, body = get(t, s.Handler(), "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["checks"].(map[string]interface{})["database"])

	assert.Equal(t, "ok", body["checks"].(map[string]interface{})["pool_source"])

	sourceErr = errors.New("circuit breaker open")
	rec, body = get(t, s.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body["status"])
	assert.Contains(t, body["checks"].(map[string]interface{})["pool_source"], "circuit breaker open")
	assert.Equal(t, "ok", body["checks"].(map[string]interface{})["database"])
}

func TestReadyCheckTimeout(t *testing.T) {
	s := NewServer(Config{Port: "0", CheckTimeout: 10 * time.Millisecond, Checks: map[string]Check{
		"slow": func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}})
	s.SetReady(true)

	rec, body := get(t, s.Handler(), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, body["checks"].(map[string]interface{})["slow"], "deadline exceeded")
}

func TestExtraHandlersMounted(t *testing.T) {
	s := NewServer(Config{Port: "0", Handlers: map[string]http.Handler{
		"/metrics": http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"ok":true}`))
		}),
	}})

	rec, body := get(t, s.Handler(), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
}

func TestShutdownWithoutStart(t *testing.T) {
	s := NewServer(Config{Port: "0"})
	assert.NoError(t, s.Shutdown())
}
