// internal/api/client_test.go
package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c := New("http://localhost:8080", 5*time.Second)

	if c == nil {
		t.Fatal("New returned nil")
	}
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("expected baseURL=http://localhost:8080, got %s", c.baseURL)
	}
	if c.httpClient.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", c.httpClient.Timeout)
	}
}

func TestNew_DefaultsAndTrimsSlash(t *testing.T) {
	c := New("http://localhost:8080/", 0)
	if c.baseURL != "http://localhost:8080" {
		t.Errorf("expected trailing slash trimmed, got %s", c.baseURL)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", c.httpClient.Timeout)
	}
}

func TestSend_Success(t *testing.T) {
	var gotBody, gotPath, gotMethod, gotType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		_, _ = w.Write([]byte("tracie False False"))
	}))
	defer server.Close()

	c := New(server.URL, time.Second)
	text, err := c.Send(context.Background(), Short(SyncQuery))

	require.NoError(t, err)
	assert.Equal(t, "tracie False False", text)
	assert.Equal(t, "short:sync", gotBody)
	assert.Equal(t, "/", gotPath)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotType)
}

func TestSend_FailedStatus(t *testing.T) {
	for _, status := range []int{http.StatusNoContent, http.StatusNotFound, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		c := New(server.URL, time.Second)
		_, err := c.Send(context.Background(), "control:start")
		server.Close()

		var failed *FailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, status, failed.Code)
		assert.Equal(t, OutcomeFailed, Classify(err))
	}
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := New(server.URL, 50*time.Millisecond)
	_, err := c.Send(context.Background(), "long:status")

	assert.ErrorIs(t, err, ErrTimedOut)
	assert.Equal(t, OutcomeTimedOut, Classify(err))
}

func TestSend_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := New(server.URL, time.Minute)
	_, err := c.Send(ctx, "short:trace")
	assert.ErrorIs(t, err, ErrTimedOut)
}

func TestSend_ServerDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := New(url, time.Second)
	_, err := c.Send(context.Background(), "short:sync")

	var failed *FailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, 0, failed.Code)
	assert.Equal(t, OutcomeFailed, Classify(err))
}

func TestHealthcheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tracie False False"))
	}))
	defer server.Close()

	c := New(server.URL, time.Second)
	if err := c.Healthcheck(context.Background()); err != nil {
		t.Errorf("Healthcheck failed: %v", err)
	}
}

func TestHealthcheck_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := New(server.URL, time.Second)
	err := c.Healthcheck(context.Background())
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
}

func TestClassifyAndDescribe(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome Outcome
		text    string
	}{
		{"nil", nil, OutcomeSuccess, "sync"},
		{"timeout", ErrTimedOut, OutcomeTimedOut, "sync timed out"},
		{"wrapped timeout", errors.Join(errors.New("ctx"), ErrTimedOut), OutcomeTimedOut, "sync timed out"},
		{"failed", &FailedError{Code: 500}, OutcomeFailed, "sync failed (500)"},
		{"transport", &FailedError{Err: errors.New("refused")}, OutcomeFailed, "sync failed (0)"},
		{"foreign error", errors.New("boom"), OutcomeFailed, "sync failed (0)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.outcome, Classify(tt.err))
			assert.Equal(t, tt.text, Describe("sync", tt.err))
		})
	}
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "short:trace", Short(TraceQuery))
	assert.Equal(t, "short:param-help", Short(ParamHelpQuery))
	assert.Equal(t, "long:status", Long(StatusPoll))
	assert.Equal(t, "points:[[0,400]]", Points("[[0,400]]"))
	assert.Equal(t, "program:calib", Program("calib"))
	assert.Equal(t, "control:reset", Control(ControlReset))
	assert.Equal(t, "set:sp=0.5", Set("sp", "0.5"))
}
