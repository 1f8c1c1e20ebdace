package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveAddr(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":1940", "127.0.0.1:1940"},
		{"localhost:1940", "127.0.0.1:1940"},
		{"192.168.1.5:8080", "192.168.1.5:8080"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			m := NewManager(nil, nil, tt.addr, "")
			assert.Equal(t, tt.want, m.resolveAddr())
		})
	}
}

func TestWaitReady(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		// Answer 503 until the third probe, like a server still starting up.
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewManager(nil, nil, strings.TrimPrefix(srv.URL, "http://"), "")
	assert.True(t, m.waitReady(5, time.Millisecond))
	assert.Equal(t, int32(3), hits.Load())
}

func TestWaitReady_TimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	m := NewManager(nil, nil, strings.TrimPrefix(srv.URL, "http://"), "")
	assert.False(t, m.waitReady(3, time.Millisecond))
}

func TestStart_AlreadyRunning(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	addr := strings.TrimPrefix(srv.URL, "http://")
	urls := make(chan string, 1)
	m := NewManager(nil, func(u string) { urls <- u }, addr, "")
	m.Start()

	select {
	case u := <-urls:
		assert.Equal(t, "http://"+addr, u)
	case <-time.After(2 * time.Second):
		t.Fatal("app URL was not delivered")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	assert.Nil(t, m.serverCmd, "a running server must not be started again")
}

func TestRequestShutdown(t *testing.T) {
	var method atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/shutdown" {
			method.Store(r.Method)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewManager(nil, nil, strings.TrimPrefix(srv.URL, "http://"), "")
	require.NoError(t, m.requestShutdown())
	assert.Equal(t, "POST", method.Load())
}
