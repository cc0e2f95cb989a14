package request

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"addpoints/pkg/config"
	"addpoints/pkg/tracker"
)

func testConfig() config.RequestConfig {
	return config.RequestConfig{
		Retries: 3,
		Timeout: config.Duration(5 * time.Second),
		Backoff: config.BackoffConfig{
			BaseDelay: config.Duration(10 * time.Millisecond),
			MaxDelay:  config.Duration(50 * time.Millisecond),
		},
	}
}

func TestGet_Sequential(t *testing.T) {
	// Mock Server using simple handler that sleeps to prove sequential execution
	var conc int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current := atomic.AddInt32(&conc, 1)
		defer atomic.AddInt32(&conc, -1)

		if current > 1 {
			// If concurrent > 1, the per-host queue didn't work
			t.Errorf("Concurrency detected! Expected sequential.")
		}
		time.Sleep(50 * time.Millisecond)
		w.WriteHeader(200)
		if _, err := w.Write([]byte("ok")); err != nil {
			t.Logf("Write failed: %v", err)
		}
	}))
	defer svr.Close()

	client := New(testConfig(), tracker.New())

	done := make(chan struct{}, 3)
	for i := 0; i < 3; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, err := client.Get(context.Background(), svr.URL)
			if err != nil {
				t.Errorf("Get failed: %v", err)
			}
		}()
	}
	for i := 0; i < 3; i++ {
		<-done
	}
}

func TestGet_Retry(t *testing.T) {
	attempts := 0
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(429) // Too Many Requests
			return
		}
		w.WriteHeader(200)
		if _, err := w.Write([]byte("success")); err != nil {
			t.Logf("Write failed: %v", err)
		}
	}))
	defer svr.Close()

	client := New(testConfig(), tracker.New())

	body, err := client.Get(context.Background(), svr.URL)
	if err != nil {
		t.Fatalf("Expected success after retry, got error: %v", err)
	}
	if string(body) != "success" {
		t.Errorf("Expected 'success', got '%s'", string(body))
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestPost_RetryResendsBody(t *testing.T) {
	var bodies []string
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		if len(bodies) < 2 {
			w.WriteHeader(503)
			return
		}
		w.WriteHeader(200)
	}))
	defer svr.Close()

	client := New(testConfig(), tracker.New())

	_, err := client.Post(context.Background(), svr.URL, []byte("payload"), "text/plain")
	if err != nil {
		t.Fatalf("Post failed: %v", err)
	}
	if len(bodies) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(bodies))
	}
	for i, b := range bodies {
		if b != "payload" {
			t.Errorf("attempt %d: body = %q, want 'payload'", i+1, b)
		}
	}
}

func TestGet_ClientErrorNotRetried(t *testing.T) {
	attempts := 0
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(404)
	}))
	defer svr.Close()

	tr := tracker.New()
	client := New(testConfig(), tr)

	_, err := client.Get(context.Background(), svr.URL)
	if err == nil {
		t.Fatal("Expected error for 404")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for client error, got %d", attempts)
	}

	stats := tr.Snapshot()
	var failures int64
	for _, s := range stats {
		failures += s.APIFailures
	}
	if failures != 1 {
		t.Errorf("Expected 1 tracked failure, got %d", failures)
	}
}
