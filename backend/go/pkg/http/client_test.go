package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Hokage/backend/go/pkg/circuitbreaker"
)

func TestClientPassesThroughWithoutBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(time.Second, nil)
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)
	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
}

func TestClientTripsOnServerErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(time.Second, circuitbreaker.New(2, 1, time.Minute))
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	for i := 0; i < 2; i++ {
		if _, err := c.Do(req); err == nil {
			t.Fatalf("request %d succeeded against a 500 server", i)
		}
	}
	// The breaker is now open: the request fails without reaching the server.
	if _, err := c.Do(req); !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}
}

func TestClientClientErrorsDoNotTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(time.Second, circuitbreaker.New(1, 1, time.Minute))
	req, _ := http.NewRequest(http.MethodGet, srv.URL, nil)

	for i := 0; i < 3; i++ {
		resp, err := c.Do(req)
		if err != nil {
			t.Fatalf("request %d failed: %v", i, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status %d, want 404", resp.StatusCode)
		}
	}
}
