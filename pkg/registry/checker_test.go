package registry

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/synaptica-ai/conceptsync/pkg/common/logger"
)

func TestCheckSendsTokenAndFlagsMissingSources(t *testing.T) {
	logger.SetOutput(io.Discard)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Method != http.MethodHead {
			t.Errorf("expected HEAD, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Token secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		if r.URL.Path == "/orgs/CIEL/sources/CIEL/" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	checker, err := NewChecker(Options{BaseURL: srv.URL, Token: "secret", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new checker: %v", err)
	}

	results, err := checker.Check(context.Background(), []string{"CIEL", "SNOMED CT", "Local Codes"})
	if err == nil {
		t.Fatal("expected an error for unregistered sources")
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Err != nil || !results[0].Checked {
		t.Fatalf("expected CIEL to be found, got %+v", results[0])
	}
	if results[1].RegistryID != "SNOMED-CT" || !errors.Is(results[1].Err, ErrUnrecognizedSource) {
		t.Fatalf("expected SNOMED-CT to be unrecognized, got %+v", results[1])
	}
	if !errors.Is(results[2].Err, ErrUnknownOwner) {
		t.Fatalf("expected unknown owner, got %+v", results[2])
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 registry calls, got %d", calls.Load())
	}
}

func TestCheckWithoutTokenSkipsRegistry(t *testing.T) {
	logger.SetOutput(io.Discard)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected registry call to %s", r.URL.Path)
	}))
	defer srv.Close()

	checker, err := NewChecker(Options{BaseURL: srv.URL, Timeout: time.Second})
	if err != nil {
		t.Fatalf("new checker: %v", err)
	}
	results, err := checker.Check(context.Background(), []string{"CIEL", "HL-7 CVX"})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	for _, r := range results {
		if r.Checked {
			t.Fatalf("expected %s to be unchecked", r.StoreName)
		}
	}
	if results[1].URL != srv.URL+"/orgs/HL7/sources/HL7-CVX/" {
		t.Fatalf("unexpected url %s", results[1].URL)
	}
}

func TestCheckRetriesServerErrors(t *testing.T) {
	logger.SetOutput(io.Discard)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	checker, err := NewChecker(Options{BaseURL: srv.URL, Token: "secret", Timeout: time.Second})
	if err != nil {
		t.Fatalf("new checker: %v", err)
	}
	checker.backoff = time.Millisecond

	if _, err := checker.Check(context.Background(), []string{"LOINC"}); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestNewCheckerRejectsUnknownEnv(t *testing.T) {
	if _, err := NewChecker(Options{Env: "qa"}); !errors.Is(err, ErrUnknownEnv) {
		t.Fatalf("expected ErrUnknownEnv, got %v", err)
	}
}
