package store

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestLocal(t *testing.T, handler http.Handler) *Local {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	l, err := NewLocal(LocalConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return l
}

func TestLocalReadFile(t *testing.T) {
	l := newTestLocal(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get/config/appSettings.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.Write([]byte(`{"siteName":"Test"}`))
	}))

	data, err := l.ReadFile(context.Background(), "/config/appSettings.json")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != `{"siteName":"Test"}` {
		t.Fatalf("content = %q", data)
	}
}

func TestLocalReadFileNotFound(t *testing.T) {
	l := newTestLocal(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := l.ReadFile(context.Background(), "missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestLocalPublishPostsBatch(t *testing.T) {
	var received []FileArtifact
	l := newTestLocal(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/save-files" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.Write([]byte("done"))
	}))

	artifacts := []FileArtifact{
		{Path: "posts/a/index.html", Content: "<p>a</p>", Encoding: EncodingUTF8},
		{Path: "posts/a/cover.jpg", Content: "aGVsbG8=", Encoding: EncodingBase64},
	}
	result, err := l.Publish(context.Background(), "save", artifacts)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if result.CommitSHA == "" {
		t.Fatal("empty CommitSHA on success")
	}
	if len(received) != 2 || received[0].Path != "posts/a/index.html" {
		t.Fatalf("received = %+v", received)
	}
	if received[1].Encoding != EncodingBase64 {
		t.Fatalf("encoding not preserved: %+v", received[1])
	}
}

func TestLocalPublishEmptyBatch(t *testing.T) {
	l := newTestLocal(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty batch")
	}))
	_, err := l.Publish(context.Background(), "noop", nil)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestLocalPing(t *testing.T) {
	l := newTestLocal(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/isAlive" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("success!"))
	}))
	if err := l.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}

func TestLocalPingDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	l, err := NewLocal(LocalConfig{BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	srv.Close()
	if err := l.Ping(context.Background()); !errors.Is(err, ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
}
