package youtube

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestTranscriptClient(serverURL string) *TranscriptClient {
	return &TranscriptClient{
		baseURL: serverURL,
		lang:    "en",
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestTranscriptFetch(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("v"); got != "vid123" {
			t.Errorf("Request video id = %q, want vid123", got)
		}
		if got := r.URL.Query().Get("lang"); got != "en" {
			t.Errorf("Request lang = %q, want en", got)
		}
		w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.5">Hello and welcome</text>
  <text start="2.5" dur="3.0">to this &amp;quot;tutorial&amp;quot;</text>
  <text start="5.5" dur="1.0">   </text>
  <text start="6.5" dur="2.0">about Go</text>
</transcript>`))
	}))
	defer ts.Close()

	tc := newTestTranscriptClient(ts.URL)
	transcript, err := tc.Fetch(context.Background(), "vid123")
	if err != nil {
		t.Fatalf("Fetch() failed: %v", err)
	}

	want := `Hello and welcome to this "tutorial" about Go`
	if transcript != want {
		t.Errorf("Fetch() = %q, want %q", transcript, want)
	}
}

func TestTranscriptFetchFailureModes(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "EmptyBody",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
		},
		{
			name: "NotFound",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
		},
		{
			name: "MalformedXML",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<transcript><text start="0"`))
			},
		},
		{
			name: "OnlyBlankSegments",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<transcript><text start="0" dur="1"> </text></transcript>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			tc := newTestTranscriptClient(ts.URL)
			if _, err := tc.Fetch(context.Background(), "vid123"); err == nil {
				t.Error("Fetch() succeeded, want error signalling an absent transcript")
			}
		})
	}
}

func TestTranscriptFetchUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // connection refused

	tc := newTestTranscriptClient(ts.URL)
	if _, err := tc.Fetch(context.Background(), "vid123"); err == nil {
		t.Error("Fetch() succeeded against a closed server, want error")
	}
}
