package recognition_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ghearing/internal/recognition"
)

func writeClip(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("ID3fake-mp3"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	return path
}

func newClient(t *testing.T, handler http.HandlerFunc, opts ...recognition.Option) *recognition.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return recognition.NewClient(recognition.Options{
		APIToken: "token",
		BaseURL:  server.URL,
		Timeout:  2 * time.Second,
	}, nil, opts...)
}

func TestRecognizeMatchWithAppleMusicISRC(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("api_token") != "token" || r.FormValue("return") != "apple_music,spotify" {
			t.Errorf("unexpected form values: %v", r.MultipartForm.Value)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
		} else {
			data, _ := io.ReadAll(file)
			if header.Filename != "segment_01_show.mp3" || string(data) != "ID3fake-mp3" {
				t.Errorf("unexpected upload %q %q", header.Filename, data)
			}
		}
		_, _ = io.WriteString(w, `{"status":"success","result":{
			"artist":"Imagine Dragons","title":"Warriors","album":"Smoke + Mirrors",
			"release_date":"2014-09-18","label":"Interscope","song_link":"https://lis.tn/Warriors",
			"apple_music":{"isrc":"usum71414163","genreNames":["Alternative"],"playParams":{"id":"1440831203"}},
			"spotify":{"id":"1lgN0A2Vki2FTON5PYq42m","external_ids":{"isrc":"OTHER"}}}}`)
	})

	outcome, err := client.Recognize(context.Background(), writeClip(t, "segment_01_show.mp3"))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	match, ok := outcome.Match()
	if !ok || !outcome.Matched() {
		t.Fatal("expected match")
	}
	if match.ExternalID != "USUM71414163" {
		t.Fatalf("expected apple music ISRC, got %q", match.ExternalID)
	}
	if match.AppleMusicID != "1440831203" || match.SpotifyID != "1lgN0A2Vki2FTON5PYq42m" {
		t.Fatalf("unexpected platform ids: %+v", match)
	}
	if match.Album != "Smoke + Mirrors" || len(match.Genres) != 1 {
		t.Fatalf("unexpected metadata: %+v", match)
	}
}

func TestRecognizeISRCPrecedence(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","result":{"artist":"A","title":"B","isrc":"TOPLEVEL1","deezer":{"isrc":"DEEZER1"}}}`)
	})
	outcome, err := client.Recognize(context.Background(), writeClip(t, "a.mp3"))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if match, _ := outcome.Match(); match.ExternalID != "TOPLEVEL1" {
		t.Fatalf("expected top-level isrc, got %q", match.ExternalID)
	}
}

func TestRecognizeWithoutISRCUsesFingerprintKey(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","result":{"artist":"Tom Jobim","title":"Wave"}}`)
	})
	outcome, err := client.Recognize(context.Background(), writeClip(t, "a.mp3"))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	match, _ := outcome.Match()
	want := recognition.FingerprintKey("tom jobim", "WAVE")
	if match.ExternalID != want || !strings.HasPrefix(want, recognition.FingerprintKeyPrefix) || len(want) != 19 {
		t.Fatalf("unexpected fingerprint key %q (want %q)", match.ExternalID, want)
	}
}

func TestRecognizeNoMatchIsNotAnError(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","result":null}`)
	})
	outcome, err := client.Recognize(context.Background(), writeClip(t, "a.mp3"))
	if err != nil {
		t.Fatalf("Recognize failed: %v", err)
	}
	if outcome.Matched() || outcome.Err != nil {
		t.Fatalf("expected clean unmatched outcome, got %+v", outcome)
	}
}

func TestRecognizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"service error", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"status":"error","error":{"error_code":900,"error_message":"api token is invalid"}}`)
		}},
		{"http 500", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "upstream down", http.StatusInternalServerError)
		}},
		{"bad json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `<html>`)
		}},
	}
	for _, tc := range tests {
		client := newClient(t, tc.handler)
		if _, err := client.Recognize(context.Background(), writeClip(t, "a.mp3")); !errors.Is(err, recognition.ErrRecognitionCall) {
			t.Fatalf("%s: expected ErrRecognitionCall, got %v", tc.name, err)
		}
	}
}

func TestRecognizeMissingClip(t *testing.T) {
	client := newClient(t, func(http.ResponseWriter, *http.Request) {})
	if _, err := client.Recognize(context.Background(), filepath.Join(t.TempDir(), "missing.mp3")); !errors.Is(err, recognition.ErrRecognitionCall) {
		t.Fatalf("expected ErrRecognitionCall, got %v", err)
	}
}

func TestRecognizeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()
	client := recognition.NewClient(recognition.Options{APIToken: "t", BaseURL: server.URL, Timeout: 50 * time.Millisecond}, nil)

	_, err := client.Recognize(context.Background(), writeClip(t, "a.mp3"))
	if !errors.Is(err, recognition.ErrRecognitionCall) {
		t.Fatalf("expected ErrRecognitionCall, got %v", err)
	}
}

func TestRecognizeAllIsSequentialWithDelay(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		switch calls.Add(1) {
		case 1:
			_, _ = io.WriteString(w, `{"status":"success","result":{"artist":"A","title":"One","isrc":"ISRC1"}}`)
		case 2:
			http.Error(w, "boom", http.StatusBadGateway)
		default:
			_, _ = io.WriteString(w, `{"status":"success","result":null}`)
		}
	}))
	defer server.Close()

	var delays []time.Duration
	client := recognition.NewClient(recognition.Options{
		APIToken:     "token",
		BaseURL:      server.URL,
		RequestDelay: time.Second,
	}, nil, recognition.WithSleeper(func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}))

	clips := []string{writeClip(t, "1.mp3"), writeClip(t, "2.mp3"), writeClip(t, "3.mp3")}
	outcomes := client.RecognizeAll(context.Background(), clips)
	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	if !outcomes[0].Matched() {
		t.Fatal("expected first clip matched")
	}
	if outcomes[1].Matched() || outcomes[1].Err == nil {
		t.Fatalf("expected second clip unmatched with error, got %+v", outcomes[1])
	}
	if outcomes[2].Matched() || outcomes[2].Err != nil {
		t.Fatalf("expected third clip cleanly unmatched, got %+v", outcomes[2])
	}
	if len(delays) != 2 || delays[0] != time.Second {
		t.Fatalf("expected two one-second delays, got %v", delays)
	}
	for i, outcome := range outcomes {
		if outcome.Clip != clips[i] {
			t.Fatalf("outcome %d clip = %q, want %q", i, outcome.Clip, clips[i])
		}
	}
}

func TestRecognizeAllStopsWaitingOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","result":null}`)
	}))
	defer server.Close()
	client := recognition.NewClient(recognition.Options{
		APIToken:     "token",
		BaseURL:      server.URL,
		RequestDelay: time.Second,
	}, nil, recognition.WithSleeper(func(context.Context, time.Duration) error { return context.Canceled }))

	clips := []string{writeClip(t, "1.mp3"), writeClip(t, "2.mp3"), writeClip(t, "3.mp3")}
	outcomes := client.RecognizeAll(context.Background(), clips)
	if len(outcomes) != 3 {
		t.Fatalf("expected one outcome per clip, got %d", len(outcomes))
	}
	if outcomes[0].Err != nil {
		t.Fatalf("first clip should have been attempted, got %v", outcomes[0].Err)
	}
	if !errors.Is(outcomes[2].Err, context.Canceled) {
		t.Fatalf("expected cancellation error on remaining clips, got %v", outcomes[2].Err)
	}
}

func TestAvailable(t *testing.T) {
	if recognition.NewClient(recognition.Options{}, nil).Available() {
		t.Fatal("expected unavailable without token")
	}
	if !recognition.NewClient(recognition.Options{APIToken: "x"}, nil).Available() {
		t.Fatal("expected available with token")
	}
}
