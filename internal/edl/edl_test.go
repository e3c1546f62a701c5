package edl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ghearing/internal/logging"
	"ghearing/internal/services"
	"ghearing/internal/store"
	"ghearing/internal/testsupport"
)

func TestRenderMatchesReferenceLayout(t *testing.T) {
	entries := []Entry{
		{StartSeconds: 80, EndSeconds: 140, Artist: "Daft Punk", Title: "One More Time"},
		{StartSeconds: 600.5, EndSeconds: 610, Artist: "Band", Title: "Song"},
	}
	got := Render("Evening Show.edl", entries, DefaultOptions())
	want := "TITLE: Evening Show.edl\n" +
		"FCM: NON-DROP FRAME\n" +
		"\n" +
		"000001 TONE:_1000_HZ_@_-20.0_DB.1 A4     C        01:01:20:00 01:02:20:00 01:01:20:00 01:02:20:00\n" +
		"* FROM CLIP NAME: DAFT_PUNK_ONE_MORE_TIME\n" +
		"\n" +
		"000002 TONE:_1000_HZ_@_-20.0_DB.1 A4     C        01:10:00:12 01:10:10:00 01:10:00:12 01:10:10:00\n" +
		"* FROM CLIP NAME: BAND_SONG\n"
	if got != want {
		t.Fatalf("unexpected EDL:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderHonoursOptions(t *testing.T) {
	got := Render("x", []Entry{{StartSeconds: 1, EndSeconds: 2, Artist: "a", Title: "b"}}, Options{
		FPS: 30, BaseHours: 0, ReelName: "AX", TrackLabel: "A1",
	})
	want := "TITLE: x\nFCM: NON-DROP FRAME\n\n" +
		"000001 AX A1     C        00:00:01:00 00:00:02:00 00:00:01:00 00:00:02:00\n" +
		"* FROM CLIP NAME: A_B\n"
	if got != want {
		t.Fatalf("unexpected EDL:\n%s", got)
	}
}

func TestRenderZeroOptionsUsesDefaults(t *testing.T) {
	entries := []Entry{{StartSeconds: 80, EndSeconds: 140, Artist: "Band", Title: "Song"}}
	got := Render("x", entries, Options{})
	if got != Render("x", entries, DefaultOptions()) {
		t.Fatalf("expected default layout, got:\n%s", got)
	}
	if !strings.Contains(got, "01:01:20:00 01:02:20:00") {
		t.Fatalf("expected one hour offset, got:\n%s", got)
	}
}

func seedJob(t *testing.T, st *store.Store, withLinks bool) *store.Job {
	t.Helper()
	ctx := context.Background()
	job, err := st.CreateJob(ctx, store.NewJob{Title: "News: Late", FilePath: "/uploads/news.mxf"})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if !withLinks {
		return job
	}
	track, err := st.UpsertTrack(ctx, store.TrackInput{ExternalID: "X1", Title: "Song", Artist: "Band"})
	if err != nil {
		t.Fatalf("upsert track: %v", err)
	}
	for _, r := range [][2]string{{"05:00", "06:00"}, {"00:30", "01:00"}} {
		start := 300.0
		if r[0] == "00:30" {
			start = 30
		}
		if _, err := st.CreateTrackLink(ctx, store.LinkInput{
			JobID: job.ID, TrackID: track.ID, StartTime: r[0], EndTime: r[1], StartSeconds: start,
		}); err != nil {
			t.Fatalf("create link: %v", err)
		}
	}
	return job
}

func TestExportWritesOrderedFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	job := seedJob(t, st, true)

	exporter := NewExporter(st, cfg.Paths.ExportDir, logging.NewNop())
	exporter.now = func() time.Time { return time.UnixMilli(1700000000000) }

	path, err := exporter.Export(context.Background(), job.ID, OptionsFromConfig(cfg))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if filepath.Base(path) != "job_1_music_edl_1700000000000.edl" {
		t.Fatalf("unexpected file name %q", filepath.Base(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "TITLE: News- Late.edl\n" +
		"FCM: NON-DROP FRAME\n" +
		"\n" +
		"000001 TONE:_1000_HZ_@_-20.0_DB.1 A4     C        01:00:30:00 01:01:00:00 01:00:30:00 01:01:00:00\n" +
		"* FROM CLIP NAME: BAND_SONG\n" +
		"\n" +
		"000002 TONE:_1000_HZ_@_-20.0_DB.1 A4     C        01:05:00:00 01:06:00:00 01:05:00:00 01:06:00:00\n" +
		"* FROM CLIP NAME: BAND_SONG\n"
	if string(data) != want {
		t.Fatalf("unexpected EDL:\n%s", data)
	}
}

func TestExportWithoutLinksIsNoData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	job := seedJob(t, st, false)

	exporter := NewExporter(st, cfg.Paths.ExportDir, logging.NewNop())
	_, err := exporter.Export(context.Background(), job.ID, DefaultOptions())
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
	entries, _ := os.ReadDir(cfg.Paths.ExportDir)
	if len(entries) != 0 {
		t.Fatalf("expected no export files, got %d", len(entries))
	}
}

func TestExportMissingJob(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	exporter := NewExporter(st, cfg.Paths.ExportDir, logging.NewNop())
	_, err := exporter.Export(context.Background(), 42, DefaultOptions())
	if !errors.Is(err, services.ErrNotFound) || errors.Is(err, ErrNoData) {
		t.Fatalf("expected job not found, got %v", err)
	}
}
