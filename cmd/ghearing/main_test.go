package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ghearing/internal/api"
	"ghearing/internal/config"
	"ghearing/internal/store"
	"ghearing/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      testsupport.MustOpenStore(t, cfg),
		configPath: configPath,
	}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

// seedJob stores a completed job with one linked track.
func (env *cliTestEnv) seedJob(t *testing.T) *store.Job {
	t.Helper()
	ctx := context.Background()

	source := filepath.Join(env.cfg.Paths.UploadDir, "evening-news.mxf")
	testsupport.WriteMedia(t, source, 128)

	job, err := env.store.CreateJob(ctx, store.NewJob{Title: "Evening News", FilePath: source, FileSize: 128})
	if err != nil {
		t.Fatalf("create job: %v", err)
	}
	if err := env.store.SetJobAudio(ctx, job.ID, nil, 3723.9); err != nil {
		t.Fatalf("set job audio: %v", err)
	}
	track, err := env.store.UpsertTrack(ctx, store.TrackInput{ExternalID: "ext-1", Title: "Wave", Artist: "Coast"})
	if err != nil {
		t.Fatalf("upsert track: %v", err)
	}
	if _, err := env.store.CreateTrackLink(ctx, store.LinkInput{
		JobID:        job.ID,
		TrackID:      track.ID,
		StartTime:    "00:01:00.000",
		EndTime:      "00:01:30.000",
		StartSeconds: 60,
	}); err != nil {
		t.Fatalf("create link: %v", err)
	}
	unrecognized := 1
	if err := env.store.UpdateJobStatus(ctx, job.ID, store.StatusCompleted, &unrecognized, ""); err != nil {
		t.Fatalf("complete job: %v", err)
	}
	return job
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse an existing file")
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Paths.APIToken = "super-secret"
	writeTestConfig(t, env.configPath, env.cfg)

	out, _, err := runCLI(t, []string{"config", "show", "--output", "table"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "super-secret") {
		t.Fatalf("expected token to be masked, got %s", out)
	}
	requireContains(t, out, "********")
}

func TestJobsListEmptyJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"jobs", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	var resp api.JobListResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output: %v (%s)", err, out)
	}
	if resp.Jobs == nil || len(resp.Jobs) != 0 {
		t.Fatalf("expected empty job list, got %+v", resp.Jobs)
	}
}

func TestJobsListAndShowTable(t *testing.T) {
	env := setupCLITestEnv(t)
	job := env.seedJob(t)

	out, _, err := runCLI(t, []string{"jobs", "list", "-o", "table"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs list: %v", err)
	}
	requireContains(t, out, "Evening News")
	requireContains(t, out, "completed")

	out, _, err = runCLI(t, []string{"jobs", "show", "-o", "table", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show: %v", err)
	}
	requireContains(t, out, "Coast")
	requireContains(t, out, "00:01:00.000")
	requireContains(t, out, "Duration: 01:02:03")

	out, _, err = runCLI(t, []string{"jobs", "show", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs show json: %v", err)
	}
	var resp api.JobResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if resp.Job.ID != job.ID || len(resp.Job.Links) != 1 || resp.Job.UnrecognizedCount != 1 {
		t.Fatalf("unexpected job: %+v", resp.Job)
	}
}

func TestJobsDelete(t *testing.T) {
	env := setupCLITestEnv(t)
	job := env.seedJob(t)

	out, _, err := runCLI(t, []string{"jobs", "delete", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("jobs delete: %v", err)
	}
	requireContains(t, out, "Deleted job 1")
	if _, err := os.Stat(job.FilePath); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, stat err=%v", err)
	}

	if _, _, err := runCLI(t, []string{"jobs", "show", "1"}, env.configPath); err == nil {
		t.Fatal("expected show of deleted job to fail")
	}
	if _, _, err := runCLI(t, []string{"jobs", "delete", "abc"}, env.configPath); err == nil {
		t.Fatal("expected invalid id to fail")
	}
}

func TestExportWritesEDL(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedJob(t)

	out, _, err := runCLI(t, []string{"export", "1", "--output", "json"}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var resp struct {
		Path string `json:"path"`
	}
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	data, err := os.ReadFile(resp.Path)
	if err != nil {
		t.Fatalf("read edl: %v", err)
	}
	requireContains(t, string(data), "FCM: NON-DROP FRAME")
	requireContains(t, string(data), "* FROM CLIP NAME: COAST_WAVE")

	if _, _, err := runCLI(t, []string{"export", "1", "--fps", "0"}, env.configPath); err == nil {
		t.Fatal("expected invalid fps to fail")
	}
}

func TestExportWithoutLinksFails(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, err := env.store.CreateJob(context.Background(), store.NewJob{Title: "Empty", FilePath: "/tmp/empty.mxf"}); err != nil {
		t.Fatalf("create job: %v", err)
	}
	if _, _, err := runCLI(t, []string{"export", "1"}, env.configPath); err == nil {
		t.Fatal("expected export with no links to fail")
	}
}

func TestMetricsCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	env.seedJob(t)

	out, _, err := runCLI(t, []string{"metrics", "top"}, env.configPath)
	if err != nil {
		t.Fatalf("metrics top: %v", err)
	}
	var top api.TopTracksResponse
	if err := json.Unmarshal([]byte(out), &top); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(top.Tracks) != 1 || top.Tracks[0].Uses != 1 || top.Tracks[0].Track.Title != "Wave" {
		t.Fatalf("unexpected top tracks: %+v", top.Tracks)
	}

	out, _, err = runCLI(t, []string{"metrics", "recent"}, env.configPath)
	if err != nil {
		t.Fatalf("metrics recent: %v", err)
	}
	var recent api.RecentLinksResponse
	if err := json.Unmarshal([]byte(out), &recent); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if recent.Count != 1 {
		t.Fatalf("expected 1 recent link, got %d", recent.Count)
	}
}

func TestProcessMissingFileFails(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"process", filepath.Join(env.cfg.Paths.UploadDir, "missing.mxf")}, env.configPath)
	if err == nil {
		t.Fatal("expected process of missing file to fail")
	}
	var resp api.ProcessResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode output: %v (%s)", err, out)
	}
	if resp.Success || resp.JobID != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}

	jobs, err := env.store.ListJobs(context.Background(), store.JobFilter{})
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 0 {
		t.Fatalf("expected no jobs, got %d", len(jobs))
	}
}

func TestInvalidOutputFormat(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"jobs", "list", "--output", "yaml"}, env.configPath); err == nil {
		t.Fatal("expected unsupported output format to fail")
	}
}

func TestTestNotifyDisabled(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Notifications disabled")
}
