package export

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"wpexport/internal/downloader"
	"wpexport/pkg/graph"
	"wpexport/pkg/logger"
	"wpexport/pkg/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exportFixture is an in-memory Graph API backend for orchestrator tests
type exportFixture struct {
	jobs      []map[string]interface{}
	jobFiles  map[string][]map[string]interface{}
	failFiles map[string]bool // job IDs whose file listing returns 500
	bodies    map[string]string
	server    *httptest.Server
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()

	f := &exportFixture{
		jobFiles:  make(map[string][]map[string]interface{}),
		failFiles: make(map[string]bool),
		bodies:    make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		switch {
		case path == "/v20.0/tenant-1/diy_exports":
			json.NewEncoder(w).Encode(map[string]interface{}{"data": f.jobs})
		case len(path) > len("/v20.0/") && filepath.Base(path) == "files":
			jobID := filepath.Base(filepath.Dir(path))
			if f.failFiles[jobID] {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"data": f.jobFiles[jobID]})
		case len(path) > len("/download/") && path[:len("/download/")] == "/download/":
			name := path[len("/download/"):]
			body, ok := f.bodies[name]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Write([]byte(body))
		default:
			http.NotFound(w, r)
		}
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

// addJob registers a job in the tenant listing
func (f *exportFixture) addJob(id string, completed bool) {
	f.jobs = append(f.jobs, map[string]interface{}{"id": id, "is_completed": completed})
}

// addFile registers a downloadable file for a job. An empty body means
// the file record has no download URL.
func (f *exportFixture) addFile(jobID, name, body, checksum string) {
	record := map[string]interface{}{
		"id":        jobID + "-" + name,
		"file_name": name,
	}
	if body != "" {
		record["download_url"] = f.server.URL + "/download/" + name
		f.bodies[name] = body
	}
	if checksum != "" {
		record["checksum"] = checksum
	}
	f.jobFiles[jobID] = append(f.jobFiles[jobID], record)
}

func (f *exportFixture) newExporter(t *testing.T, reporter Reporter, concurrency int) (*Exporter, string) {
	t.Helper()

	log := logger.NewTestLogger()
	client := graph.NewClient("token", "v20.0", graph.Options{BaseURL: f.server.URL}, log)
	service := NewService(client, log)

	outputDir := t.TempDir()
	store, err := storage.NewManager(outputDir)
	require.NoError(t, err)

	dl := downloader.New(client, 1, time.Millisecond, log)
	return NewExporter(service, dl, store, reporter, concurrency, log), outputDir
}

func checksumOf(body string) string {
	sum := sha256.Sum256([]byte(body))
	return hex.EncodeToString(sum[:])
}

func TestRunDownloadsCompletedJobs(t *testing.T) {
	f := newExportFixture(t)
	f.addJob("j1", true)
	f.addFile("j1", "a.csv", "member data", "")
	f.addFile("j1", "b.csv", "post data", checksumOf("post data"))

	reporter := &CollectingReporter{}
	exporter, outputDir := f.newExporter(t, reporter, 1)

	summary, err := exporter.Run(context.Background(), "tenant-1", "completed")

	require.NoError(t, err)
	assert.Equal(t, 1, summary.JobsProcessed)
	assert.Equal(t, 2, summary.Downloaded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)
	assert.True(t, summary.Ok())

	data, err := os.ReadFile(filepath.Join(outputDir, "j1", "a.csv"))
	require.NoError(t, err)
	assert.Equal(t, "member data", string(data))

	data, err = os.ReadFile(filepath.Join(outputDir, "j1", "b.csv"))
	require.NoError(t, err)
	assert.Equal(t, "post data", string(data))
}

func TestRunIsolatesJobListingFailure(t *testing.T) {
	f := newExportFixture(t)
	f.addJob("j1", true)
	f.addJob("j2", true)
	f.addJob("j3", true)
	f.addFile("j1", "a.csv", "one", "")
	f.failFiles["j2"] = true
	f.addFile("j3", "c.csv", "three", "")

	reporter := &CollectingReporter{}
	exporter, outputDir := f.newExporter(t, reporter, 1)

	summary, err := exporter.Run(context.Background(), "tenant-1", "completed")

	require.NoError(t, err, "a broken job must not abort the run")
	assert.Equal(t, 3, summary.JobsProcessed)
	assert.Equal(t, 2, summary.Downloaded)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "j2", summary.Failures[0].JobID)

	// The jobs after the failed one still produced files
	_, err = os.Stat(filepath.Join(outputDir, "j3", "c.csv"))
	assert.NoError(t, err)

	var jobFailed bool
	for _, event := range reporter.Events {
		if event.Kind == EventJobFailed && event.JobID == "j2" {
			jobFailed = true
		}
	}
	assert.True(t, jobFailed)
}

func TestRunIsolatesFileFailure(t *testing.T) {
	good := "good bytes"
	f := newExportFixture(t)
	f.addJob("j1", true)
	f.addFile("j1", "bad.csv", "corrupted bytes", checksumOf("what the server promised"))
	f.addFile("j1", "good.csv", good, checksumOf(good))

	reporter := &CollectingReporter{}
	exporter, outputDir := f.newExporter(t, reporter, 1)

	summary, err := exporter.Run(context.Background(), "tenant-1", "completed")

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, 1, summary.Failed)
	assert.False(t, summary.Ok())
	require.Len(t, summary.Failures, 1)
	assert.Equal(t, "bad.csv", summary.Failures[0].FileName)

	_, err = os.Stat(filepath.Join(outputDir, "j1", "good.csv"))
	assert.NoError(t, err)
}

func TestRunSkipsIncompleteJobs(t *testing.T) {
	f := newExportFixture(t)
	f.addJob("j1", false)
	f.addJob("j2", true)
	f.addFile("j2", "a.csv", "data", "")

	reporter := &CollectingReporter{}
	exporter, _ := f.newExporter(t, reporter, 1)

	summary, err := exporter.Run(context.Background(), "tenant-1", "")

	require.NoError(t, err)
	assert.Equal(t, 1, summary.JobsProcessed)
	assert.Equal(t, 1, summary.Downloaded)

	var skipped bool
	for _, event := range reporter.Events {
		if event.Kind == EventJobSkipped && event.JobID == "j1" {
			skipped = true
		}
	}
	assert.True(t, skipped)
}

func TestRunSkipsFilesWithoutDownloadURL(t *testing.T) {
	f := newExportFixture(t)
	f.addJob("j1", true)
	f.addFile("j1", "pending.csv", "", "")
	f.addFile("j1", "ready.csv", "data", "")

	reporter := &CollectingReporter{}
	exporter, _ := f.newExporter(t, reporter, 1)

	summary, err := exporter.Run(context.Background(), "tenant-1", "completed")

	require.NoError(t, err)
	assert.Equal(t, 1, summary.Downloaded)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Failed)

	var skipReason string
	for _, event := range reporter.Events {
		if event.Kind == EventFileSkipped {
			skipReason = event.Reason
		}
	}
	assert.Equal(t, "missing download URL", skipReason)
}

func TestRunSkipsExistingFiles(t *testing.T) {
	f := newExportFixture(t)
	f.addJob("j1", true)
	f.addFile("j1", "a.csv", "fresh data", "")

	reporter := &CollectingReporter{}
	exporter, outputDir := f.newExporter(t, reporter, 1)

	// Pre-populate the destination as a previous run would have
	require.NoError(t, os.MkdirAll(filepath.Join(outputDir, "j1"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "j1", "a.csv"), []byte("old data"), 0644))

	summary, err := exporter.Run(context.Background(), "tenant-1", "completed")

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Downloaded)
	assert.Equal(t, 1, summary.Skipped)

	data, err := os.ReadFile(filepath.Join(outputDir, "j1", "a.csv"))
	require.NoError(t, err)
	assert.Equal(t, "old data", string(data), "existing files are never overwritten")
}

func TestRunFatalOnInitialListingFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	log := logger.NewTestLogger()
	client := graph.NewClient("token", "v20.0", graph.Options{BaseURL: server.URL}, log)
	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)
	dl := downloader.New(client, 0, time.Millisecond, log)
	exporter := NewExporter(NewService(client, log), dl, store, nil, 1, log)

	summary, err := exporter.Run(context.Background(), "tenant-1", "completed")

	require.Error(t, err)
	assert.Nil(t, summary)
}

func TestRunConcurrentDownloads(t *testing.T) {
	f := newExportFixture(t)
	f.addJob("j1", true)
	for _, name := range []string{"a.csv", "b.csv", "c.csv", "d.csv", "e.csv"} {
		f.addFile("j1", name, "content of "+name, "")
	}

	reporter := &CollectingReporter{}
	exporter, outputDir := f.newExporter(t, reporter, 3)

	summary, err := exporter.Run(context.Background(), "tenant-1", "completed")

	require.NoError(t, err)
	assert.Equal(t, 5, summary.Downloaded)
	assert.Equal(t, 0, summary.Failed)

	entries, err := os.ReadDir(filepath.Join(outputDir, "j1"))
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestRunJobFansOutToSubJobs(t *testing.T) {
	f := newExportFixture(t)
	f.addFile("company-1", "company.csv", "company data", "")
	f.addFile("user-1", "user.csv", "user data", "")

	mux := http.NewServeMux()
	mux.HandleFunc("/v20.0/job-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":           "job-1",
			"is_completed": true,
			"company_job":  map[string]string{"id": "company-1"},
		})
	})
	mux.HandleFunc("/v20.0/job-1/user_dyi_jobs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{{"id": "user-1", "is_completed": true}},
		})
	})
	mux.HandleFunc("/", f.server.Config.Handler.ServeHTTP)

	server := httptest.NewServer(mux)
	defer server.Close()

	log := logger.NewTestLogger()
	client := graph.NewClient("token", "v20.0", graph.Options{BaseURL: server.URL}, log)
	outputDir := t.TempDir()
	store, err := storage.NewManager(outputDir)
	require.NoError(t, err)
	dl := downloader.New(client, 0, time.Millisecond, log)
	exporter := NewExporter(NewService(client, log), dl, store, nil, 1, log)

	summary, err := exporter.RunJob(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, 2, summary.JobsProcessed)
	assert.Equal(t, 2, summary.Downloaded)

	_, err = os.Stat(filepath.Join(outputDir, "company-1", "company.csv"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outputDir, "user-1", "user.csv"))
	assert.NoError(t, err)
}

func TestRunJobFallsBackToJobItself(t *testing.T) {
	f := newExportFixture(t)
	f.addFile("job-1", "direct.csv", "direct data", "")

	mux := http.NewServeMux()
	mux.HandleFunc("/v20.0/job-1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":           "job-1",
			"is_completed": true,
		})
	})
	mux.HandleFunc("/v20.0/job-1/user_dyi_jobs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []map[string]interface{}{}})
	})
	mux.HandleFunc("/", f.server.Config.Handler.ServeHTTP)

	server := httptest.NewServer(mux)
	defer server.Close()

	log := logger.NewTestLogger()
	client := graph.NewClient("token", "v20.0", graph.Options{BaseURL: server.URL}, log)
	outputDir := t.TempDir()
	store, err := storage.NewManager(outputDir)
	require.NoError(t, err)
	dl := downloader.New(client, 0, time.Millisecond, log)
	exporter := NewExporter(NewService(client, log), dl, store, nil, 1, log)

	summary, err := exporter.RunJob(context.Background(), "job-1")

	require.NoError(t, err)
	assert.Equal(t, 1, summary.JobsProcessed)
	assert.Equal(t, 1, summary.Downloaded)

	_, err = os.Stat(filepath.Join(outputDir, "job-1", "direct.csv"))
	assert.NoError(t, err)
}
