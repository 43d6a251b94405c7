package export

import (
	"context"
	"sync"

	"wpexport/internal/downloader"
	"wpexport/pkg/logger"
	"wpexport/pkg/storage"
)

// Summary aggregates the outcome of a materialization run. Individual
// file and job failures are recorded here instead of aborting the run.
type Summary struct {
	JobsProcessed int
	Downloaded    int
	Skipped       int
	Failed        int
	Failures      []Failure
}

// Failure records one file or job that could not be exported
type Failure struct {
	JobID    string
	FileID   string
	FileName string
	Err      error
}

// Ok reports whether the run completed without failures
func (s *Summary) Ok() bool {
	return s.Failed == 0
}

// Exporter materializes exports on disk: it composes the enumeration
// service with the download engine and isolates failures, so one broken
// file or job never aborts the rest of the run.
type Exporter struct {
	service     *Service
	downloader  *downloader.Downloader
	store       *storage.Manager
	reporter    Reporter
	concurrency int
	logger      logger.Logger
}

// NewExporter creates an export orchestrator. concurrency bounds the
// number of parallel file downloads; 1 gives strictly sequential
// behavior.
func NewExporter(service *Service, dl *downloader.Downloader, store *storage.Manager, reporter Reporter, concurrency int, log logger.Logger) *Exporter {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}

	return &Exporter{
		service:     service,
		downloader:  dl,
		store:       store,
		reporter:    reporter,
		concurrency: concurrency,
		logger:      log,
	}
}

// Run downloads every file of every completed export job of a tenant.
// Only the initial job listing is fatal; per-job and per-file failures
// are recorded in the summary and the run continues.
func (e *Exporter) Run(ctx context.Context, tenantID, status string) (*Summary, error) {
	summary := &Summary{}

	// Snapshot the job list before downloading anything: jobs created
	// after enumeration started are out of scope for this run.
	jobs, err := e.service.ListJobs(ctx, tenantID, status)
	if err != nil {
		return nil, err
	}

	e.logger.InfoWithFields("starting export run", map[string]interface{}{
		"tenant_id": tenantID,
		"status":    status,
		"jobs":      len(jobs),
	})

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		// The server may return a superset of the requested status
		if !job.Completed {
			e.reporter.Report(Event{
				Kind:   EventJobSkipped,
				JobID:  job.ID,
				Reason: "job is not completed",
			})
			continue
		}

		summary.JobsProcessed++
		e.reporter.Report(Event{Kind: EventJobStarted, JobID: job.ID})
		e.exportJobFiles(ctx, job.ID, summary)
	}

	e.logger.InfoWithFields("export run finished", map[string]interface{}{
		"jobs_processed": summary.JobsProcessed,
		"downloaded":     summary.Downloaded,
		"skipped":        summary.Skipped,
		"failed":         summary.Failed,
	})

	return summary, nil
}

// RunJob downloads the files of a single export job, fanning out to its
// company job and per-user sub-jobs when present.
func (e *Exporter) RunJob(ctx context.Context, jobID string) (*Summary, error) {
	summary := &Summary{}

	detail, err := e.service.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if !detail.Completed {
		e.reporter.Report(Event{
			Kind:   EventJobSkipped,
			JobID:  jobID,
			Reason: "job is not marked complete yet, some files may be missing",
		})
	}

	var targets []string
	if detail.CompanyJobID != "" {
		targets = append(targets, detail.CompanyJobID)
	}
	userJobs, err := e.service.ListUserJobs(ctx, jobID)
	if err != nil {
		e.logger.WithError(err).WithField("job_id", jobID).Warn("failed to list user sub-jobs")
	} else {
		for _, userJob := range userJobs {
			targets = append(targets, userJob.ID)
		}
	}

	// Older exports expose their files directly on the job itself
	if len(targets) == 0 {
		targets = []string{jobID}
	}

	for _, target := range targets {
		summary.JobsProcessed++
		e.reporter.Report(Event{Kind: EventJobStarted, JobID: target})
		e.exportJobFiles(ctx, target, summary)
	}

	return summary, nil
}

// exportJobFiles lists one job's files and downloads them. A listing
// failure marks the whole job failed; download failures are per-file.
func (e *Exporter) exportJobFiles(ctx context.Context, jobID string, summary *Summary) {
	files, err := e.service.ListFiles(ctx, jobID)
	if err != nil {
		summary.Failed++
		summary.Failures = append(summary.Failures, Failure{JobID: jobID, Err: err})
		e.reporter.Report(Event{Kind: EventJobFailed, JobID: jobID, Err: err})
		return
	}

	var jobs []downloader.Job
	for _, file := range files {
		if file.DownloadURL == "" {
			summary.Skipped++
			f := file
			e.reporter.Report(Event{
				Kind:   EventFileSkipped,
				JobID:  jobID,
				File:   &f,
				Reason: "missing download URL",
			})
			continue
		}

		destPath, err := e.store.FilePath(jobID, file.Name)
		if err != nil {
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{
				JobID:    jobID,
				FileID:   file.ID,
				FileName: file.Name,
				Err:      err,
			})
			f := file
			e.reporter.Report(Event{Kind: EventFileFailed, JobID: jobID, File: &f, Err: err})
			continue
		}

		jobs = append(jobs, downloader.Job{
			URL:               file.DownloadURL,
			DestPath:          destPath,
			Checksum:          file.Checksum,
			ChecksumAlgorithm: file.ChecksumAlgorithm,
			JobID:             jobID,
			FileName:          file.Name,
		})
	}

	if len(jobs) == 0 {
		return
	}

	pool := downloader.NewWorkerPool(ctx, e.concurrency, e.downloader, e.logger)
	pool.Start()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for result := range pool.Results() {
			e.recordResult(jobID, result, summary)
		}
	}()

	for _, job := range jobs {
		if err := pool.Submit(job); err != nil {
			break
		}
	}

	pool.Stop()
	wg.Wait()
}

// recordResult folds one download result into the summary
func (e *Exporter) recordResult(jobID string, result downloader.Result, summary *Summary) {
	file := &File{
		Name:        result.Job.FileName,
		DownloadURL: result.Job.URL,
	}

	switch {
	case result.Err != nil:
		summary.Failed++
		summary.Failures = append(summary.Failures, Failure{
			JobID:    jobID,
			FileName: result.Job.FileName,
			Err:      result.Err,
		})
		e.reporter.Report(Event{
			Kind:     EventFileFailed,
			JobID:    jobID,
			File:     file,
			Err:      result.Err,
			Attempts: result.Attempts,
		})
	case result.Skipped:
		summary.Skipped++
		e.reporter.Report(Event{
			Kind:   EventFileSkipped,
			JobID:  jobID,
			File:   file,
			Reason: "file already exists",
		})
	default:
		summary.Downloaded++
		e.reporter.Report(Event{
			Kind:     EventFileDownloaded,
			JobID:    jobID,
			File:     file,
			Bytes:    result.Bytes,
			Attempts: result.Attempts,
		})
	}
}
