package export

import (
	"encoding/json"
	"strings"
	"time"

	"wpexport/pkg/errors"
)

// JobStatus is the lifecycle state of an export job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusUnknown    JobStatus = ""
)

// Job is an export job as reported by the Graph API. Immutable once
// parsed.
type Job struct {
	ID          string
	Status      JobStatus
	CreatedTime time.Time
	Completed   bool
}

// JobDetail extends Job with the fields of the single-job endpoint
type JobDetail struct {
	Job
	CompanyJobID       string
	DiyTypes           []string
	TotalCompletedJobs int
}

// File is one downloadable file of a completed export job
type File struct {
	ID                string
	Name              string
	DownloadURL       string
	Checksum          string
	ChecksumAlgorithm string
}

// jobRecord is the wire shape of a job in list responses. Some endpoints
// report status, others only is_completed.
type jobRecord struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	IsCompleted *bool  `json:"is_completed"`
	CreatedTime string `json:"created_time"`
}

// fileRecord is the wire shape of a file record. The checksum may arrive
// under the legacy sha256 key.
type fileRecord struct {
	ID                string `json:"id"`
	FileName          string `json:"file_name"`
	DownloadURL       string `json:"download_url"`
	Checksum          string `json:"checksum"`
	SHA256            string `json:"sha256"`
	ChecksumAlgorithm string `json:"checksum_algorithm"`
}

// createdTimeFormats covers the timestamp shapes the Graph API emits
var createdTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
}

// parseJob converts a raw list record into a Job, applying the fallback
// rules at the parse boundary: a missing status is derived from
// is_completed, and Completed reflects whichever field was present.
func parseJob(raw json.RawMessage) (Job, error) {
	var record jobRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return Job{}, errors.Newf(errors.ErrorTypeParsing, "malformed job record: %v", err)
	}
	if record.ID == "" {
		return Job{}, errors.New(errors.ErrorTypeParsing, "job record has no id")
	}

	status := JobStatus(strings.ToLower(record.Status))
	if status == JobStatusUnknown && record.IsCompleted != nil {
		if *record.IsCompleted {
			status = JobStatusCompleted
		} else {
			status = JobStatusInProgress
		}
	}

	completed := status == JobStatusCompleted
	if record.IsCompleted != nil {
		completed = *record.IsCompleted
	}

	job := Job{
		ID:        record.ID,
		Status:    status,
		Completed: completed,
	}

	if record.CreatedTime != "" {
		for _, layout := range createdTimeFormats {
			if t, err := time.Parse(layout, record.CreatedTime); err == nil {
				job.CreatedTime = t
				break
			}
		}
	}

	return job, nil
}

// parseFile converts a raw list record into a File. A missing file name
// is synthesized from the id; a missing download URL is preserved as
// empty and left to the orchestrator's skip handling.
func parseFile(raw json.RawMessage) (File, error) {
	var record fileRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return File{}, errors.Newf(errors.ErrorTypeParsing, "malformed file record: %v", err)
	}

	name := record.FileName
	if name == "" {
		if record.ID != "" {
			name = "file_" + record.ID
		} else {
			name = "file"
		}
	}

	checksum := record.Checksum
	if checksum == "" {
		checksum = record.SHA256
	}

	algorithm := strings.ToLower(record.ChecksumAlgorithm)
	if algorithm == "" {
		algorithm = "sha256"
	}

	return File{
		ID:                record.ID,
		Name:              name,
		DownloadURL:       record.DownloadURL,
		Checksum:          checksum,
		ChecksumAlgorithm: algorithm,
	}, nil
}
