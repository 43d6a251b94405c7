package export

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"

	"wpexport/pkg/errors"
	"wpexport/pkg/graph"
	"wpexport/pkg/logger"
)

// Service enumerates export jobs and their files. Listing never retries:
// re-listing is cheap and idempotent, so transport failures surface
// immediately and the caller decides whether to abort or skip.
type Service struct {
	client *graph.Client
	logger logger.Logger
}

// NewService creates an export enumeration service
func NewService(client *graph.Client, log logger.Logger) *Service {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Service{client: client, logger: log}
}

// ForEachJob walks a tenant's export jobs lazily, page by page. When
// status is non-empty it is sent as a server-side filter on the first
// request only; cursor URLs carry it forward themselves.
func (s *Service) ForEachJob(ctx context.Context, tenantID, status string, fn func(Job) error) error {
	params := url.Values{}
	if status != "" {
		params.Set("status", strings.ToLower(status))
	}

	endpoint := s.client.Endpoints().TenantExports(tenantID)
	return s.client.Paginate(ctx, endpoint, params, func(raw json.RawMessage) error {
		job, err := parseJob(raw)
		if err != nil {
			return err
		}
		return fn(job)
	})
}

// ListJobs drains ForEachJob into a slice
func (s *Service) ListJobs(ctx context.Context, tenantID, status string) ([]Job, error) {
	var jobs []Job
	err := s.ForEachJob(ctx, tenantID, status, func(job Job) error {
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// ForEachFile walks a job's files lazily, unfiltered
func (s *Service) ForEachFile(ctx context.Context, jobID string, fn func(File) error) error {
	endpoint := s.client.Endpoints().JobFiles(jobID)
	return s.client.Paginate(ctx, endpoint, nil, func(raw json.RawMessage) error {
		file, err := parseFile(raw)
		if err != nil {
			return err
		}
		return fn(file)
	})
}

// ListFiles drains ForEachFile into a slice
func (s *Service) ListFiles(ctx context.Context, jobID string) ([]File, error) {
	var files []File
	err := s.ForEachFile(ctx, jobID, func(file File) error {
		files = append(files, file)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// DiscoverTenant resolves the tenant/community ID of the authenticated
// integration.
func (s *Service) DiscoverTenant(ctx context.Context) (string, error) {
	var payload struct {
		ID string `json:"id"`
	}
	if err := s.client.GetJSON(ctx, s.client.Endpoints().Community(), nil, &payload); err != nil {
		return "", err
	}
	if payload.ID == "" {
		return "", errors.New(errors.ErrorTypeProtocol, "response did not include a tenant/community ID")
	}

	s.logger.DebugWithFields("discovered tenant", map[string]interface{}{
		"tenant_id": payload.ID,
	})
	return payload.ID, nil
}

// ListCommunityJobs lists DIY jobs through the community endpoint, used
// when no tenant ID is known. The endpoint has no server-side status
// filter, so completion filtering happens client-side.
func (s *Service) ListCommunityJobs(ctx context.Context, onlyCompleted bool) ([]Job, error) {
	var jobs []Job
	endpoint := s.client.Endpoints().CommunityJobs()
	err := s.client.Paginate(ctx, endpoint, nil, func(raw json.RawMessage) error {
		job, err := parseJob(raw)
		if err != nil {
			return err
		}
		if onlyCompleted && !job.Completed {
			return nil
		}
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJob fetches a single export job's detail record
func (s *Service) GetJob(ctx context.Context, jobID string, extraFields ...string) (*JobDetail, error) {
	fields := []string{"id", "status", "is_completed", "created_time", "company_job"}
	fields = append(fields, extraFields...)

	params := url.Values{}
	params.Set("fields", strings.Join(fields, ","))

	var record struct {
		jobRecordFields
		CompanyJob struct {
			ID string `json:"id"`
		} `json:"company_job"`
		DiyTypes           []string `json:"diy_types"`
		TotalCompletedJobs *int     `json:"total_number_of_completed_jobs"`
	}
	if err := s.client.GetJSON(ctx, s.client.Endpoints().Job(jobID), params, &record); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(record.jobRecordFields)
	if err != nil {
		return nil, errors.Newf(errors.ErrorTypeParsing, "failed to re-encode job record: %v", err)
	}
	job, err := parseJob(raw)
	if err != nil {
		return nil, err
	}

	detail := &JobDetail{
		Job:          job,
		CompanyJobID: record.CompanyJob.ID,
		DiyTypes:     record.DiyTypes,
	}
	if record.TotalCompletedJobs != nil {
		detail.TotalCompletedJobs = *record.TotalCompletedJobs
	}
	return detail, nil
}

// jobRecordFields mirrors jobRecord for embedding in the detail response
type jobRecordFields struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	IsCompleted *bool  `json:"is_completed"`
	CreatedTime string `json:"created_time"`
}

// ListUserJobs lists the per-user sub-jobs of an export job
func (s *Service) ListUserJobs(ctx context.Context, jobID string) ([]Job, error) {
	var jobs []Job
	endpoint := s.client.Endpoints().UserJobs(jobID)
	err := s.client.Paginate(ctx, endpoint, nil, func(raw json.RawMessage) error {
		job, err := parseJob(raw)
		if err != nil {
			return err
		}
		jobs = append(jobs, job)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}
