package graph

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// DefaultBaseURL is the Graph API host
	DefaultBaseURL = "https://graph.facebook.com"

	// DefaultAPIVersion is used when no version is configured
	DefaultAPIVersion = "v20.0"
)

// Endpoints builds Graph API URLs for a fixed host and API version
type Endpoints struct {
	BaseURL string
	Version string
}

// NewEndpoints creates an endpoint builder for the given API version
func NewEndpoints(version string) Endpoints {
	if version == "" {
		version = DefaultAPIVersion
	}
	return Endpoints{
		BaseURL: DefaultBaseURL,
		Version: version,
	}
}

// URL joins a path onto the versioned base URL
func (e Endpoints) URL(path string) string {
	return fmt.Sprintf("%s/%s/%s", e.BaseURL, e.Version, strings.TrimPrefix(path, "/"))
}

// TenantExports returns the export-jobs listing endpoint for a tenant
func (e Endpoints) TenantExports(tenantID string) string {
	return e.URL(tenantID + "/diy_exports")
}

// JobFiles returns the files listing endpoint for an export job
func (e Endpoints) JobFiles(jobID string) string {
	return e.URL(jobID + "/files")
}

// Community returns the endpoint that identifies the caller's
// tenant/community
func (e Endpoints) Community() string {
	return e.URL("community")
}

// CommunityJobs returns the community-level DIY jobs endpoint, used when
// no tenant ID is known
func (e Endpoints) CommunityJobs() string {
	return e.URL("community/work_dyi_jobs")
}

// Job returns the detail endpoint for a single export job
func (e Endpoints) Job(jobID string) string {
	return e.URL(jobID)
}

// UserJobs returns the per-user sub-jobs endpoint for an export job
func (e Endpoints) UserJobs(jobID string) string {
	return e.URL(jobID + "/user_dyi_jobs")
}

// AppToken returns the client-credentials token exchange endpoint
func (e Endpoints) AppToken(appID, appSecret string) string {
	params := url.Values{}
	params.Set("grant_type", "client_credentials")
	params.Set("client_id", appID)
	params.Set("client_secret", appSecret)

	return fmt.Sprintf("%s?%s", e.URL("oauth/access_token"), params.Encode())
}
