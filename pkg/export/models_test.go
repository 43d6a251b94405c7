package export

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJob(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		job, err := parseJob(json.RawMessage(`{
			"id": "1001",
			"status": "COMPLETED",
			"created_time": "2024-03-15T10:30:00+0000"
		}`))

		require.NoError(t, err)
		assert.Equal(t, "1001", job.ID)
		assert.Equal(t, JobStatusCompleted, job.Status)
		assert.True(t, job.Completed)
		assert.Equal(t, time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), job.CreatedTime.UTC())
	})

	t.Run("status derived from is_completed true", func(t *testing.T) {
		job, err := parseJob(json.RawMessage(`{"id": "1002", "is_completed": true}`))

		require.NoError(t, err)
		assert.Equal(t, JobStatusCompleted, job.Status)
		assert.True(t, job.Completed)
	})

	t.Run("status derived from is_completed false", func(t *testing.T) {
		job, err := parseJob(json.RawMessage(`{"id": "1003", "is_completed": false}`))

		require.NoError(t, err)
		assert.Equal(t, JobStatusInProgress, job.Status)
		assert.False(t, job.Completed)
	})

	t.Run("is_completed overrides status for completion", func(t *testing.T) {
		job, err := parseJob(json.RawMessage(`{"id": "1004", "status": "completed", "is_completed": false}`))

		require.NoError(t, err)
		assert.Equal(t, JobStatusCompleted, job.Status)
		assert.False(t, job.Completed)
	})

	t.Run("rfc3339 created_time", func(t *testing.T) {
		job, err := parseJob(json.RawMessage(`{"id": "1005", "created_time": "2024-03-15T10:30:00Z"}`))

		require.NoError(t, err)
		assert.False(t, job.CreatedTime.IsZero())
	})

	t.Run("unparseable created_time is tolerated", func(t *testing.T) {
		job, err := parseJob(json.RawMessage(`{"id": "1006", "created_time": "yesterday"}`))

		require.NoError(t, err)
		assert.True(t, job.CreatedTime.IsZero())
	})

	t.Run("missing id is an error", func(t *testing.T) {
		_, err := parseJob(json.RawMessage(`{"status": "completed"}`))
		require.Error(t, err)
	})

	t.Run("malformed record is an error", func(t *testing.T) {
		_, err := parseJob(json.RawMessage(`[1,2,3]`))
		require.Error(t, err)
	})
}

func TestParseFile(t *testing.T) {
	t.Run("full record", func(t *testing.T) {
		file, err := parseFile(json.RawMessage(`{
			"id": "f1",
			"file_name": "members.csv",
			"download_url": "https://example.com/f1",
			"checksum": "ABCDEF",
			"checksum_algorithm": "SHA256"
		}`))

		require.NoError(t, err)
		assert.Equal(t, "f1", file.ID)
		assert.Equal(t, "members.csv", file.Name)
		assert.Equal(t, "https://example.com/f1", file.DownloadURL)
		assert.Equal(t, "ABCDEF", file.Checksum)
		assert.Equal(t, "sha256", file.ChecksumAlgorithm)
	})

	t.Run("name synthesized from id", func(t *testing.T) {
		file, err := parseFile(json.RawMessage(`{"id": "f2"}`))

		require.NoError(t, err)
		assert.Equal(t, "file_f2", file.Name)
	})

	t.Run("name falls back to constant when id missing", func(t *testing.T) {
		file, err := parseFile(json.RawMessage(`{}`))

		require.NoError(t, err)
		assert.Equal(t, "file", file.Name)
	})

	t.Run("legacy sha256 key", func(t *testing.T) {
		file, err := parseFile(json.RawMessage(`{"id": "f3", "sha256": "deadbeef"}`))

		require.NoError(t, err)
		assert.Equal(t, "deadbeef", file.Checksum)
		assert.Equal(t, "sha256", file.ChecksumAlgorithm)
	})

	t.Run("checksum key wins over legacy key", func(t *testing.T) {
		file, err := parseFile(json.RawMessage(`{"id": "f4", "checksum": "aaa", "sha256": "bbb"}`))

		require.NoError(t, err)
		assert.Equal(t, "aaa", file.Checksum)
	})

	t.Run("missing download_url is preserved as empty", func(t *testing.T) {
		file, err := parseFile(json.RawMessage(`{"id": "f5", "file_name": "x.csv"}`))

		require.NoError(t, err)
		assert.Empty(t, file.DownloadURL)
	})
}
