package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Manager owns the export destination tree. Files land under
// outputDir/<jobID>/<fileName>; completed files are never overwritten
// or deleted, which makes a re-run skip everything already on disk.
type Manager struct {
	outputDir string
	mu        sync.Mutex
	jobDirs   map[string]bool
}

// NewManager creates a storage manager rooted at outputDir
func NewManager(outputDir string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir: outputDir,
		jobDirs:   make(map[string]bool),
	}, nil
}

// OutputDir returns the root of the destination tree
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// JobDir returns the directory for a job's files, creating it lazily
func (m *Manager) JobDir(jobID string) (string, error) {
	dir := filepath.Join(m.outputDir, sanitizeComponent(jobID))

	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.jobDirs[dir] {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create job directory: %w", err)
		}
		m.jobDirs[dir] = true
	}

	return dir, nil
}

// FilePath returns the destination path for a file within a job,
// creating the job directory if needed.
func (m *Manager) FilePath(jobID, fileName string) (string, error) {
	dir, err := m.JobDir(jobID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, sanitizeComponent(fileName)), nil
}

// Exists reports whether a destination file is already on disk
func (m *Manager) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// sanitizeComponent strips path separators and traversal sequences from
// server-supplied names so they stay inside the destination tree.
func sanitizeComponent(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(filepath.Clean("/" + name))
	if name == "/" || name == "." || name == "" {
		return "_"
	}
	return name
}
