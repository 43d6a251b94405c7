package export

import "wpexport/pkg/logger"

// EventKind identifies what an export event describes
type EventKind string

const (
	EventJobStarted     EventKind = "job_started"
	EventJobSkipped     EventKind = "job_skipped"
	EventJobFailed      EventKind = "job_failed"
	EventFileDownloaded EventKind = "file_downloaded"
	EventFileSkipped    EventKind = "file_skipped"
	EventFileFailed     EventKind = "file_failed"
)

// Event is a structured progress report emitted by the orchestrator
type Event struct {
	Kind     EventKind
	JobID    string
	File     *File
	Reason   string
	Err      error
	Bytes    int64
	Attempts int
}

// Reporter receives export progress events. Implementations decide how
// to render them; the orchestrator itself never touches a terminal.
type Reporter interface {
	Report(event Event)
}

// NopReporter discards all events
type NopReporter struct{}

// Report discards the event
func (NopReporter) Report(Event) {}

// LogReporter renders events through the structured logger
type LogReporter struct {
	Logger logger.Logger
}

// NewLogReporter creates a Reporter backed by the given logger
func NewLogReporter(log logger.Logger) *LogReporter {
	if log == nil {
		log = logger.GetLogger()
	}
	return &LogReporter{Logger: log}
}

// Report logs the event with structured fields
func (r *LogReporter) Report(event Event) {
	fields := map[string]interface{}{
		"job_id": event.JobID,
	}
	if event.File != nil {
		fields["file_id"] = event.File.ID
		fields["file_name"] = event.File.Name
	}
	if event.Reason != "" {
		fields["reason"] = event.Reason
	}
	if event.Bytes > 0 {
		fields["bytes"] = event.Bytes
	}
	if event.Attempts > 0 {
		fields["attempts"] = event.Attempts
	}
	if event.Err != nil {
		fields["error"] = event.Err.Error()
	}

	switch event.Kind {
	case EventJobFailed, EventFileFailed:
		r.Logger.ErrorWithFields(string(event.Kind), fields)
	case EventJobSkipped, EventFileSkipped:
		r.Logger.WarnWithFields(string(event.Kind), fields)
	default:
		r.Logger.InfoWithFields(string(event.Kind), fields)
	}
}

// CollectingReporter records events in memory, for tests and for the
// wizard's post-run summaries.
type CollectingReporter struct {
	Events []Event
}

// Report appends the event
func (r *CollectingReporter) Report(event Event) {
	r.Events = append(r.Events, event)
}
