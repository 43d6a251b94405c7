package ui

import (
	"fmt"
	"io"
	"text/tabwriter"

	"wpexport/pkg/export"
)

// RenderJobsTable writes a table of export jobs to w
func RenderJobsTable(w io.Writer, jobs []export.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, Yellow("No export jobs were found."))
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPORT ID\tSTATUS\tCOMPLETED\tCREATED")
	for _, job := range jobs {
		created := ""
		if !job.CreatedTime.IsZero() {
			created = job.CreatedTime.Format("2006-01-02 15:04:05")
		}
		completed := "no"
		if job.Completed {
			completed = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", job.ID, job.Status, completed, created)
	}
	tw.Flush()
}

// RenderSummary writes the outcome counts of an export run to w
func RenderSummary(w io.Writer, summary *export.Summary) {
	fmt.Fprintf(w, "%s %d downloaded, %d skipped, %d failed (%d jobs)\n",
		Cyan("Result:"), summary.Downloaded, summary.Skipped, summary.Failed, summary.JobsProcessed)

	for _, failure := range summary.Failures {
		name := failure.FileName
		if name == "" {
			name = "(listing)"
		}
		fmt.Fprintf(w, "  %s job %s %s: %v\n", Red("failed"), failure.JobID, name, failure.Err)
	}
}
