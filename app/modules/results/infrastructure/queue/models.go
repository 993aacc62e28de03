package resultsqueue

import (
	"github.com/riverqueue/river"
)

// QueueName is the dedicated River queue for report imports.
const QueueName = "results"

// ImportReportArgs is an import job. It carries the raw report text so the worker does
// not depend on the request that enqueued it.
type ImportReportArgs struct {
	Source        string `json:"source"`
	Text          string `json:"text"`
	FirstPageOnly *bool  `json:"first_page_only,omitempty"`
}

// Kind returns the job type identifier for River
func (ImportReportArgs) Kind() string { return "import_report" }

// InsertOpts routes import jobs to the results queue.
func (ImportReportArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{
		Queue:       QueueName,
		MaxAttempts: 5,
	}
}
