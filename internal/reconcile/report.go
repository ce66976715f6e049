package reconcile

import (
	"fmt"
	"time"

	"github.com/jmehdipour/ratebook/internal/model"
)

// Outcome is the fate of one incoming row.
type Outcome string

const (
	Inserted         Outcome = "inserted"
	Replaced         Outcome = "replaced"
	SkippedUnchanged Outcome = "skipped_unchanged"
	SkippedDeclined  Outcome = "skipped_declined"
	Invalid          Outcome = "invalid"
)

// Result records what happened to one row.
type Result struct {
	Line    int
	Scope   model.Scope
	Key     model.Key
	Outcome Outcome
	Reason  string // set for invalid rows
}

// Report summarizes a batch.
type Report struct {
	BatchID string
	Kind    model.Kind

	Inserted         int
	Replaced         int
	SkippedUnchanged int
	SkippedDeclined  int
	Invalid          int

	Results       []Result
	CreatedScopes []string // customers created on the fly

	StartedAt time.Time
	Duration  time.Duration
}

// NewOrUpdated is inserted plus replaced.
func (r Report) NewOrUpdated() int { return r.Inserted + r.Replaced }

// Skipped is unchanged plus declined.
func (r Report) Skipped() int { return r.SkippedUnchanged + r.SkippedDeclined }

// Total counts every row that produced an outcome.
func (r Report) Total() int { return r.NewOrUpdated() + r.Skipped() + r.Invalid }

// InvalidResults returns the rows that were skipped as invalid.
func (r Report) InvalidResults() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Outcome == Invalid {
			out = append(out, res)
		}
	}
	return out
}

func (r Report) String() string {
	return fmt.Sprintf("%d new/updated, %d skipped, %d invalid", r.NewOrUpdated(), r.Skipped(), r.Invalid)
}

func (r *Report) add(res Result) {
	switch res.Outcome {
	case Inserted:
		r.Inserted++
	case Replaced:
		r.Replaced++
	case SkippedUnchanged:
		r.SkippedUnchanged++
	case SkippedDeclined:
		r.SkippedDeclined++
	case Invalid:
		r.Invalid++
	}
	r.Results = append(r.Results, res)
}
