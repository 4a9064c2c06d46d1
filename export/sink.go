package export

import (
	"context"
	"errors"
	"time"

	"github.com/zeu5/keygrid-rl/grid"
	"github.com/zeu5/keygrid-rl/metrics"
	"github.com/zeu5/keygrid-rl/types"
)

// Report is the exportable outcome of a training run
type Report struct {
	RunID     string                  `json:"run_id"`
	Mode      string                  `json:"mode"`
	CreatedAt time.Time               `json:"created_at"`
	Summary   metrics.Summary         `json:"summary"`
	Episodes  []metrics.EpisodeRecord `json:"episodes"`
	Visits    *grid.VisitDataSet      `json:"-"`
}

func NewReport(r *types.RunResult) *Report {
	created := r.FinishedAt
	if created.IsZero() {
		created = time.Now()
	}
	return &Report{
		RunID:     r.RunID,
		Mode:      string(r.Mode),
		CreatedAt: created,
		Summary:   r.Summary,
		Episodes:  r.History.Records(),
		Visits:    r.Visits,
	}
}

// Sink persists reports. A failing sink never affects the trained agent.
type Sink interface {
	Export(context.Context, *Report) error
}

// MultiSink exports to every sink and joins the errors
type MultiSink []Sink

var _ Sink = MultiSink{}

func (m MultiSink) Export(ctx context.Context, r *Report) error {
	var errs []error
	for _, s := range m {
		if err := s.Export(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
