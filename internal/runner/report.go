package runner

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Status is the outcome of one stage
type Status string

const (
	StatusCompleted  Status = "completed"
	StatusSoftFailed Status = "soft_failed"
	StatusFailed     Status = "failed"
)

// StageResult records how one stage went
type StageResult struct {
	ID       StageID
	Policy   Policy
	Status   Status
	Duration time.Duration
	Err      error
}

// Report is the outcome of a run
type Report struct {
	Started  time.Time
	Duration time.Duration
	Stages   []StageResult
}

func (r *Report) add(result StageResult) {
	r.Stages = append(r.Stages, result)
}

// IDs returns the stages with the given status, in execution order.
func (r *Report) IDs(status Status) []StageID {
	var ids []StageID
	for _, s := range r.Stages {
		if s.Status == status {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// Ran reports whether the stage executed.
func (r *Report) Ran(id StageID) bool {
	for _, s := range r.Stages {
		if s.ID == id {
			return true
		}
	}
	return false
}

// Failed returns the stage that stopped the run, if any.
func (r *Report) Failed() (StageResult, bool) {
	for _, s := range r.Stages {
		if s.Status == StatusFailed {
			return s, true
		}
	}
	return StageResult{}, false
}

// Log writes one line per stage and a closing summary.
func (r *Report) Log(logger *logrus.Entry) {
	for _, s := range r.Stages {
		entry := logger.WithFields(logrus.Fields{
			"stage":    s.ID.String(),
			"status":   string(s.Status),
			"duration": s.Duration.Round(time.Millisecond).String(),
		})
		switch s.Status {
		case StatusFailed:
			entry.WithError(s.Err).Error("Stage summary")
		case StatusSoftFailed:
			entry.WithError(s.Err).Warn("Stage summary")
		default:
			entry.Info("Stage summary")
		}
	}

	summary := logger.WithFields(logrus.Fields{
		"completed":   len(r.IDs(StatusCompleted)),
		"soft_failed": len(r.IDs(StatusSoftFailed)),
		"failed":      len(r.IDs(StatusFailed)),
		"duration":    r.Duration.Round(time.Millisecond).String(),
	})
	if _, failed := r.Failed(); failed {
		summary.Error("Run failed")
		return
	}
	summary.Info("Run finished")
}
