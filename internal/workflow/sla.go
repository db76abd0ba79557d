// internal/workflow/sla.go
package workflow

import (
	"time"

	"recruitment-workers/internal/models"
)

type SLALevel string

const (
	SLAOnTime   SLALevel = "on-time"
	SLAWarning  SLALevel = "warning"
	SLACritical SLALevel = "critical"
)

const day = 24 * time.Hour

// SLATable holds the per-stage limit in days. Stages without an entry have no SLA.
type SLATable map[models.Stage]int

func DefaultSLATable() SLATable {
	return SLATable{
		models.StageRegistered:         3,
		models.StageVerified:           5,
		models.StageApplied:            14,
		models.StageOfferReceived:      14,
		models.StageWorkPermitReceived: 30,
		models.StageEmbassyApplied:     21,
		models.StageVisaReceived:       7,
		models.StageSLBFERegistration:  5,
		models.StageTicketIssued:       7,
	}
}

// Merge returns a copy of t with overrides applied. Unknown stage names are ignored.
func (t SLATable) Merge(overrides map[string]int) SLATable {
	out := make(SLATable, len(t)+len(overrides))
	for k, v := range t {
		out[k] = v
	}
	for name, days := range overrides {
		if s, err := models.ParseStage(name); err == nil {
			out[s] = days
		}
	}
	return out
}

type SLAReport struct {
	CandidateID   string       `json:"candidateId"`
	Stage         models.Stage `json:"stage"`
	EnteredAt     time.Time    `json:"enteredAt"`
	DaysInStage   int          `json:"daysInStage"`
	LimitDays     int          `json:"limitDays"`
	DaysRemaining int          `json:"daysRemaining"`
	Overdue       bool         `json:"overdue"`
	Level         SLALevel     `json:"level"`
}

// DaysInStage is the number of started days since enteredAt, never negative.
func DaysInStage(enteredAt, now time.Time) int {
	elapsed := now.Sub(enteredAt)
	if elapsed <= 0 {
		return 0
	}
	days := int(elapsed / day)
	if elapsed%day != 0 {
		days++
	}
	return days
}

// ComputeSLA is overdue only when days in stage strictly exceed the limit.
func ComputeSLA(stage models.Stage, enteredAt, now time.Time, limits SLATable) SLAReport {
	report := SLAReport{
		Stage:       stage,
		EnteredAt:   enteredAt,
		DaysInStage: DaysInStage(enteredAt, now),
		Level:       SLAOnTime,
	}
	limit, ok := limits[stage]
	if !ok || limit <= 0 {
		return report
	}
	report.LimitDays = limit
	report.DaysRemaining = limit - report.DaysInStage
	switch {
	case report.DaysInStage > limit:
		report.Overdue = true
		report.Level = SLACritical
	case float64(report.DaysInStage) >= 0.8*float64(limit):
		report.Level = SLAWarning
	}
	return report
}
