// internal/models/stage.go
package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidStage       = errors.New("INVALID_STAGE")
	ErrMalformedCandidate = errors.New("MALFORMED_CANDIDATE")
)

// Stage is one step of the recruitment pipeline. The set is closed and ordered.
type Stage string

const (
	StageRegistered         Stage = "Registered"
	StageVerified           Stage = "Verified"
	StageApplied            Stage = "Applied"
	StageOfferReceived      Stage = "Offer Received"
	StageWorkPermitReceived Stage = "WP Received"
	StageEmbassyApplied     Stage = "Embassy Applied"
	StageVisaReceived       Stage = "Visa Received"
	StageSLBFERegistration  Stage = "SLBFE Registration"
	StageTicketIssued       Stage = "Ticket Issued"
	StageDeparted           Stage = "Departed"
)

var stageOrder = []Stage{
	StageRegistered,
	StageVerified,
	StageApplied,
	StageOfferReceived,
	StageWorkPermitReceived,
	StageEmbassyApplied,
	StageVisaReceived,
	StageSLBFERegistration,
	StageTicketIssued,
	StageDeparted,
}

var stageIndex = func() map[Stage]int {
	m := make(map[Stage]int, len(stageOrder))
	for i, s := range stageOrder {
		m[s] = i
	}
	return m
}()

// stageAliases maps lower-cased alternate spellings onto canonical stages.
var stageAliases = map[string]Stage{
	"registration":         StageRegistered,
	"verification":         StageVerified,
	"offer-received":       StageOfferReceived,
	"work-permit-received": StageWorkPermitReceived,
	"work permit received": StageWorkPermitReceived,
	"embassy-applied":      StageEmbassyApplied,
	"visa-received":        StageVisaReceived,
	"slbfe-registration":   StageSLBFERegistration,
	"ticket":               StageTicketIssued,
	"departure":            StageDeparted,
}

// AllStages returns the stages in canonical order.
func AllStages() []Stage {
	out := make([]Stage, len(stageOrder))
	copy(out, stageOrder)
	return out
}

// ParseStage resolves a stage identifier, accepting canonical names and known aliases.
func ParseStage(s string) (Stage, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", fmt.Errorf("%w: empty stage", ErrInvalidStage)
	}
	for _, st := range stageOrder {
		if strings.ToLower(string(st)) == key {
			return st, nil
		}
	}
	if st, ok := stageAliases[key]; ok {
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStage, s)
}

// Valid reports whether s is one of the enumerated stages.
func (s Stage) Valid() bool {
	_, ok := stageIndex[s]
	return ok
}

// Index is the position of s in canonical order, or -1 when s is unknown.
func (s Stage) Index() int {
	if i, ok := stageIndex[s]; ok {
		return i
	}
	return -1
}

// Next returns the stage following s. The last stage has no successor.
func (s Stage) Next() (Stage, bool) {
	i := s.Index()
	if i < 0 || i+1 >= len(stageOrder) {
		return "", false
	}
	return stageOrder[i+1], true
}

// Before reports whether s comes earlier than other in canonical order.
func (s Stage) Before(other Stage) bool {
	return s.Index() < other.Index()
}

// StagesAfter returns every stage ordered strictly after s.
func StagesAfter(s Stage) []Stage {
	i := s.Index()
	if i < 0 {
		return nil
	}
	out := make([]Stage, 0, len(stageOrder)-i-1)
	out = append(out, stageOrder[i+1:]...)
	return out
}

// StageStatus is the processing status within the current stage.
type StageStatus string

const (
	StageStatusPending    StageStatus = "Pending"
	StageStatusInProgress StageStatus = "In Progress"
	StageStatusCompleted  StageStatus = "Completed"
	StageStatusOnHold     StageStatus = "On Hold"
	StageStatusRejected   StageStatus = "Rejected"
	StageStatusCancelled  StageStatus = "Cancelled"
)

// Active is false for candidates that have left the pipeline.
func (s StageStatus) Active() bool {
	return s != StageStatusRejected && s != StageStatusCancelled
}
