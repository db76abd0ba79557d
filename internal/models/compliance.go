// internal/models/compliance.go
package models

import (
	"strings"
	"time"
)

type Severity string

const (
	SeverityInfo     Severity = "INFO"
	SeverityWarning  Severity = "WARNING"
	SeverityCritical Severity = "CRITICAL"
)

// ComplianceFlag is a manually raised issue. A CRITICAL unresolved flag blocks every stage.
type ComplianceFlag struct {
	ID              string     `json:"id"`
	Severity        Severity   `json:"severity"`
	Reason          string     `json:"reason"`
	IsResolved      bool       `json:"isResolved"`
	CreatedBy       string     `json:"createdBy,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	ResolvedBy      string     `json:"resolvedBy,omitempty"`
	ResolvedAt      *time.Time `json:"resolvedAt,omitempty"`
	ResolutionNotes string     `json:"resolutionNotes,omitempty"`
}

func (f *ComplianceFlag) Resolve(by, notes string, at time.Time) {
	f.IsResolved = true
	f.ResolvedBy = by
	f.ResolvedAt = &at
	f.ResolutionNotes = notes
}

type TimelineEventType string

const (
	EventStageTransition TimelineEventType = "StageTransition"
	EventStatusChange    TimelineEventType = "StatusChange"
	EventDocument        TimelineEventType = "Document"
	EventNote            TimelineEventType = "Note"
	EventAlert           TimelineEventType = "Alert"
	EventSystem          TimelineEventType = "System"
	EventManualOverride  TimelineEventType = "ManualOverride"
)

// TimelineEvent is an immutable audit record.
type TimelineEvent struct {
	ID          string                 `json:"id"`
	Type        TimelineEventType      `json:"type"`
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Timestamp   time.Time              `json:"timestamp"`
	Actor       string                 `json:"actor"`
	Stage       Stage                  `json:"stage"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
	RoleSystem  Role = "system"
)

// Normalize folds case and surrounding space so configured and supplied
// roles compare equal.
func (r Role) Normalize() Role {
	return Role(strings.ToLower(strings.TrimSpace(string(r))))
}

// Actor identifies who asked for a change. The role is trusted as supplied.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}

func (a Actor) String() string {
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
