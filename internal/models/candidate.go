// internal/models/candidate.go
package models

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type MedicalStatus string

const (
	MedicalNotStarted MedicalStatus = "Not Started"
	MedicalScheduled  MedicalStatus = "Scheduled"
	MedicalCompleted  MedicalStatus = "Completed"
	MedicalFailed     MedicalStatus = "Failed"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "Pending"
	PaymentPartial PaymentStatus = "Partial"
	PaymentPaid    PaymentStatus = "Paid"
)

type PassportData struct {
	Number     string     `json:"number"`
	IssueDate  *time.Time `json:"issueDate,omitempty"`
	ExpiryDate *time.Time `json:"expiryDate,omitempty"`
	Country    string     `json:"country,omitempty"`
}

// PCCData is the police clearance certificate record.
type PCCData struct {
	IssueDate *time.Time `json:"issueDate,omitempty"`
	Authority string     `json:"authority,omitempty"`
	Reference string     `json:"reference,omitempty"`
}

type MedicalData struct {
	Status        MedicalStatus `json:"status,omitempty"`
	ScheduledDate *time.Time    `json:"scheduledDate,omitempty"`
	CompletedDate *time.Time    `json:"completedDate,omitempty"`
	Center        string        `json:"center,omitempty"`
}

// StageData carries the per-stage facts that requirements check.
type StageData struct {
	EmployerID          string        `json:"employerId,omitempty"`
	JobOrderID          string        `json:"jobOrderId,omitempty"`
	EmployerResponseAt  *time.Time    `json:"employerResponseAt,omitempty"`
	PaymentStatus       PaymentStatus `json:"paymentStatus,omitempty"`
	SLBFERegistrationNo string        `json:"slbfeRegistrationNo,omitempty"`
	TicketNumber        string        `json:"ticketNumber,omitempty"`
	FlightDate          *time.Time    `json:"flightDate,omitempty"`
}

type Candidate struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	NIC           string     `json:"nic,omitempty"`
	Email         string     `json:"email,omitempty"`
	Phone         string     `json:"phone,omitempty"`
	JobRole       string     `json:"jobRole,omitempty"`
	TargetCountry string     `json:"targetCountry,omitempty"`
	DateOfBirth   *time.Time `json:"dateOfBirth,omitempty"`

	Stage          Stage       `json:"stage"`
	StageStatus    StageStatus `json:"stageStatus"`
	StageEnteredAt time.Time   `json:"stageEnteredAt"`

	PassportData    *PassportData       `json:"passportData,omitempty"`
	PCCData         *PCCData            `json:"pccData,omitempty"`
	MedicalData     *MedicalData        `json:"medicalData,omitempty"`
	StageData       StageData           `json:"stageData"`
	Documents       []CandidateDocument `json:"documents,omitempty"`
	ComplianceFlags []ComplianceFlag    `json:"complianceFlags,omitempty"`
	TimelineEvents  []TimelineEvent     `json:"timelineEvents,omitempty"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewCandidate registers a candidate at the first stage.
func NewCandidate(id, name, targetCountry string, at time.Time) *Candidate {
	return &Candidate{
		ID:             id,
		Name:           name,
		TargetCountry:  targetCountry,
		Stage:          StageRegistered,
		StageStatus:    StageStatusPending,
		StageEnteredAt: at,
		CreatedAt:      at,
		UpdatedAt:      at,
	}
}

// Validate rejects candidates the engine cannot reason about.
func (c *Candidate) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil candidate", ErrMalformedCandidate)
	}
	err := validation.ValidateStruct(c,
		validation.Field(&c.ID, validation.Required),
		validation.Field(&c.Stage, validation.Required, validation.By(func(value interface{}) error {
			if s, ok := value.(Stage); ok && !s.Valid() {
				return fmt.Errorf("unknown stage %q", string(s))
			}
			return nil
		})),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedCandidate, err)
	}
	return nil
}

// Document returns the most recent document of type t.
func (c *Candidate) Document(t DocumentType) (CandidateDocument, bool) {
	for i := len(c.Documents) - 1; i >= 0; i-- {
		if c.Documents[i].Type == t {
			return c.Documents[i], true
		}
	}
	return CandidateDocument{}, false
}

// HasUploaded reports whether a document of type t exists and is not Missing.
func (c *Candidate) HasUploaded(t DocumentType) bool {
	d, ok := c.Document(t)
	return ok && d.Uploaded()
}

func (c *Candidate) DocumentsWithStatus(status DocumentStatus) []CandidateDocument {
	var out []CandidateDocument
	for _, d := range c.Documents {
		if d.Status == status {
			out = append(out, d)
		}
	}
	return out
}

// UnresolvedFlags returns the open compliance flags of the given severity.
func (c *Candidate) UnresolvedFlags(severity Severity) []ComplianceFlag {
	var out []ComplianceFlag
	for _, f := range c.ComplianceFlags {
		if !f.IsResolved && f.Severity == severity {
			out = append(out, f)
		}
	}
	return out
}

// AppendEvent is the only way events enter the timeline.
func (c *Candidate) AppendEvent(e TimelineEvent) {
	c.TimelineEvents = append(c.TimelineEvents, e)
}

// RecentEvents returns the timeline newest first.
func (c *Candidate) RecentEvents() []TimelineEvent {
	out := make([]TimelineEvent, len(c.TimelineEvents))
	for i, e := range c.TimelineEvents {
		out[len(out)-1-i] = e
	}
	return out
}

// Clone returns a deep copy of the candidate's slices and sub-records.
func (c *Candidate) Clone() *Candidate {
	cp := *c
	if c.PassportData != nil {
		p := *c.PassportData
		cp.PassportData = &p
	}
	if c.PCCData != nil {
		p := *c.PCCData
		cp.PCCData = &p
	}
	if c.MedicalData != nil {
		m := *c.MedicalData
		cp.MedicalData = &m
	}
	cp.Documents = make([]CandidateDocument, len(c.Documents))
	for i, d := range c.Documents {
		d.Logs = append([]DocumentLog(nil), d.Logs...)
		cp.Documents[i] = d
	}
	cp.ComplianceFlags = append([]ComplianceFlag(nil), c.ComplianceFlags...)
	cp.TimelineEvents = append([]TimelineEvent(nil), c.TimelineEvents...)
	return &cp
}
