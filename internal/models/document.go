// internal/models/document.go
package models

import "time"

type DocumentType string

const (
	DocPassport         DocumentType = "Passport"
	DocPassportPhotos   DocumentType = "Passport Photos"
	DocFullPhoto        DocumentType = "Full Photo"
	DocCV               DocumentType = "CV"
	DocMedicalReport    DocumentType = "Medical Report"
	DocPoliceClearance  DocumentType = "Police Clearance"
	DocOfferLetter      DocumentType = "Offer Letter"
	DocWorkPermit       DocumentType = "Work Permit"
	DocVisaCopy         DocumentType = "Visa Copy"
	DocFlightTicket     DocumentType = "Flight Ticket"
	DocEducationCert    DocumentType = "Education Certificate"
	DocBirthCertificate DocumentType = "Birth Certificate"
)

type DocumentCategory string

const (
	CategoryMandatoryAtRegistration DocumentCategory = "Mandatory at Registration"
	CategoryLaterProcess            DocumentCategory = "Later Process"
)

type DocumentStatus string

const (
	DocStatusMissing            DocumentStatus = "Missing"
	DocStatusPendingReview      DocumentStatus = "Pending Review"
	DocStatusApproved           DocumentStatus = "Approved"
	DocStatusRejected           DocumentStatus = "Rejected"
	DocStatusCorrectionRequired DocumentStatus = "Correction Required"
)

// DocumentLog records a single status change on a document.
type DocumentLog struct {
	From      DocumentStatus `json:"from"`
	To        DocumentStatus `json:"to"`
	Actor     string         `json:"actor"`
	Note      string         `json:"note,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type CandidateDocument struct {
	ID         string           `json:"id"`
	Type       DocumentType     `json:"type"`
	Category   DocumentCategory `json:"category"`
	Status     DocumentStatus   `json:"status"`
	Version    int              `json:"version"`
	FileURL    string           `json:"fileUrl,omitempty"`
	UploadedAt *time.Time       `json:"uploadedAt,omitempty"`
	Logs       []DocumentLog    `json:"logs,omitempty"`
}

// Uploaded is true once the document exists in any state other than Missing.
func (d CandidateDocument) Uploaded() bool {
	return d.Status != "" && d.Status != DocStatusMissing
}

// SetStatus moves the document to status and appends the change to its log.
func (d *CandidateDocument) SetStatus(status DocumentStatus, actor, note string, at time.Time) {
	d.Logs = append(d.Logs, DocumentLog{
		From:      d.Status,
		To:        status,
		Actor:     actor,
		Note:      note,
		Timestamp: at,
	})
	d.Status = status
	d.Version++
	if status == DocStatusPendingReview && d.UploadedAt == nil {
		t := at
		d.UploadedAt = &t
	}
}
