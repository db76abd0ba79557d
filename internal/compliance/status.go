// internal/compliance/status.go
package compliance

import (
	"time"

	"recruitment-workers/internal/models"
)

// DocumentValidity is the derived status of a dated document such as a passport or PCC.
type DocumentValidity string

const (
	StatusValid    DocumentValidity = "VALID"
	StatusExpiring DocumentValidity = "EXPIRING"
	StatusExpired  DocumentValidity = "EXPIRED"
	StatusInvalid  DocumentValidity = "INVALID"
	StatusMissing  DocumentValidity = "MISSING"
)

// PassportStatusAt derives passport validity as of now. It is EXPIRING when
// the expiry date is at most warningDays away and EXPIRED once that date has passed.
func PassportStatusAt(p *models.PassportData, now time.Time, warningDays int) DocumentValidity {
	if p == nil || p.Number == "" {
		return StatusMissing
	}
	if p.ExpiryDate == nil {
		return StatusInvalid
	}
	if p.IssueDate != nil && p.ExpiryDate.Before(*p.IssueDate) {
		return StatusInvalid
	}
	remaining := daysBetween(now, *p.ExpiryDate)
	switch {
	case remaining < 0:
		return StatusExpired
	case remaining <= warningDays:
		return StatusExpiring
	default:
		return StatusValid
	}
}

// PassportDaysRemaining is the number of whole days until expiry, negative once expired.
func PassportDaysRemaining(p *models.PassportData, now time.Time) (int, bool) {
	if p == nil || p.ExpiryDate == nil {
		return 0, false
	}
	return daysBetween(now, *p.ExpiryDate), true
}

// PCCStatusAt derives police clearance validity from its age in days.
func PCCStatusAt(p *models.PCCData, now time.Time, maxAgeDays, warningDays int) DocumentValidity {
	if p == nil || p.IssueDate == nil {
		return StatusMissing
	}
	age := daysBetween(*p.IssueDate, now)
	switch {
	case age < 0:
		return StatusInvalid
	case age > maxAgeDays:
		return StatusExpired
	case age >= warningDays:
		return StatusExpiring
	default:
		return StatusValid
	}
}

// AgeAt returns whole years elapsed since dob.
func AgeAt(dob, now time.Time) int {
	dob, now = dob.UTC(), now.UTC()
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween counts calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(truncateToDay(b).Sub(truncateToDay(a)).Hours() / 24)
}
