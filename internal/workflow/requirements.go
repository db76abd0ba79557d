// internal/workflow/requirements.go
package workflow

import (
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/rules"
)

// Requirement is a named predicate that must hold before entering a stage.
type Requirement interface {
	Label() string
	Check(c *models.Candidate) bool
}

type requirement struct {
	label string
	check func(*models.Candidate) bool
}

func (r requirement) Label() string                  { return r.label }
func (r requirement) Check(c *models.Candidate) bool { return r.check(c) }

func NewRequirement(label string, check func(*models.Candidate) bool) Requirement {
	return requirement{label: label, check: check}
}

// RequirementTable maps a target stage to the requirements checked on entry.
type RequirementTable map[models.Stage][]Requirement

func (t RequirementTable) For(stage models.Stage) []Requirement {
	return t[stage]
}

// Unmet returns the labels of requirements for stage that c does not satisfy, in table order.
func (t RequirementTable) Unmet(c *models.Candidate, stage models.Stage) []string {
	var out []string
	for _, r := range t.For(stage) {
		if !r.Check(c) {
			out = append(out, r.Label())
		}
	}
	return out
}

// DefaultRequirements builds the stage table. Country-dependent predicates
// resolve the candidate's rule through countries at check time.
func DefaultRequirements(countries rules.CountryLookup) RequirementTable {
	mandatoryUploaded := func(c *models.Candidate) bool {
		for _, t := range countries.Lookup(c.TargetCountry).MandatoryDocuments {
			if !c.HasUploaded(t) {
				return false
			}
		}
		return true
	}
	mandatoryApproved := func(c *models.Candidate) bool {
		for _, t := range countries.Lookup(c.TargetCountry).MandatoryDocuments {
			d, ok := c.Document(t)
			if !ok || d.Status != models.DocStatusApproved {
				return false
			}
		}
		return true
	}
	uploaded := func(t models.DocumentType) func(*models.Candidate) bool {
		return func(c *models.Candidate) bool { return c.HasUploaded(t) }
	}

	return RequirementTable{
		models.StageRegistered: nil,
		models.StageVerified: {
			NewRequirement("Mandatory registration documents uploaded", mandatoryUploaded),
			NewRequirement("Passport details recorded", func(c *models.Candidate) bool {
				return c.PassportData != nil && c.PassportData.Number != ""
			}),
			NewRequirement("Date of birth recorded", func(c *models.Candidate) bool {
				return c.DateOfBirth != nil
			}),
		},
		models.StageApplied: {
			NewRequirement("Mandatory registration documents approved", mandatoryApproved),
			NewRequirement("Job role assigned", func(c *models.Candidate) bool { return c.JobRole != "" }),
			NewRequirement("Target country selected", func(c *models.Candidate) bool { return c.TargetCountry != "" }),
		},
		models.StageOfferReceived: {
			NewRequirement("Employer assigned", func(c *models.Candidate) bool { return c.StageData.EmployerID != "" }),
			NewRequirement("Offer letter uploaded", uploaded(models.DocOfferLetter)),
		},
		models.StageWorkPermitReceived: {
			NewRequirement("Work permit uploaded", uploaded(models.DocWorkPermit)),
		},
		models.StageEmbassyApplied: {
			NewRequirement("Medical clearance obtained", func(c *models.Candidate) bool {
				if !countries.Lookup(c.TargetCountry).MedicalRequired {
					return true
				}
				return c.MedicalData != nil && c.MedicalData.Status == models.MedicalCompleted
			}),
			NewRequirement("Police clearance recorded", func(c *models.Candidate) bool {
				if !countries.Lookup(c.TargetCountry).PCCRequired {
					return true
				}
				return c.PCCData != nil && c.PCCData.IssueDate != nil
			}),
		},
		models.StageVisaReceived: {
			NewRequirement("Visa copy uploaded", uploaded(models.DocVisaCopy)),
		},
		models.StageSLBFERegistration: {
			NewRequirement("SLBFE registration number recorded", func(c *models.Candidate) bool {
				return c.StageData.SLBFERegistrationNo != ""
			}),
		},
		models.StageTicketIssued: {
			NewRequirement("Payment completed", func(c *models.Candidate) bool {
				return c.StageData.PaymentStatus == models.PaymentPaid
			}),
		},
		models.StageDeparted: {
			NewRequirement("Ticket details recorded", func(c *models.Candidate) bool {
				return c.StageData.TicketNumber != "" && c.StageData.FlightDate != nil
			}),
		},
	}
}
