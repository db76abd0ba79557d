// internal/tasks/alerts.go
package tasks

import (
	"fmt"
	"time"

	"recruitment-workers/internal/compliance"
	"recruitment-workers/internal/models"
)

type AlertCategory string

const (
	AlertOverdue          AlertCategory = "OVERDUE"
	AlertPassportExpired  AlertCategory = "PASSPORT_EXPIRED"
	AlertPassportExpiring AlertCategory = "PASSPORT_EXPIRING"
	AlertPCCExpired       AlertCategory = "PCC_EXPIRED"
	AlertNewRegistrations AlertCategory = "NEW_REGISTRATIONS"
)

type AlertLevel string

const (
	AlertLevelCritical AlertLevel = "critical"
	AlertLevelWarning  AlertLevel = "warning"
	AlertLevelInfo     AlertLevel = "info"
)

// SystemAlert summarises one category across the whole candidate collection.
type SystemAlert struct {
	ID        string        `json:"id"`
	Type      AlertLevel    `json:"type"`
	Category  AlertCategory `json:"category"`
	Title     string        `json:"title"`
	Message   string        `json:"message"`
	Count     int           `json:"count"`
	Timestamp time.Time     `json:"timestamp"`
	Link      string        `json:"link,omitempty"`
}

// GenerateAlerts counts overdue stages, passport and PCC problems and new
// registrations. Categories with a zero count are omitted and nil entries
// are skipped.
func (g *Generator) GenerateAlerts(candidates []*models.Candidate) ([]SystemAlert, error) {
	now := g.engine.Now()
	counts := make(map[AlertCategory]int)

	for _, c := range candidates {
		if c == nil || !c.StageStatus.Active() {
			continue
		}
		sla, err := g.engine.SLAStatus(c)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", c.ID, err)
		}
		if sla.Overdue {
			counts[AlertOverdue]++
		}

		switch g.evaluator.PassportStatus(c) {
		case compliance.StatusExpired:
			counts[AlertPassportExpired]++
		case compliance.StatusExpiring:
			counts[AlertPassportExpiring]++
		}
		if g.evaluator.PCCStatus(c) == compliance.StatusExpired {
			counts[AlertPCCExpired]++
		}
		if !c.CreatedAt.IsZero() && now.Sub(c.CreatedAt) <= g.config.NewRegistrationWindow && !c.CreatedAt.After(now) {
			counts[AlertNewRegistrations]++
		}
	}

	stamp := now.UTC()
	var alerts []SystemAlert
	for _, def := range alertDefinitions {
		n := counts[def.category]
		if n == 0 {
			continue
		}
		alerts = append(alerts, SystemAlert{
			ID:        g.newID(),
			Type:      def.level,
			Category:  def.category,
			Title:     def.title,
			Message:   fmt.Sprintf(def.message, n),
			Count:     n,
			Timestamp: stamp,
			Link:      def.link,
		})
	}
	return alerts, nil
}

var alertDefinitions = []struct {
	category AlertCategory
	level    AlertLevel
	title    string
	message  string
	link     string
}{
	{AlertOverdue, AlertLevelCritical, "Overdue candidates", "%d candidate(s) have exceeded their stage SLA", "/work-queue?filter=overdue"},
	{AlertPassportExpired, AlertLevelCritical, "Expired passports", "%d candidate(s) hold an expired passport", "/candidates?passport=expired"},
	{AlertPassportExpiring, AlertLevelWarning, "Expiring passports", "%d candidate(s) have a passport nearing expiry", "/candidates?passport=expiring"},
	{AlertPCCExpired, AlertLevelCritical, "Expired police clearances", "%d candidate(s) hold an expired police clearance", "/candidates?pcc=expired"},
	{AlertNewRegistrations, AlertLevelInfo, "New registrations", "%d new candidate(s) registered", "/candidates?stage=Registered"},
}
