// internal/workers/operations/generate-system-alerts/models.go
package generatesystemalerts

import "recruitment-workers/internal/tasks"

type Input struct {
	Notify bool `json:"notify"`
}

type Output struct {
	Alerts     []tasks.SystemAlert `json:"alerts"`
	Dispatched int                 `json:"dispatched"`
}
