// internal/workers/operations/generate-work-queue/models.go
package generateworkqueue

import "recruitment-workers/internal/tasks"

type Input struct {
	Stages []string `json:"stages"`
	Limit  int      `json:"limit"`
}

type Output struct {
	Tasks   []tasks.Task   `json:"tasks"`
	Total   int            `json:"total"`
	Indexed int            `json:"indexed"`
	Counts  map[string]int `json:"counts"`
}
