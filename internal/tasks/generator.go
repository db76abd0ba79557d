// internal/tasks/generator.go
package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"recruitment-workers/internal/compliance"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/workflow"
)

type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Weight orders priorities in the work queue.
func (p Priority) Weight() int {
	switch p {
	case PriorityCritical:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

type TaskType string

const (
	TaskSLABreach          TaskType = "SLA_BREACH"
	TaskCriticalFlag       TaskType = "CRITICAL_FLAG"
	TaskVerifyDocuments    TaskType = "VERIFY_DOCUMENTS"
	TaskCollectPayment     TaskType = "COLLECT_PAYMENT"
	TaskWarningFlag        TaskType = "WARNING_FLAG"
	TaskDocumentCorrection TaskType = "DOCUMENT_CORRECTION"
	TaskEmployerFollowUp   TaskType = "EMPLOYER_FOLLOW_UP"
)

type Task struct {
	ID            string       `json:"id"`
	Type          TaskType     `json:"type"`
	Priority      Priority     `json:"priority"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	CandidateID   string       `json:"candidateId,omitempty"`
	CandidateName string       `json:"candidateName,omitempty"`
	Stage         models.Stage `json:"stage,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`
	Link          string       `json:"link,omitempty"`
	// SourceID is the compliance flag behind a flag task; a candidate can
	// carry several tasks of the same type.
	SourceID string `json:"sourceId,omitempty"`
}

type Config struct {
	Workers               int           `mapstructure:"workers"`
	StaleAppliedDays      int           `mapstructure:"stale_applied_days"`
	NewRegistrationWindow time.Duration `mapstructure:"new_registration_window"`
}

func DefaultConfig() Config {
	return Config{
		Workers:               8,
		StaleAppliedDays:      7,
		NewRegistrationWindow: 24 * time.Hour,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	if c.StaleAppliedDays <= 0 {
		c.StaleAppliedDays = d.StaleAppliedDays
	}
	if c.NewRegistrationWindow <= 0 {
		c.NewRegistrationWindow = d.NewRegistrationWindow
	}
	return c
}

// Generator derives the work queue and system alerts from candidate state.
type Generator struct {
	engine    *workflow.Engine
	evaluator *compliance.Evaluator
	config    Config
	newID     func() string
}

type Option func(*Generator)

func WithIDGenerator(fn func() string) Option {
	return func(g *Generator) { g.newID = fn }
}

func NewGenerator(engine *workflow.Engine, config Config, opts ...Option) *Generator {
	g := &Generator{
		engine:    engine,
		evaluator: engine.Evaluator(),
		config:    config.withDefaults(),
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Now is the engine clock the generator judges candidates against.
func (g *Generator) Now() time.Time { return g.engine.Now() }

// GenerateWorkQueue scans candidates concurrently and returns their tasks
// sorted by priority. Tasks of equal priority keep input order. Nil entries
// are skipped.
func (g *Generator) GenerateWorkQueue(ctx context.Context, candidates []*models.Candidate) ([]Task, error) {
	now := g.engine.Now()
	perCandidate := make([][]Task, len(candidates))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.Workers)
	for i, c := range candidates {
		if c == nil {
			continue
		}
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			tasks, err := g.candidateTasks(c, now)
			if err != nil {
				return fmt.Errorf("candidate %s: %w", c.ID, err)
			}
			perCandidate[i] = tasks
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var queue []Task
	for _, tasks := range perCandidate {
		queue = append(queue, tasks...)
	}
	SortByPriority(queue)
	return queue, nil
}

// SortByPriority orders tasks by descending weight, stable for ties.
func SortByPriority(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Priority.Weight() > tasks[j].Priority.Weight()
	})
}

func (g *Generator) candidateTasks(c *models.Candidate, now time.Time) ([]Task, error) {
	if !c.StageStatus.Active() {
		return nil, nil
	}
	sla, err := g.engine.SLAStatus(c)
	if err != nil {
		return nil, err
	}

	var out []Task
	add := func(typ TaskType, p Priority, title, desc string) *Task {
		out = append(out, Task{
			ID:            g.newID(),
			Type:          typ,
			Priority:      p,
			Title:         title,
			Description:   desc,
			CandidateID:   c.ID,
			CandidateName: c.Name,
			Stage:         c.Stage,
			Timestamp:     now,
			Link:          "/candidates/" + c.ID,
		})
		return &out[len(out)-1]
	}

	if sla.Overdue {
		add(TaskSLABreach, PriorityCritical,
			fmt.Sprintf("SLA breached at %s", c.Stage),
			fmt.Sprintf("%s has been in %s for %d days (limit %d)", c.Name, c.Stage, sla.DaysInStage, sla.LimitDays))
	}
	for i, f := range c.UnresolvedFlags(models.SeverityCritical) {
		add(TaskCriticalFlag, PriorityCritical, "Resolve critical compliance flag", f.Reason).SourceID = flagSource(i, f)
	}
	if c.Stage == models.StageRegistered {
		if pending := c.DocumentsWithStatus(models.DocStatusPendingReview); len(pending) > 0 {
			add(TaskVerifyDocuments, PriorityHigh, "Verify uploaded documents",
				fmt.Sprintf("%d document(s) awaiting review: %s", len(pending), documentTypes(pending)))
		}
	}
	if c.Stage == models.StageSLBFERegistration && c.StageData.PaymentStatus != models.PaymentPaid {
		status := c.StageData.PaymentStatus
		if status == "" {
			status = models.PaymentPending
		}
		add(TaskCollectPayment, PriorityHigh, "Collect outstanding payment",
			fmt.Sprintf("Payment is %s; ticketing is blocked until it is paid", strings.ToLower(string(status))))
	}
	for i, f := range c.UnresolvedFlags(models.SeverityWarning) {
		add(TaskWarningFlag, PriorityMedium, "Review compliance warning", f.Reason).SourceID = flagSource(i, f)
	}
	if docs := c.DocumentsWithStatus(models.DocStatusCorrectionRequired); len(docs) > 0 {
		add(TaskDocumentCorrection, PriorityMedium, "Follow up on document corrections",
			fmt.Sprintf("Corrections requested for: %s", documentTypes(docs)))
	}
	if c.Stage == models.StageApplied && c.StageData.EmployerResponseAt == nil && sla.DaysInStage > g.config.StaleAppliedDays {
		add(TaskEmployerFollowUp, PriorityMedium, "Chase employer response",
			fmt.Sprintf("No employer response after %d days in %s", sla.DaysInStage, c.Stage))
	}
	return out, nil
}

func flagSource(i int, f models.ComplianceFlag) string {
	if f.ID != "" {
		return f.ID
	}
	return fmt.Sprintf("flag-%d", i)
}

func documentTypes(docs []models.CandidateDocument) string {
	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = string(d.Type)
	}
	return strings.Join(names, ", ")
}
