// internal/workflow/engine.go
package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"recruitment-workers/internal/compliance"
	"recruitment-workers/internal/models"
)

var ErrReasonRequired = errors.New("REASON_REQUIRED")

// ReasonCannotSkip is returned when a forward transition jumps over a stage.
const ReasonCannotSkip = "cannot skip stages"

// ValidationResult is the answer to "may this candidate enter target?".
// Blockers is empty exactly when Allowed is true.
type ValidationResult struct {
	Allowed  bool     `json:"allowed"`
	Reason   string   `json:"reason,omitempty"`
	Blockers []string `json:"blockers"`
}

type TransitionResult struct {
	Success   bool                  `json:"success"`
	Event     *models.TimelineEvent `json:"event,omitempty"`
	Error     string                `json:"error,omitempty"`
	Blockers  []string              `json:"blockers,omitempty"`
	FromStage models.Stage          `json:"fromStage"`
	ToStage   models.Stage          `json:"toStage"`
}

func rejected(from, to models.Stage, msg string, blockers []string) TransitionResult {
	return TransitionResult{Success: false, Error: msg, Blockers: blockers, FromStage: from, ToStage: to}
}

// Engine validates and applies stage transitions. It holds no candidate
// state; callers serialize writes to the same candidate.
type Engine struct {
	requirements RequirementTable
	evaluator    *compliance.Evaluator
	sla          SLATable
	now          func() time.Time
	elevated     map[models.Role]bool
	newID        func() string
}

type Option func(*Engine)

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithElevatedRoles replaces the roles allowed to force transitions and roll back.
func WithElevatedRoles(roles ...models.Role) Option {
	return func(e *Engine) {
		e.elevated = make(map[models.Role]bool, len(roles))
		for _, r := range roles {
			e.elevated[r.Normalize()] = true
		}
	}
}

func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) { e.newID = fn }
}

func NewEngine(requirements RequirementTable, evaluator *compliance.Evaluator, sla SLATable, opts ...Option) *Engine {
	e := &Engine{
		requirements: requirements,
		evaluator:    evaluator,
		sla:          sla,
		now:          evaluator.Now,
		elevated:     map[models.Role]bool{models.RoleAdmin: true},
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Evaluator() *compliance.Evaluator { return e.evaluator }

func (e *Engine) Now() time.Time { return e.now() }

// IsElevated reports whether actor may override or roll back.
func (e *Engine) IsElevated(actor models.Actor) bool {
	return e.elevated[actor.Role.Normalize()]
}

func (e *Engine) checkInput(c *models.Candidate, target models.Stage) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !target.Valid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidStage, string(target))
	}
	return nil
}

// ValidateTransition decides whether c may move to target. Business
// rejections come back as Allowed=false; an error means the input was unusable.
func (e *Engine) ValidateTransition(c *models.Candidate, target models.Stage) (ValidationResult, error) {
	if err := e.checkInput(c, target); err != nil {
		return ValidationResult{}, err
	}

	current, next := c.Stage.Index(), target.Index()
	switch {
	case next == current:
		return ValidationResult{Allowed: true, Blockers: []string{}}, nil
	case next < current:
		return ValidationResult{Allowed: true, Blockers: []string{}}, nil
	case next > current+1:
		permitted, _ := c.Stage.Next()
		return ValidationResult{
			Allowed:  false,
			Reason:   ReasonCannotSkip,
			Blockers: []string{fmt.Sprintf("Cannot skip stages: %s must be completed before %s", permitted, target)},
		}, nil
	}

	blockers := e.blockers(c, target)
	if len(blockers) > 0 {
		return ValidationResult{
			Allowed:  false,
			Reason:   fmt.Sprintf("%d unmet requirement(s) for %s", len(blockers), target),
			Blockers: blockers,
		}, nil
	}
	return ValidationResult{Allowed: true, Blockers: []string{}}, nil
}

// blockers collects requirement labels, critical flags and compliance
// issues blocking target, deduplicated in that order.
func (e *Engine) blockers(c *models.Candidate, target models.Stage) []string {
	out := []string{}
	seen := make(map[string]bool)
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, label := range e.requirements.Unmet(c, target) {
		add(label)
	}
	for _, f := range c.UnresolvedFlags(models.SeverityCritical) {
		add("Critical compliance flag: " + f.Reason)
	}
	report := e.evaluator.Evaluate(c)
	for _, issue := range report.BlockingIssues(target, compliance.DomainFlags) {
		add(issue.Message)
	}
	return out
}

// PerformTransition moves c forward to target when validation allows it.
// On rejection c is left untouched.
func (e *Engine) PerformTransition(c *models.Candidate, target models.Stage, actor models.Actor) (TransitionResult, error) {
	v, err := e.ValidateTransition(c, target)
	if err != nil {
		return TransitionResult{}, err
	}

	from := c.Stage
	if target == from {
		return TransitionResult{Success: true, FromStage: from, ToStage: target}, nil
	}
	if target.Before(from) {
		return rejected(from, target, fmt.Sprintf("moving back to %s requires a rollback", target), nil), nil
	}
	if !v.Allowed {
		msg := v.Reason
		if len(v.Blockers) > 0 {
			msg = strings.Join(v.Blockers, "; ")
		}
		return rejected(from, target, msg, v.Blockers), nil
	}

	event := e.event(models.EventStageTransition, c, actor, from, target,
		fmt.Sprintf("Moved to %s", target),
		fmt.Sprintf("Stage changed from %s to %s by %s", from, target, actor),
		nil,
	)
	e.apply(c, target, event)
	return TransitionResult{Success: true, Event: &event, FromStage: from, ToStage: target}, nil
}

// ForceTransition lets an elevated actor move c to any stage, bypassing
// validation. A reason is mandatory; the bypassed blockers are recorded on
// the event.
func (e *Engine) ForceTransition(c *models.Candidate, target models.Stage, actor models.Actor, reason string) (TransitionResult, error) {
	if err := e.checkInput(c, target); err != nil {
		return TransitionResult{}, err
	}
	if strings.TrimSpace(reason) == "" {
		return TransitionResult{}, fmt.Errorf("%w: override of %s", ErrReasonRequired, c.ID)
	}
	from := c.Stage
	if !e.IsElevated(actor) {
		return rejected(from, target, fmt.Sprintf("%s (%s) is not permitted to override stage transitions", actor, actor.Role), nil), nil
	}
	if target == from {
		return TransitionResult{Success: true, FromStage: from, ToStage: target}, nil
	}

	v, _ := e.ValidateTransition(c, target)
	event := e.event(models.EventManualOverride, c, actor, from, target,
		fmt.Sprintf("Override: moved to %s", target),
		fmt.Sprintf("Stage forced from %s to %s by %s", from, target, actor),
		map[string]interface{}{
			"action":           "force",
			"reason":           reason,
			"bypassedBlockers": v.Blockers,
		},
	)
	e.apply(c, target, event)
	return TransitionResult{Success: true, Event: &event, FromStage: from, ToStage: target}, nil
}

// Rollback returns c to an earlier stage. A reason is mandatory.
func (e *Engine) Rollback(c *models.Candidate, target models.Stage, actor models.Actor, reason string) (TransitionResult, error) {
	if err := e.checkInput(c, target); err != nil {
		return TransitionResult{}, err
	}
	if strings.TrimSpace(reason) == "" {
		return TransitionResult{}, fmt.Errorf("%w: rollback of %s", ErrReasonRequired, c.ID)
	}
	from := c.Stage
	if !e.IsElevated(actor) {
		return rejected(from, target, fmt.Sprintf("%s (%s) is not permitted to roll back stages", actor, actor.Role), nil), nil
	}
	if !target.Before(from) {
		return rejected(from, target, fmt.Sprintf("rollback target %s must be earlier than %s", target, from), nil), nil
	}

	event := e.event(models.EventManualOverride, c, actor, from, target,
		fmt.Sprintf("Rolled back to %s", target),
		fmt.Sprintf("Stage rolled back from %s to %s by %s: %s", from, target, actor, reason),
		map[string]interface{}{
			"action": "rollback",
			"reason": reason,
		},
	)
	e.apply(c, target, event)
	return TransitionResult{Success: true, Event: &event, FromStage: from, ToStage: target}, nil
}

// SLAStatus reports how long c has been in its current stage against the limit.
func (e *Engine) SLAStatus(c *models.Candidate) (SLAReport, error) {
	if err := c.Validate(); err != nil {
		return SLAReport{}, err
	}
	report := ComputeSLA(c.Stage, c.StageEnteredAt, e.now(), e.sla)
	report.CandidateID = c.ID
	return report, nil
}

func (e *Engine) event(typ models.TimelineEventType, c *models.Candidate, actor models.Actor, from, to models.Stage, title, desc string, meta map[string]interface{}) models.TimelineEvent {
	if meta == nil {
		meta = make(map[string]interface{}, 3)
	}
	meta["fromStage"] = string(from)
	meta["toStage"] = string(to)
	meta["actorRole"] = string(actor.Role)
	return models.TimelineEvent{
		ID:          e.newID(),
		Type:        typ,
		Title:       title,
		Description: desc,
		Timestamp:   e.now(),
		Actor:       actor.String(),
		Stage:       to,
		Metadata:    meta,
	}
}

// apply changes the stage and appends its audit event together.
func (e *Engine) apply(c *models.Candidate, target models.Stage, event models.TimelineEvent) {
	c.Stage = target
	c.StageEnteredAt = event.Timestamp
	c.StageStatus = models.StageStatusPending
	c.UpdatedAt = event.Timestamp
	c.AppendEvent(event)
}
