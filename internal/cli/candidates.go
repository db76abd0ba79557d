// internal/cli/candidates.go
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"recruitment-workers/internal/compliance"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/workflow"
)

func evaluateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "evaluate [candidate-id...]",
		Short: "Score candidates against their destination country rules",
		Example: `  recruitctl evaluate -c export.json
  recruitctl evaluate -c export.json c-104 c-211 --at 2026-07-01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			store, ids, err := opts.candidates(cmd.Context(), args)
			if err != nil {
				return err
			}

			reports := make([]compliance.Report, 0, len(ids))
			for _, id := range ids {
				c, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				if err := c.Validate(); err != nil {
					return fmt.Errorf("candidate %s: %w", id, err)
				}
				reports = append(reports, engine.Evaluator().Evaluate(c))
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, reports)
			}
			for _, r := range reports {
				printReport(out, r)
			}
			return nil
		},
	}
}

func printReport(w io.Writer, r compliance.Report) {
	status := good.Sprint("processable")
	if !r.IsProcessable {
		status = critical.Sprint("blocked")
	}
	heading.Fprintf(w, "%s", r.CandidateID)
	fmt.Fprintf(w, " (%s) score %d/100 %s\n", r.Country, r.OverallScore, status)
	for _, issue := range r.Issues() {
		fmt.Fprintf(w, "  %s %s\n", severityLabel(issue.Severity), issue.Message)
		if issue.Remedy != "" {
			muted.Fprintf(w, "      %s\n", issue.Remedy)
		}
	}
}

func severityLabel(s models.Severity) string {
	switch s {
	case models.SeverityCritical:
		return critical.Sprint("CRITICAL")
	case models.SeverityWarning:
		return warning.Sprint("WARNING ")
	default:
		return muted.Sprint("INFO    ")
	}
}

func validateTransitionCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate-transition <candidate-id> <target-stage>",
		Short: "Check whether a candidate may move to a stage",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := models.ParseStage(args[1])
			if err != nil {
				return err
			}
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			store, err := opts.store()
			if err != nil {
				return err
			}
			c, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			result, err := engine.ValidateTransition(c, target)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, result)
			}
			printValidation(out, c.Stage, target, result)
			return nil
		},
	}
}

func printValidation(w io.Writer, from, to models.Stage, r workflow.ValidationResult) {
	if r.Allowed {
		fmt.Fprintf(w, "%s %s -> %s\n", good.Sprint("ALLOWED"), from, to)
		return
	}
	fmt.Fprintf(w, "%s %s -> %s: %s\n", critical.Sprint("BLOCKED"), from, to, r.Reason)
	for _, b := range r.Blockers {
		fmt.Fprintf(w, "  - %s\n", b)
	}
}

func slaCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sla [candidate-id...]",
		Short: "Show time spent in the current stage against its SLA",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			store, ids, err := opts.candidates(cmd.Context(), args)
			if err != nil {
				return err
			}

			reports := make([]workflow.SLAReport, 0, len(ids))
			for _, id := range ids {
				c, err := store.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				r, err := engine.SLAStatus(c)
				if err != nil {
					return fmt.Errorf("candidate %s: %w", id, err)
				}
				reports = append(reports, r)
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, reports)
			}
			for _, r := range reports {
				limit := "no limit"
				if r.LimitDays > 0 {
					limit = fmt.Sprintf("%d/%d days", r.DaysInStage, r.LimitDays)
				}
				fmt.Fprintf(out, "%-12s %-16s %-12s %s\n", r.CandidateID, r.Stage, limit, slaLabel(r.Level))
			}
			return nil
		},
	}
}

func slaLabel(l workflow.SLALevel) string {
	switch l {
	case workflow.SLACritical:
		return critical.Sprint(strings.ToUpper(string(l)))
	case workflow.SLAWarning:
		return warning.Sprint(strings.ToUpper(string(l)))
	default:
		return good.Sprint(strings.ToUpper(string(l)))
	}
}
