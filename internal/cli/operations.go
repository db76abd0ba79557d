// internal/cli/operations.go
package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"recruitment-workers/internal/common/database"
	"recruitment-workers/internal/models"
	"recruitment-workers/internal/rules"
	"recruitment-workers/internal/tasks"
)

func workQueueCmd(opts *options) *cobra.Command {
	var (
		stages []string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "work-queue",
		Short: "List the prioritized work queue for the export",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := database.ListFilter{}
			for _, s := range stages {
				stage, err := models.ParseStage(s)
				if err != nil {
					return err
				}
				filter.Stages = append(filter.Stages, stage)
			}
			generator, err := opts.generator()
			if err != nil {
				return err
			}
			store, err := opts.store()
			if err != nil {
				return err
			}
			candidates, err := store.List(cmd.Context(), filter)
			if err != nil {
				return err
			}
			queue, err := generator.GenerateWorkQueue(cmd.Context(), candidates)
			if err != nil {
				return err
			}
			if limit > 0 && len(queue) > limit {
				queue = queue[:limit]
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, queue)
			}
			printQueue(out, queue)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&stages, "stage", nil, "only candidates in these stages")
	cmd.Flags().IntVar(&limit, "limit", 0, "show at most this many tasks")
	return cmd
}

func printQueue(w io.Writer, queue []tasks.Task) {
	if len(queue) == 0 {
		good.Fprintln(w, "Work queue is empty")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, t := range queue {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", priorityLabel(t.Priority), t.CandidateID, t.Type, t.Title)
	}
	tw.Flush()
	muted.Fprintf(w, "%d task(s)\n", len(queue))
}

func priorityLabel(p tasks.Priority) string {
	switch p {
	case tasks.PriorityCritical:
		return critical.Sprint(p)
	case tasks.PriorityHigh:
		return warning.Sprint(p)
	default:
		return string(p)
	}
}

func alertsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "alerts",
		Short: "Summarize system alerts across the export",
		RunE: func(cmd *cobra.Command, args []string) error {
			generator, err := opts.generator()
			if err != nil {
				return err
			}
			store, err := opts.store()
			if err != nil {
				return err
			}
			candidates, err := store.List(cmd.Context(), database.ListFilter{})
			if err != nil {
				return err
			}
			alerts, err := generator.GenerateAlerts(candidates)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, alerts)
			}
			if len(alerts) == 0 {
				good.Fprintln(out, "No alerts")
				return nil
			}
			for _, a := range alerts {
				label := muted.Sprint("info")
				switch a.Type {
				case tasks.AlertLevelCritical:
					label = critical.Sprint("critical")
				case tasks.AlertLevelWarning:
					label = warning.Sprint("warning")
				}
				fmt.Fprintf(out, "[%s] %s: %s\n", label, a.Title, a.Message)
			}
			return nil
		},
	}
}

func rulesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rules [country...]",
		Short: "Print the country rule table",
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.countries()
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				names = table.Countries()
			}
			selected := make([]rules.CountryRule, 0, len(names))
			for _, n := range names {
				selected = append(selected, table.Lookup(n))
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(out, selected)
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "COUNTRY\tAGE\tPASSPORT\tPCC\tMEDICAL\tDOCUMENTS")
			for _, r := range selected {
				pcc := "-"
				if r.PCCRequired {
					pcc = "required"
					if r.PCCValidityDays > 0 {
						pcc = fmt.Sprintf("%dd", r.PCCValidityDays)
					}
				}
				docs := make([]string, len(r.MandatoryDocuments))
				for i, d := range r.MandatoryDocuments {
					docs[i] = string(d)
				}
				fmt.Fprintf(tw, "%s\t%d-%d\t%dm\t%s\t%t\t%s\n",
					r.Country, r.Age.Min, r.Age.Max, r.MinPassportValidityMonths, pcc, r.MedicalRequired, strings.Join(docs, ","))
			}
			return tw.Flush()
		},
	}
}
