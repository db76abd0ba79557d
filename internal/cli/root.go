// internal/cli/root.go

// Package cli implements recruitctl, an offline operator tool that runs the
// compliance and workflow rules against a candidates JSON export and
// maintains the activity registry.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"recruitment-workers/internal/common/database"
	"recruitment-workers/internal/compliance"
	"recruitment-workers/internal/rules"
	"recruitment-workers/internal/tasks"
	"recruitment-workers/internal/workflow"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	candidatesPath string
	rulesPath      string
	registryPath   string
	at             string
	jsonOutput     bool
	noColor        bool
}

var (
	critical = color.New(color.FgRed, color.Bold)
	warning  = color.New(color.FgYellow)
	good     = color.New(color.FgGreen)
	muted    = color.New(color.FgHiBlack)
	heading  = color.New(color.Bold)
)

// NewRootCmd builds the recruitctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "recruitctl",
		Short:         "Run recruitment compliance and workflow rules offline",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.candidatesPath, "candidates", "c", "candidates.json", "candidates JSON export")
	flags.StringVar(&opts.rulesPath, "rules", "", "country rules YAML (built-in table when empty)")
	flags.StringVar(&opts.registryPath, "registry", "configs/activity-registry.json", "activity registry file")
	flags.StringVar(&opts.at, "at", "", "evaluate as of this date (YYYY-MM-DD or RFC3339)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "print JSON instead of text")
	flags.BoolVar(&opts.noColor, "no-color", false, "disable coloured output")

	root.AddCommand(
		evaluateCmd(opts),
		validateTransitionCmd(opts),
		slaCmd(opts),
		workQueueCmd(opts),
		alertsCmd(opts),
		rulesCmd(opts),
		registryCmd(opts),
	)
	return root
}

func (o *options) clock() (func() time.Time, error) {
	if o.at == "" {
		return func() time.Time { return time.Now().UTC() }, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, o.at); err == nil {
			return func() time.Time { return t }, nil
		}
	}
	return nil, fmt.Errorf("--at %q: want YYYY-MM-DD or RFC3339", o.at)
}

func (o *options) countries() (rules.CountryTable, error) {
	if o.rulesPath == "" {
		return rules.DefaultCountryTable(), nil
	}
	return rules.LoadCountryTable(o.rulesPath)
}

func (o *options) engine() (*workflow.Engine, error) {
	now, err := o.clock()
	if err != nil {
		return nil, err
	}
	countries, err := o.countries()
	if err != nil {
		return nil, err
	}
	evaluator := compliance.NewEvaluator(countries, compliance.DefaultConfig(), compliance.WithClock(now))
	return workflow.NewEngine(workflow.DefaultRequirements(countries), evaluator, workflow.DefaultSLATable()), nil
}

func (o *options) generator() (*tasks.Generator, error) {
	engine, err := o.engine()
	if err != nil {
		return nil, err
	}
	return tasks.NewGenerator(engine, tasks.DefaultConfig()), nil
}

func (o *options) store() (*database.MemoryStore, error) {
	candidates, err := database.LoadCandidatesFile(o.candidatesPath)
	if err != nil {
		return nil, err
	}
	return database.NewMemoryStore(candidates...), nil
}

// candidates returns the ids to report on: the given ones, or every candidate in the export.
func (o *options) candidates(ctx context.Context, ids []string) (*database.MemoryStore, []string, error) {
	store, err := o.store()
	if err != nil {
		return nil, nil, err
	}
	if len(ids) > 0 {
		return store, ids, nil
	}
	all, err := store.List(ctx, database.ListFilter{})
	if err != nil {
		return nil, nil, err
	}
	for _, c := range all {
		ids = append(ids, c.ID)
	}
	return store, ids, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
