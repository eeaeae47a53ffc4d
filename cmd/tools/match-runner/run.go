package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"advisor-match-workers/internal/common/logger"
	"advisor-match-workers/internal/matcher"
	"advisor-match-workers/internal/models"
)

var (
	fixturePath string
	jsonOutput  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Match the students of a fixture against its advisors",
	RunE: func(cmd *cobra.Command, _ []string) error {
		level := "warn"
		if debug {
			level = "debug"
		}
		zapLog := logger.New(level, logFormat, "stderr")
		defer zapLog.Sync()

		zapLog.Debug("starting", zap.String("version", version), zap.String("fixture", fixturePath))

		f, err := loadFixture(fixturePath)
		if err != nil {
			return err
		}
		return run(cmd.OutOrStdout(), f, logger.NewZapAdapter(zapLog), jsonOutput)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&fixturePath, "fixture", "f", "", "YAML or JSON file with students and advisors")
	runCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the report as JSON")
	_ = runCmd.MarkFlagRequired("fixture")
}

// run matches f and writes the report. The fixture's advisors carry the loads
// after matching once run returns.
func run(w io.Writer, f *Fixture, log logger.Logger, asJSON bool) error {
	r := report{Before: make([]models.Advisor, len(f.Advisors))}
	copy(r.Before, f.Advisors)
	for i := range r.Before {
		r.Before[i].ResearchFocus = append([]string(nil), f.Advisors[i].ResearchFocus...)
	}

	r.Results = matcher.New(matcher.WithLogger(log)).Match(f.Students, f.Advisors)
	r.After = f.Advisors

	if asJSON {
		return writeJSON(w, r)
	}
	if err := writeText(w, r); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
