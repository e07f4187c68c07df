package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/chime/pipeline"
)

var (
	prewarmFile    string
	prewarmWorkers int

	prewarmCmd = &cobra.Command{
		Use:   "prewarm",
		Short: "Pre-generate clips for upcoming scheduled requests",
		Long: paragraph(fmt.Sprintf(
			"\n%s clips for every request scheduled inside the pre-generation horizon, so alarms fire instantly even when the network is down. The schedule file is a JSON array of requests.",
			keyword("Pre-generate"))),
		Example: paragraph("chime prewarm --file alarms.json\nchime prewarm --file alarms.json --workers 8"),
		Args:    cobra.NoArgs,
		RunE:    runPrewarm,
	}
)

func runPrewarm(cmd *cobra.Command, _ []string) error {
	data, err := os.ReadFile(prewarmFile)
	if err != nil {
		return fmt.Errorf("unable to read schedule: %w", err)
	}
	var reqs []pipeline.Request
	if err := json.Unmarshal(data, &reqs); err != nil {
		return fmt.Errorf("unable to parse schedule: %w", err)
	}

	p, err := buildPipeline()
	if err != nil {
		return err
	}
	defer p.Close() //nolint:errcheck

	rep := p.Warm(cmd.Context(), reqs, prewarmWorkers)
	fmt.Println(heading(fmt.Sprintf("warmed %d of %d requests", rep.Warmed, rep.Requested)))
	fmt.Println(subtle(fmt.Sprintf("skipped=%d failed=%d took=%s",
		rep.Skipped, rep.Failed, rep.Took.Round(time.Millisecond))))
	if rep.Failed > 0 {
		return fmt.Errorf("%d of %d requests failed", rep.Failed, rep.Requested)
	}
	return nil
}

func init() {
	prewarmCmd.Flags().StringVarP(&prewarmFile, "file", "f", "", "JSON schedule of requests to warm (required)")
	prewarmCmd.Flags().IntVarP(&prewarmWorkers, "workers", "w", pipeline.DefaultWarmWorkers, "concurrent generations")
	_ = prewarmCmd.MarkFlagRequired("file")
}
