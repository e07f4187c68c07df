package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgnsrekt/chime/internal/cache"
	"github.com/dgnsrekt/chime/ui"
)

var (
	statsWatch bool

	statsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show cache occupancy and cached artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			m, err := buildCache()
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck

			if statsWatch {
				if _, err := ui.NewProgram(m).Run(); err != nil {
					return fmt.Errorf("unable to run dashboard: %w", err)
				}
				return nil
			}

			fmt.Print(renderStats(m.Statistics(), m.Entries()))
			return nil
		},
	}
)

func renderStats(stats cache.Statistics, arts []cache.Artifact) string {
	width := terminalWidth()

	var b strings.Builder
	b.WriteString(heading("cache") + "\n")
	line := func(label, value string) {
		fmt.Fprintf(&b, "  %s %s\n", subtle(fmt.Sprintf("%-12s", label)), value)
	}

	count := fmt.Sprintf("%d", stats.Items)
	if stats.Expired > 0 {
		count += subtle(fmt.Sprintf(" (%d expired)", stats.Expired))
	}
	line("artifacts", count)
	line("size", fmt.Sprintf("%s of %s",
		humanize.Bytes(uint64(stats.TotalSize)), humanize.Bytes(uint64(stats.MaxSize))))
	if stats.Items > 0 {
		line("average", humanize.Bytes(uint64(stats.AverageSize)))
		line("oldest", humanize.Time(stats.Oldest))
		line("newest", humanize.Time(stats.Newest))
	}
	line("disk free", humanize.Bytes(stats.FreeDisk))
	if stats.LastMaintenance.IsZero() {
		line("maintained", "never")
	} else {
		line("maintained", humanize.Time(stats.LastMaintenance))
	}
	if stats.Requests > 0 {
		line("hit rate", fmt.Sprintf("%.0f%% (%d of %d)", stats.HitRate*100, stats.Hits, stats.Requests))
	}

	if len(arts) == 0 {
		return b.String()
	}

	b.WriteString("\n" + heading("artifacts") + "\n")
	const shown = 10
	for i, art := range arts {
		if i == shown {
			b.WriteString(subtle(fmt.Sprintf("  and %d more\n", len(arts)-shown)))
			break
		}
		row := fmt.Sprintf("  %-22s %-10s %6s  %8s  %s",
			truncate.StringWithTail(art.Key, 20, "…"), art.Voice,
			art.Duration.Round(100*time.Millisecond),
			humanize.Bytes(uint64(art.Size)), humanize.Time(art.CreatedAt))
		b.WriteString(truncate.String(row, uint(width)) + "\n")
	}
	return b.String()
}

// terminalWidth mirrors what the live dashboard gets from its window size
// message, capped the same way.
func terminalWidth() int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return wrapAt
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return wrapAt
	}
	if w > 120 {
		w = 120
	}
	return w
}

func init() {
	statsCmd.Flags().BoolVarP(&statsWatch, "watch", "w", false, "live dashboard, refreshed until quit")
}
