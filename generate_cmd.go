package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/chime/internal/audio"
	"github.com/dgnsrekt/chime/pipeline"
)

var (
	generateTone    string
	generateContext []string
	generateID      string
	generatePlay    bool
	generateCopy    bool
	generateShow    bool

	generateCmd = &cobra.Command{
		Use:     "generate <goal>",
		Aliases: []string{"gen"},
		Short:   "Generate a spoken clip for a goal, or fetch it from cache",
		Long: paragraph(fmt.Sprintf(
			"\n%s a clip. The first run writes the script and synthesizes audio; identical runs afterwards come straight from the cache.",
			keyword("Generate"))),
		Example: paragraph("chime generate \"drink more water\" --tone energetic --play\nchime generate \"stand up and stretch\" --context time=14:00 --show-script"),
		Args:    cobra.MinimumNArgs(1),
		RunE:    runGenerate,
	}
)

func runGenerate(cmd *cobra.Command, args []string) error {
	extra, err := parseContext(generateContext)
	if err != nil {
		return err
	}

	p, err := buildPipeline()
	if err != nil {
		return err
	}
	defer p.Close() //nolint:errcheck

	req := pipeline.Request{
		ID:      generateID,
		Goal:    strings.Join(args, " "),
		Tone:    generateTone,
		Context: extra,
	}

	res, err := p.GetOrGenerate(cmd.Context(), req)
	if err != nil {
		return err
	}

	source := "cache"
	if !res.FromCache {
		source = "fresh"
	}
	fmt.Println(heading(res.AudioPath))
	fmt.Println(subtle(fmt.Sprintf("source=%s voice=%s duration=%s generated=%s",
		source, res.Voice, res.Duration.Round(time.Millisecond), humanize.Time(res.GeneratedAt))))

	if generateShow {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrapAt),
		)
		if err != nil {
			return fmt.Errorf("unable to create renderer: %w", err)
		}
		out, err := r.Render("> " + res.Script)
		if err != nil {
			return fmt.Errorf("unable to render script: %w", err)
		}
		fmt.Print(out)
	}

	if generateCopy {
		if err := clipboard.WriteAll(res.AudioPath); err != nil {
			return fmt.Errorf("unable to copy path to clipboard: %w", err)
		}
		fmt.Println(subtle("artifact path copied to clipboard"))
	}

	if generatePlay {
		data, err := os.ReadFile(res.AudioPath)
		if err != nil {
			return fmt.Errorf("unable to read artifact: %w", err)
		}
		if err := audio.NewPlayer().Play(cmd.Context(), data); err != nil {
			return fmt.Errorf("unable to play artifact: %w", err)
		}
	}
	return nil
}

// parseContext turns repeated key=value flags into the request context map.
func parseContext(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	extra := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("context must be key=value, got %q", pair)
		}
		extra[k] = v
	}
	return extra, nil
}

func init() {
	generateCmd.Flags().StringVarP(&generateTone, "tone", "t", "", "tone of the message (picks the voice, e.g. energetic, calm)")
	generateCmd.Flags().StringArrayVarP(&generateContext, "context", "c", nil, "extra context as key=value (repeatable)")
	generateCmd.Flags().StringVar(&generateID, "id", "cli", "stable request id; equal ids with equal text share a cache slot")
	generateCmd.Flags().BoolVarP(&generatePlay, "play", "p", false, "play the clip after generating")
	generateCmd.Flags().BoolVar(&generateCopy, "copy", false, "copy the artifact path to the clipboard")
	generateCmd.Flags().BoolVarP(&generateShow, "show-script", "s", false, "print the generated script")
}
