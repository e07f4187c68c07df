package main

import (
	"errors"
	"fmt"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/chime/pipeline"
)

var voicesCmd = &cobra.Command{
	Use:     "voices [query]",
	Short:   "List the voices the speech provider offers",
	Example: paragraph("chime voices\nchime voices rachel\nchime voices --offline"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		speech, err := speechProvider()
		if err != nil {
			return err
		}
		lister, ok := speech.(pipeline.VoiceLister)
		if !ok {
			return errors.New("the configured speech provider cannot list voices")
		}

		voices, err := lister.Voices(cmd.Context())
		if err != nil {
			return err
		}
		if len(args) == 1 {
			voices = filterVoices(voices, args[0])
		}
		if len(voices) == 0 {
			fmt.Println(subtle("no matching voices"))
			return nil
		}

		for _, v := range voices {
			fmt.Printf("%s %s\n", heading(fmt.Sprintf("%-16s", v.Name)), subtle(v.ID))
			if v.Description != "" {
				fmt.Println(paragraph(v.Description))
			}
		}
		return nil
	},
}

// filterVoices keeps fuzzy matches against name and id, best match first.
func filterVoices(voices []pipeline.Voice, query string) []pipeline.Voice {
	haystack := make([]string, len(voices))
	for i, v := range voices {
		haystack[i] = v.Name + " " + v.ID
	}
	matches := fuzzy.Find(query, haystack)
	out := make([]pipeline.Voice, 0, len(matches))
	for _, m := range matches {
		out = append(out, voices[m.Index])
	}
	return out
}
