package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every cached artifact",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		m, err := buildCache()
		if err != nil {
			return err
		}
		defer m.Close() //nolint:errcheck

		before := m.Statistics()
		if err := m.Clear(); err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}
		fmt.Println(heading(fmt.Sprintf("cleared %d artifacts (%s)",
			before.Items, humanize.Bytes(uint64(before.TotalSize)))))
		return nil
	},
}
