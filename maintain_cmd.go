package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var maintainCmd = &cobra.Command{
	Use:   "maintain",
	Short: "Drop expired artifacts and sweep strays",
	Long: paragraph(
		"\nRemoves artifacts past their time-to-live, deletes files the index does not know about, and evicts oldest artifacts if the cache has grown past its ceiling."),
	Args: cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		m, err := buildCache()
		if err != nil {
			return err
		}
		defer m.Close() //nolint:errcheck

		before := m.Statistics()
		if err := m.Maintain(); err != nil {
			return fmt.Errorf("maintenance failed: %w", err)
		}
		after := m.Statistics()

		freed := before.TotalSize - after.TotalSize
		if freed < 0 {
			freed = 0
		}
		fmt.Println(heading(fmt.Sprintf("dropped %d artifacts", before.Items-after.Items)))
		fmt.Println(subtle(fmt.Sprintf("freed=%s remaining=%d size=%s",
			humanize.Bytes(uint64(freed)), after.Items, humanize.Bytes(uint64(after.TotalSize)))))
		return nil
	},
}
