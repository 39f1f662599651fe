package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <files...>",
		Short: "Stage files for the next commit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			files, err := collectFiles(r, args)
			if err != nil {
				return err
			}
			for _, f := range files {
				rel, err := r.RelPath(f)
				if err != nil {
					return err
				}
				info, err := os.Stat(f)
				if err != nil {
					return fmt.Errorf("add %s: %w", rel, err)
				}
				data, err := os.ReadFile(f)
				if err != nil {
					return fmt.Errorf("add %s: %w", rel, err)
				}
				if _, err := r.Stage(rel, data, info.ModTime()); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
