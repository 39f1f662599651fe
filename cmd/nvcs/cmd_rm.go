package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRmCmd() *cobra.Command {
	var cached bool

	cmd := &cobra.Command{
		Use:   "rm [--cached] <files...>",
		Short: "Unstage files and delete them from the working tree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			rels := make([]string, 0, len(args))
			for _, a := range args {
				rel, err := r.RelPath(worktreePath(r, a))
				if err != nil {
					return err
				}
				rels = append(rels, rel)
			}
			if err := r.Remove(rels); err != nil {
				return err
			}
			if cached {
				return nil
			}
			for _, a := range args {
				if err := os.Remove(worktreePath(r, a)); err != nil && !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("rm %s: %w", a, err)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&cached, "cached", false, "remove from index only, keep files on disk")
	return cmd
}

func newRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore [paths...]",
		Short: "Reset index entries to their HEAD versions",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := openRepo(cmd)
			if err != nil {
				return err
			}
			return r.RestorePaths(args)
		},
	}
}
