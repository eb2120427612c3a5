package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List registered plugins",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		infos, err := newClient(cmd).ListPlugins(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-15s %-20s %-10s %s\n", "NAME", "DISPLAY NAME", "VERSION", "DESCRIPTION")
		for _, p := range infos {
			fmt.Printf("%-15s %-20s %-10s %s\n", p.Name, p.DisplayName, p.Version, p.Description)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate job and worker counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		stats, err := newClient(cmd).Stats(ctx)
		if err != nil {
			return err
		}

		fmt.Println("Jobs:")
		for status, count := range stats.Jobs {
			fmt.Printf("  %-12s %d\n", status, count)
		}
		fmt.Println("Workers:")
		for status, count := range stats.Workers {
			fmt.Printf("  %-12s %d\n", status, count)
		}
		return nil
	},
}
