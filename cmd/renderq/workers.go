package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var workersCmd = &cobra.Command{
	Use:   "workers",
	Short: "List registered workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		workers, err := newClient(cmd).ListWorkers(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("%-36s %-20s %-10s %-20s %s\n", "ID", "NAME", "STATUS", "POOLS", "CURRENT TASK")
		for _, w := range workers {
			fmt.Printf("%-36s %-20s %-10s %-20s %s\n", w.ID, w.Name, w.Status, strings.Join(w.Pools, ","), w.CurrentTask)
		}
		return nil
	},
}
