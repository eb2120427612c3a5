package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ChenxingM/RenderQ/pkg/client"
	"github.com/ChenxingM/RenderQ/pkg/types"
)

var submitCmd = &cobra.Command{
	Use:   "submit <name> <plugin>",
	Short: "Submit a new job",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pool, _ := cmd.Flags().GetString("pool")
		priority, _ := cmd.Flags().GetInt("priority")
		dataFlag, _ := cmd.Flags().GetString("data")

		pluginData := map[string]any{}
		if dataFlag != "" {
			if err := json.Unmarshal([]byte(dataFlag), &pluginData); err != nil {
				return fmt.Errorf("--data is not valid JSON: %w", err)
			}
		}

		var priorityPtr *int
		if cmd.Flags().Changed("priority") {
			priorityPtr = &priority
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		job, err := newClient(cmd).SubmitJob(ctx, client.SubmitJobRequest{
			Name:       args[0],
			Plugin:     args[1],
			Pool:       pool,
			Priority:   priorityPtr,
			PluginData: pluginData,
		})
		if err != nil {
			return err
		}
		fmt.Printf("job submitted: %s (%s)\n", job.ID, job.Status)
		return nil
	},
}

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		jobs, err := newClient(cmd).ListJobs(ctx, types.JobStatus(status), limit, 0)
		if err != nil {
			return err
		}

		fmt.Printf("%-36s %-20s %-10s %-8s %s\n", "ID", "NAME", "STATUS", "PRIORITY", "PROGRESS")
		for _, job := range jobs {
			fmt.Printf("%-36s %-20s %-10s %-8d %.0f%%\n", job.ID, job.Name, job.Status, job.Priority, job.Progress)
		}
		return nil
	},
}

var jobCmd = &cobra.Command{
	Use:   "job <id>",
	Short: "Show a job's details and tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		c := newClient(cmd)
		job, err := c.GetJob(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ID:       %s\n", job.ID)
		fmt.Printf("Name:     %s\n", job.Name)
		fmt.Printf("Plugin:   %s\n", job.Plugin)
		fmt.Printf("Status:   %s\n", job.Status)
		fmt.Printf("Progress: %.0f%%\n", job.Progress)
		fmt.Printf("Tasks:    %d done, %d failed, %d total\n", job.TaskDone, job.TaskFailed, job.TaskTotal)

		tasks, err := c.GetJobTasks(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Printf("%-36s %-6s %-10s %-8s %s\n", "TASK ID", "INDEX", "STATUS", "PROGRESS", "WORKER")
		for _, task := range tasks {
			fmt.Printf("%-36s %-6d %-10s %-8.0f %s\n", task.ID, task.Index, task.Status, task.Progress, task.AssignedWorker)
		}
		return nil
	},
}

func jobActionCmd(use, short string, action func(*client.Client, context.Context, string) (*types.Job, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			job, err := action(newClient(cmd), ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Printf("job %s is now %s\n", job.ID, job.Status)
			return nil
		},
	}
}

var cancelCmd = jobActionCmd("cancel", "Cancel a job", (*client.Client).CancelJob)
var suspendCmd = jobActionCmd("suspend", "Suspend a job", (*client.Client).SuspendJob)
var resumeCmd = jobActionCmd("resume", "Resume a suspended job", (*client.Client).ResumeJob)
var retryCmd = jobActionCmd("retry", "Retry a failed job's failed tasks", (*client.Client).RetryJob)

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a terminal job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := newClient(cmd).DeleteJob(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("job %s deleted\n", args[0])
		return nil
	},
}

func init() {
	submitCmd.Flags().String("pool", "", "Restrict tasks to workers in this pool")
	submitCmd.Flags().Int("priority", 0, "Job priority, higher dispatches first")
	submitCmd.Flags().String("data", "", "Plugin parameters as a JSON object")

	jobsCmd.Flags().String("status", "", "Filter by job status")
	jobsCmd.Flags().Int("limit", 0, "Maximum number of jobs to return")
}
