package cmd

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/psantana5/procbox/pkg/task"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List tasks registered in this binary",
	RunE:  listTasks,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}

func listTasks(cmd *cobra.Command, args []string) error {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Task", "Description")

	for _, name := range task.Names() {
		table.Append(name, task.Description(name))
	}

	table.Render()
	return nil
}
