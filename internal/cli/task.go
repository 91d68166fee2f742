package cli

import (
	"fmt"

	"github.com/billfold/billfold/internal/kanban"
	"github.com/billfold/billfold/internal/model"
	"github.com/spf13/cobra"
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage board tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks grouped by column",
	RunE:  runTaskList,
}

var taskAddCmd = &cobra.Command{
	Use:   "add [title]",
	Short: "Add a task to the board",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskAdd,
}

var taskDoneCmd = &cobra.Command{
	Use:   "done [id]",
	Short: "Toggle a task's done flag",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDone,
}

var taskMoveCmd = &cobra.Command{
	Use:   "move [id] [column]",
	Short: "Move a task to a column (pending, in-progress, completed)",
	Args:  cobra.ExactArgs(2),
	RunE:  runTaskMove,
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE:  runTaskDelete,
}

var taskDoneAllCmd = &cobra.Command{
	Use:   "done-all",
	Short: "Mark every task done",
	RunE:  runTaskDoneAll,
}

var taskClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every task on the board",
	RunE:  runTaskClear,
}

func init() {
	taskCmd.AddCommand(taskListCmd)
	taskCmd.AddCommand(taskAddCmd)
	taskCmd.AddCommand(taskDoneCmd)
	taskCmd.AddCommand(taskMoveCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskDoneAllCmd)
	taskCmd.AddCommand(taskClearCmd)

	taskAddCmd.Flags().String("desc", "", "Task description")
	taskAddCmd.Flags().String("priority", model.PriorityMedium, "Priority (low, medium, high)")
	taskAddCmd.Flags().String("column", model.StatusPending, "Starting column")
}

func loadBoard() (*kanban.Board, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	if !client.IsSignedIn() {
		return nil, fmt.Errorf("not signed in, run 'billfold auth login' first")
	}

	board := kanban.NewBoard(client, client.UserID())
	if err := board.Refresh(); err != nil {
		return nil, err
	}
	return board, nil
}

func runTaskList(cmd *cobra.Command, args []string) error {
	board, err := loadBoard()
	if err != nil {
		return err
	}

	columns := board.Columns()
	for _, id := range kanban.ColumnIDs {
		tasks := columns[id]
		fmt.Printf("%s (%d)\n", id, len(tasks))
		for _, t := range tasks {
			mark := " "
			if t.Done {
				mark = "x"
			}
			fmt.Printf("  [%s] %-40s %-8s %s\n", mark, clip(t.Title, 40), t.Priority, t.ID)
		}
		fmt.Println()
	}
	return nil
}

func runTaskAdd(cmd *cobra.Command, args []string) error {
	board, err := loadBoard()
	if err != nil {
		return err
	}

	opts := kanban.CreateOptions{}
	opts.Description, _ = cmd.Flags().GetString("desc")
	opts.Priority, _ = cmd.Flags().GetString("priority")
	opts.Status, _ = cmd.Flags().GetString("column")

	created, err := board.Create(args[0], opts)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Added task %s: %s\n", created.ID, created.Title)
	return nil
}

func runTaskDone(cmd *cobra.Command, args []string) error {
	board, err := loadBoard()
	if err != nil {
		return err
	}

	updated, err := board.ToggleDone(args[0])
	if err != nil {
		return err
	}

	if updated.Done {
		fmt.Printf("✅ Done: %s\n", updated.Title)
	} else {
		fmt.Printf("↩️  Reopened: %s\n", updated.Title)
	}
	return nil
}

func runTaskMove(cmd *cobra.Command, args []string) error {
	board, err := loadBoard()
	if err != nil {
		return err
	}

	updated, err := board.Move(args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Printf("✅ Moved %q to %s\n", updated.Title, updated.Column())
	return nil
}

func runTaskDelete(cmd *cobra.Command, args []string) error {
	board, err := loadBoard()
	if err != nil {
		return err
	}

	if err := board.Delete(args[0]); err != nil {
		return err
	}

	fmt.Println("✅ Task deleted")
	return nil
}

func runTaskDoneAll(cmd *cobra.Command, args []string) error {
	board, err := loadBoard()
	if err != nil {
		return err
	}

	if failed := board.MarkAllDone(); failed > 0 {
		fmt.Printf("⚠️  %d task(s) could not be updated\n", failed)
		return nil
	}

	fmt.Println("✅ All tasks marked done")
	return nil
}

func runTaskClear(cmd *cobra.Command, args []string) error {
	board, err := loadBoard()
	if err != nil {
		return err
	}

	if failed := board.ClearAll(); failed > 0 {
		fmt.Printf("⚠️  %d task(s) could not be deleted\n", failed)
		return nil
	}

	fmt.Println("✅ Board cleared")
	return nil
}
