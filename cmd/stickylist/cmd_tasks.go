package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/stickylist/internal/apperror"
	"github.com/nhle/stickylist/internal/model"
	appsync "github.com/nhle/stickylist/internal/sync"
)

// tasksCmd is the parent command for the tasks of one checklist
var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage the sticky-note tasks of a checklist",
}

var tasksLsCmd = &cobra.Command{
	Use:   "ls <checklist-id>",
	Short: "List tasks, pinned first",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksLs,
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <checklist-id> <text>",
	Short: "Add a task",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runTasksAdd,
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done <checklist-id> <task-id>",
	Short: "Toggle a task's completed flag",
	Args:  cobra.ExactArgs(2),
	RunE:  runTasksDone,
}

var tasksPinCmd = &cobra.Command{
	Use:   "pin <checklist-id> <task-id>",
	Short: "Toggle a task's pinned flag",
	Args:  cobra.ExactArgs(2),
	RunE:  runTasksPin,
}

var tasksRmCmd = &cobra.Command{
	Use:   "rm <checklist-id> <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(2),
	RunE:  runTasksRm,
}

var taskColor string

func init() {
	tasksLsCmd.Flags().StringVar(&searchQuery, "search", "", "Only show tasks whose text contains this text")
	tasksAddCmd.Flags().StringVar(&taskColor, "color", "", "Note color: orange, blue, gray, green or red")
	tasksRmCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking")

	tasksCmd.AddCommand(tasksLsCmd)
	tasksCmd.AddCommand(tasksAddCmd)
	tasksCmd.AddCommand(tasksDoneCmd)
	tasksCmd.AddCommand(tasksPinCmd)
	tasksCmd.AddCommand(tasksRmCmd)
}

func openBoard(cmd *cobra.Command, checklistID string) (*appsync.TaskBoard, error) {
	if err := requireSession(); err != nil {
		return nil, err
	}
	b := svc.Collections.Tasks(checklistID)
	res, err := b.Load(cmd.Context())
	if err != nil {
		b.Close()
		return nil, err
	}
	reportSource(res)
	return b, nil
}

func runTasksLs(cmd *cobra.Command, args []string) error {
	b, err := openBoard(cmd, args[0])
	if err != nil {
		return err
	}
	defer b.Close()

	tasks := model.PinnedFirst(b.Search(searchQuery))
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDONE\tPIN\tCOLOR\tTEXT")
	for _, t := range tasks {
		text := t.Text
		if t.IsLocal() {
			text += " (not synced)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, mark(t.Completed, "x"), mark(t.Pinned, "*"), t.Color.Name(), text)
	}
	return w.Flush()
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	colorName := taskColor
	if colorName == "" {
		colorName = cfg.Display.DefaultColor
	}
	color, err := model.ParseColor(colorName)
	if err != nil {
		return apperror.ValidationFailed("color", err.Error())
	}

	b, err := openBoard(cmd, args[0])
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := b.Add(cmd.Context(), strings.Join(args[1:], " "), color)
	if err := reportMutation(res.State, res.Notice, err); err != nil {
		return err
	}
	fmt.Println(res.Item.ID)
	return nil
}

func runTasksDone(cmd *cobra.Command, args []string) error {
	return toggleTask(cmd, args, (*appsync.TaskBoard).ToggleCompleted)
}

func runTasksPin(cmd *cobra.Command, args []string) error {
	return toggleTask(cmd, args, (*appsync.TaskBoard).TogglePinned)
}

type toggleFunc func(*appsync.TaskBoard, context.Context, string) (appsync.MutationResult[model.Task], error)

func toggleTask(cmd *cobra.Command, args []string, toggle toggleFunc) error {
	b, err := openBoard(cmd, args[0])
	if err != nil {
		return err
	}
	defer b.Close()

	res, err := toggle(b, cmd.Context(), args[1])
	if err := reportMutation(res.State, res.Notice, err); err != nil {
		return err
	}
	t := res.Item
	fmt.Printf("%s  done=%t pinned=%t\n", t.Text, t.Completed, t.Pinned)
	return nil
}

func runTasksRm(cmd *cobra.Command, args []string) error {
	b, err := openBoard(cmd, args[0])
	if err != nil {
		return err
	}
	defer b.Close()

	id := args[1]
	t, ok := b.Get(id)
	if !ok {
		return apperror.NotFound("task", id)
	}

	if !assumeYes {
		confirmed, err := confirmDelete(fmt.Sprintf("Delete task %q?", t.Text))
		if err != nil || !confirmed {
			return err
		}
	}

	if _, err := b.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

func mark(on bool, symbol string) string {
	if on {
		return symbol
	}
	return "-"
}
