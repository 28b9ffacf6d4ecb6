package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/stickylist/internal/apperror"
	"github.com/nhle/stickylist/internal/model"
	appsync "github.com/nhle/stickylist/internal/sync"
)

// checklistsCmd is the parent command for checklist management
var checklistsCmd = &cobra.Command{
	Use:     "checklists",
	Aliases: []string{"cl"},
	Short:   "List, create and delete checklists",
}

var checklistsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List checklists",
	Args:  cobra.NoArgs,
	RunE:  runChecklistsLs,
}

var checklistsAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a checklist",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runChecklistsAdd,
}

var checklistsRmCmd = &cobra.Command{
	Use:   "rm <checklist-id>",
	Short: "Delete a checklist",
	Long: `Deletes a checklist on the server. Deleting needs a connection; when the
server cannot be reached the checklist is kept.`,
	Args: cobra.ExactArgs(1),
	RunE: runChecklistsRm,
}

var (
	searchQuery string
	assumeYes   bool
)

func init() {
	checklistsLsCmd.Flags().StringVar(&searchQuery, "search", "", "Only show checklists whose title contains this text")
	checklistsRmCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking")

	checklistsCmd.AddCommand(checklistsLsCmd)
	checklistsCmd.AddCommand(checklistsAddCmd)
	checklistsCmd.AddCommand(checklistsRmCmd)
}

// openChecklists opens and loads the checklist collection. Mutations need
// the loaded working set, since every change rewrites the whole snapshot.
func openChecklists(cmd *cobra.Command) (*appsync.ChecklistSet, error) {
	if err := requireSession(); err != nil {
		return nil, err
	}
	set := svc.Collections.Checklists()
	res, err := set.Load(cmd.Context())
	if err != nil {
		set.Close()
		return nil, err
	}
	reportSource(res)
	return set, nil
}

func runChecklistsLs(cmd *cobra.Command, args []string) error {
	set, err := openChecklists(cmd)
	if err != nil {
		return err
	}
	defer set.Close()

	items := set.Search(searchQuery)
	if len(items) == 0 {
		fmt.Println("No checklists.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tTASKS\tCREATED")
	for _, c := range items {
		title := c.Title
		if c.IsLocal() {
			title += " (not synced)"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", c.ID, title, c.TaskCount, formatDate(c))
	}
	return w.Flush()
}

func runChecklistsAdd(cmd *cobra.Command, args []string) error {
	set, err := openChecklists(cmd)
	if err != nil {
		return err
	}
	defer set.Close()

	res, err := set.Add(cmd.Context(), strings.Join(args, " "))
	if err := reportMutation(res.State, res.Notice, err); err != nil {
		return err
	}
	fmt.Println(res.Item.ID)
	return nil
}

func runChecklistsRm(cmd *cobra.Command, args []string) error {
	set, err := openChecklists(cmd)
	if err != nil {
		return err
	}
	defer set.Close()

	id := args[0]
	c, ok := set.Get(id)
	if !ok {
		return apperror.NotFound("checklist", id)
	}

	if !assumeYes {
		confirmed, err := confirmDelete(fmt.Sprintf("Delete checklist %q?", c.Title))
		if err != nil || !confirmed {
			return err
		}
	}

	if _, err := set.Delete(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Println("Deleted.")
	return nil
}

func confirmDelete(title string) (bool, error) {
	var confirmed bool
	err := huh.NewConfirm().
		Title(title).
		Affirmative("Yes, delete").
		Negative("Cancel").
		Value(&confirmed).
		Run()
	if err != nil {
		return false, err
	}
	return confirmed, nil
}

// reportSource tells the user when the listing comes from the local copy.
func reportSource(res appsync.LoadResult) {
	if res.Source == appsync.SourceMirror {
		fmt.Fprintln(os.Stderr, "Offline: showing the copy saved on this device.")
	}
}

// reportMutation prints the notice of a mutation. A change kept on this
// device after a server failure is a warning; anything else is returned.
func reportMutation(state appsync.MutationState, notice string, err error) error {
	if notice != "" {
		fmt.Fprintln(os.Stderr, notice)
	}
	if err == nil {
		return nil
	}
	if state == appsync.Kept && !apperror.IsAuthExpired(err) {
		fmt.Fprintln(os.Stderr, "Warning:", apperror.UserMessage(err))
		return nil
	}
	return err
}

func formatDate(c model.Checklist) string {
	if c.CreatedAt.IsZero() {
		return "-"
	}
	return c.CreatedAt.Local().Format("2006-01-02")
}
