package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/stickylist/internal/apperror"
	"github.com/nhle/stickylist/internal/model"
	appsync "github.com/nhle/stickylist/internal/sync"
)

// pullCmd warms the local copy for offline use
var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download every checklist and its tasks to this device",
	Long: `Loads all checklists and then the tasks of each checklist, saving them to
the local copy so they are available offline. Changes kept on this device
are not uploaded.`,
	Args: cobra.NoArgs,
	RunE: runPull,
}

// cacheCmd inspects the local copy
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the copy saved on this device",
}

var cacheLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List saved collections",
	Args:  cobra.NoArgs,
	RunE:  runCacheLs,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every saved collection",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

// configCmd manages the configuration file
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:         "init",
	Short:       "Write the effective configuration to the config file",
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipServices: "true"},
	RunE:        runConfigInit,
}

var overwriteConfig bool

func init() {
	cacheClearCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Clear without asking")
	configInitCmd.Flags().BoolVar(&overwriteConfig, "force", false, "Overwrite an existing file")

	cacheCmd.AddCommand(cacheLsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	configCmd.AddCommand(configInitCmd)
}

func runPull(cmd *cobra.Command, args []string) error {
	if err := requireSession(); err != nil {
		return err
	}

	report, err := appsync.Prefetch(cmd.Context(), svc.Collections, cfg.Sync.PrefetchConcurrency)
	if err != nil {
		return err
	}
	if report.Checklists.Source != appsync.SourceRemote {
		return apperror.RemoteUnavailable("pull", fmt.Errorf("checklists loaded from %s", report.Checklists.Source))
	}

	fmt.Printf("Saved %d checklists and the tasks of %d.\n", report.Checklists.Count, len(report.Tasks))
	if len(report.Failed) > 0 {
		ids := make([]string, 0, len(report.Failed))
		for id := range report.Failed {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", id, apperror.UserMessage(report.Failed[id]))
		}
	}
	return nil
}

func runCacheLs(cmd *cobra.Command, args []string) error {
	entries, err := svc.Mirror.Entries(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("Nothing saved on this device.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tITEMS\tUPDATED")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%s\n", e.Key, e.ItemCount, e.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	if !assumeYes {
		confirmed, err := confirmDelete("Remove everything saved on this device?")
		if err != nil || !confirmed {
			return err
		}
	}
	if err := svc.ClearCache(cmd.Context()); err != nil {
		return err
	}
	fmt.Println("Cleared.")
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configPath); err == nil && !overwriteConfig {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}
	if err := model.SaveConfig(configPath, cfg); err != nil {
		return err
	}
	fmt.Println("Wrote", configPath)
	return nil
}
