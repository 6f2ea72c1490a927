package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jasonlam510/Learnerator/internal/ledger"
)

var groupsPartialOnly bool

// groupsCmd inspects recorded provision outcomes.
var groupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "Inspect provisioned groups",
	RunE:  runGroupsList,
}

var groupsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded provision calls",
	RunE:  runGroupsList,
}

var groupsShowCmd = &cobra.Command{
	Use:   "show <ledger-id>",
	Short: "Show one recorded provision call",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupsShow,
}

var groupsForgetCmd = &cobra.Command{
	Use:   "forget <ledger-id>",
	Short: "Remove a provision record from the ledger",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupsForget,
}

func runGroupsList(cmd *cobra.Command, args []string) error {
	store, err := openLedger()
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	var entries []ledger.Entry
	if groupsPartialOnly {
		entries, err = store.Partials(ctx)
	} else {
		entries, err = store.List(ctx, 50)
	}
	if err != nil {
		return fmt.Errorf("list ledger: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("No recorded provisions.")
		return nil
	}

	fmt.Println("Recorded provisions:")
	fmt.Println(strings.Repeat("-", 50))
	for _, e := range entries {
		fmt.Printf("  %s  %-25s %s (%d tabs)\n", e.ID, e.Outcome, e.GroupName, e.ResourceCount)
	}
	fmt.Printf("Total: %d\n", len(entries))
	return nil
}

func runGroupsShow(cmd *cobra.Command, args []string) error {
	store, err := openLedger()
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	entry, err := store.Get(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Group:    %s\n", entry.GroupName)
	fmt.Printf("Outcome:  %s\n", entry.Outcome)
	if entry.GroupHandle != "" {
		fmt.Printf("Handle:   %s\n", entry.GroupHandle)
	}
	if entry.FailureReason != "" {
		fmt.Printf("Reason:   %s\n", entry.FailureReason)
	}
	fmt.Printf("Recorded: %s\n", entry.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Println("Resources:")
	for _, r := range entry.Resources {
		handle := r.Handle
		if handle == "" {
			handle = "(not created)"
		}
		fmt.Printf("  %d. %s -> %s\n", r.Index+1, r.Ref, handle)
	}

	// Best effort: when the group registry still knows this group, show its
	// current membership alongside the recorded one.
	if entry.GroupHandle != "" {
		mgr := newManager()
		defer mgr.Shutdown(ctx)
		if members, qErr := mgr.QueryResourcesByGroup(ctx, entry.GroupHandle); qErr == nil {
			fmt.Printf("Registry members now: %d\n", len(members))
		} else {
			logger.Debug("group not in registry", zap.Error(qErr))
		}
	}
	return nil
}

func runGroupsForget(cmd *cobra.Command, args []string) error {
	store, err := openLedger()
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	if err := store.Delete(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Printf("Forgot %s.\n", args[0])
	return nil
}

func init() {
	groupsListCmd.Flags().BoolVar(&groupsPartialOnly, "partial", false, "Only show partial failures")
	groupsCmd.AddCommand(groupsListCmd, groupsShowCmd, groupsForgetCmd)
	rootCmd.AddCommand(groupsCmd)
}
