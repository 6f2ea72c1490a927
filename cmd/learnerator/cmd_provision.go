package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jasonlam510/Learnerator/internal/provision"
)

var (
	provisionGroup string
	provisionRefs  []string
)

// provisionCmd runs one provision call against the browser substrate.
var provisionCmd = &cobra.Command{
	Use:   "provision --group NAME --ref URL [--ref URL...]",
	Short: "Open URLs as tabs and aggregate them into a named group",
	Long: `Provision creates one tab per URL in order, groups them under the given
name, verifies the group, and activates the first tab. Failures are
reported with every handle created so far; nothing is rolled back
automatically.`,
	RunE: runProvision,
}

func runProvision(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	mgr := newManager()
	defer mgr.Shutdown(ctx)

	req := provision.Request{
		GroupName:    provisionGroup,
		ResourceRefs: provisionRefs,
	}
	result := newProvisioner(mgr).Provision(ctx, req)

	recordResult(ctx, req, result)
	printResult(result)

	if !result.Succeeded() {
		return fmt.Errorf("provision failed: %s", result.FailureReason)
	}
	return nil
}

// recordResult writes the outcome to the ledger. Validation failures made
// no substrate calls and leave nothing worth tracking. A ledger error never
// fails the command; the provision already happened.
func recordResult(ctx context.Context, req provision.Request, res *provision.Result) {
	if res.Outcome == provision.OutcomeValidationFailure {
		return
	}
	store, err := openLedger()
	if err != nil {
		logger.Warn("ledger unavailable, outcome not recorded", zap.Error(err))
		return
	}
	defer store.Close()

	id, err := store.Record(ctx, req, res)
	if err != nil {
		logger.Warn("ledger record failed", zap.Error(err))
		return
	}
	fmt.Printf("Ledger:  %s\n", id)
}

func printResult(res *provision.Result) {
	fmt.Printf("Outcome: %s\n", res.Outcome)
	switch res.Outcome {
	case provision.OutcomeSuccess:
		fmt.Printf("Group:   %s (%q)\n", res.GroupHandle, res.GroupTitle)
	case provision.OutcomeCapabilityUnavailable:
		missing := make([]string, 0, len(res.MissingCapabilities))
		for _, c := range res.MissingCapabilities {
			missing = append(missing, string(c))
		}
		fmt.Printf("Missing: %s\n", strings.Join(missing, ", "))
	case provision.OutcomeTitlingFailure:
		fmt.Printf("Group:   %s (untitled)\n", res.GroupHandle)
	}
	if res.FailureReason != "" {
		fmt.Printf("Reason:  %s\n", res.FailureReason)
	}
	if len(res.ResourceHandles) > 0 {
		fmt.Printf("Tabs (%d):\n", len(res.ResourceHandles))
		for i, h := range res.ResourceHandles {
			fmt.Printf("  %d. %s\n", i+1, h)
		}
	}
	for _, w := range res.Warnings {
		fmt.Printf("Warning: %s\n", w)
	}
}

func init() {
	provisionCmd.Flags().StringVarP(&provisionGroup, "group", "g", "", "Group display name")
	provisionCmd.Flags().StringArrayVarP(&provisionRefs, "ref", "r", nil, "Resource URL (repeatable, ordered)")
	rootCmd.AddCommand(provisionCmd)
}
