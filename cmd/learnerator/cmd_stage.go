package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jasonlam510/Learnerator/internal/backend"
	"github.com/jasonlam510/Learnerator/internal/plan"
	"github.com/jasonlam510/Learnerator/internal/provision"
)

var (
	stageTopic string
	stageNum   int
)

// stageCmd groups the stage subcommands.
var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Work through learning plan stages",
}

// stageOpenCmd is the whole pipeline for one stage: fetch or generate the
// plan, discover resources for the stage, provision them as one tab group
// named after the stage, and mark the stage ongoing.
var stageOpenCmd = &cobra.Command{
	Use:   "open --topic TOPIC --stage N",
	Short: "Open a stage's learning resources as a tab group",
	RunE:  runStageOpen,
}

func runStageOpen(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, err := fetchOrGeneratePlan(ctx, stageTopic)
	if err != nil {
		return err
	}

	stage, err := p.Stage(stageNum)
	if err != nil {
		return err
	}
	fmt.Printf("Stage %d: %s\n", stageNum, stage.Header)

	f, err := newFinder()
	if err != nil {
		return fmt.Errorf("create finder: %w", err)
	}
	resources, err := f.FindResources(ctx, p.TopicName, stage.SearchTerms())
	if err != nil {
		return fmt.Errorf("find resources: %w", err)
	}
	if len(resources) == 0 {
		return fmt.Errorf("no resources found for stage %q", stage.Header)
	}

	refs := make([]string, len(resources))
	for i, r := range resources {
		refs[i] = r.URL
		fmt.Printf("  %d. [%s] %s\n", i+1, r.Kind, r.URL)
	}

	mgr := newManager()
	defer mgr.Shutdown(ctx)

	req := provision.Request{GroupName: stage.GroupName(), ResourceRefs: refs}
	result := newProvisioner(mgr).Provision(ctx, req)

	recordResult(ctx, req, result)
	printResult(result)

	if !result.Succeeded() {
		return fmt.Errorf("provision failed: %s", result.FailureReason)
	}

	// Best effort: an unsaved plan has no stage ids to update.
	if stage.ID != 0 {
		if err := newBackend().UpdateStageStatus(ctx, stage.ID, plan.StatusOngoing); err != nil {
			logger.Warn("stage status update failed",
				zap.Int("stage_id", stage.ID),
				zap.Error(err))
		} else {
			fmt.Printf("Stage %d marked ongoing.\n", stageNum)
		}
	}
	return nil
}

// fetchOrGeneratePlan prefers the stored plan and falls back to generating
// a fresh one when the backend has none.
func fetchOrGeneratePlan(ctx context.Context, topic string) (*plan.Plan, error) {
	p, err := newBackend().GetPlan(ctx, topic)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, backend.ErrPlanNotFound) {
		logger.Warn("backend unavailable, generating a fresh plan", zap.Error(err))
	}

	p, genErr := newPlanner().GeneratePlan(ctx, topic, "")
	if genErr != nil {
		return nil, fmt.Errorf("no stored plan (%v) and generation failed: %w", err, genErr)
	}
	return p, nil
}

func init() {
	stageOpenCmd.Flags().StringVarP(&stageTopic, "topic", "t", "", "Learning topic")
	stageOpenCmd.Flags().IntVarP(&stageNum, "stage", "s", 1, "Stage number (1-based)")
	stageCmd.AddCommand(stageOpenCmd)
	rootCmd.AddCommand(stageCmd)
}
