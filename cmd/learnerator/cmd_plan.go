package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jasonlam510/Learnerator/internal/plan"
)

var (
	planTopic string
	planModel string
	planSave  bool
)

// planCmd groups the plan subcommands.
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate and inspect learning plans",
}

// planGenerateCmd asks the plan service for a fresh plan.
var planGenerateCmd = &cobra.Command{
	Use:   "generate --topic TOPIC",
	Short: "Generate a learning plan for a topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		p, err := newPlanner().GeneratePlan(ctx, planTopic, planModel)
		if err != nil {
			return fmt.Errorf("generate plan: %w", err)
		}

		if planSave {
			saved, err := newBackend().SavePlan(ctx, p)
			if err != nil {
				return fmt.Errorf("plan generated but save failed: %w", err)
			}
			p = saved
			fmt.Printf("Saved as plan %d.\n", p.ID)
		}

		printPlan(p)
		return nil
	},
}

// planShowCmd fetches a stored plan from the backend.
var planShowCmd = &cobra.Command{
	Use:   "show --topic TOPIC",
	Short: "Show the stored plan for a topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newBackend().GetPlan(cmd.Context(), planTopic)
		if err != nil {
			return fmt.Errorf("fetch plan: %w", err)
		}
		printPlan(p)
		return nil
	},
}

func printPlan(p *plan.Plan) {
	fmt.Printf("Plan: %s (%d stages)\n", p.TopicName, len(p.Stages))
	fmt.Println(strings.Repeat("-", 50))
	for i, st := range p.Stages {
		fmt.Printf("  %d. [%s] %s\n", i+1, st.Status, st.Header)
		if st.Details != "" {
			fmt.Printf("     %s\n", st.Details)
		}
		if len(st.Keywords) > 0 {
			fmt.Printf("     keywords: %s\n", strings.Join(st.Keywords, ", "))
		}
	}
}

func init() {
	planCmd.PersistentFlags().StringVarP(&planTopic, "topic", "t", "", "Learning topic")
	planGenerateCmd.Flags().StringVarP(&planModel, "model", "m", "", "Model override for the plan service")
	planGenerateCmd.Flags().BoolVar(&planSave, "save", false, "Save the generated plan to the backend")
	planCmd.AddCommand(planGenerateCmd, planShowCmd)
	rootCmd.AddCommand(planCmd)
}
