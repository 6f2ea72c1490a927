package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	resourcesTopic string
	resourcesTerms []string
)

// resourcesCmd runs the finder on its own, without provisioning anything.
var resourcesCmd = &cobra.Command{
	Use:   "resources --topic TOPIC [--term TERM...]",
	Short: "Discover learning resources for a topic",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := newFinder()
		if err != nil {
			return fmt.Errorf("create finder: %w", err)
		}

		resources, err := f.FindResources(cmd.Context(), resourcesTopic, resourcesTerms)
		if err != nil {
			return fmt.Errorf("find resources: %w", err)
		}

		fmt.Printf("Resources for %q:\n", resourcesTopic)
		for i, r := range resources {
			title := r.Title
			if title == "" {
				title = r.URL
			}
			fmt.Printf("  %d. [%s] %s\n     %s\n", i+1, r.Kind, title, r.URL)
		}
		return nil
	},
}

func init() {
	resourcesCmd.Flags().StringVarP(&resourcesTopic, "topic", "t", "", "Learning topic")
	resourcesCmd.Flags().StringArrayVar(&resourcesTerms, "term", nil, "Search term (repeatable; defaults to the topic)")
	rootCmd.AddCommand(resourcesCmd)
}
