package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	askQuestion string
	askSession  string
)

// askCmd sends a question to the chat service and prints the plain-text
// answer with its sources.
var askCmd = &cobra.Command{
	Use:   "ask --question QUESTION [--session ID]",
	Short: "Ask a question about stored learning resources",
	RunE: func(cmd *cobra.Command, args []string) error {
		answer, err := newPlanner().Chat(cmd.Context(), askQuestion, askSession)
		if err != nil {
			return fmt.Errorf("chat: %w", err)
		}

		fmt.Println(answer.Answer)
		if len(answer.Sources) > 0 {
			fmt.Println("\nSources:")
			for i, s := range answer.Sources {
				if s.Title != "" {
					fmt.Printf("  %d. %s\n     %s\n", i+1, s.Title, s.URL)
				} else {
					fmt.Printf("  %d. %s\n", i+1, s.URL)
				}
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "Question to ask")
	askCmd.Flags().StringVar(&askSession, "session", "", "Chat session id for follow-ups")
	rootCmd.AddCommand(askCmd)
}
