package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jasonlam510/Learnerator/internal/provision"
)

// probeCmd checks the substrate's capability surface without provisioning.
var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check whether the browser exposes the required operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		mgr := newManager()
		defer mgr.Shutdown(ctx)

		report := provision.ProbeCapabilities(ctx, mgr)
		if report.Available {
			fmt.Println("All required capabilities available:")
			for _, c := range provision.RequiredCapabilities() {
				fmt.Printf("  - %s\n", c)
			}
			return nil
		}

		fmt.Println("Substrate capability unavailable. Missing:")
		for _, c := range report.Missing {
			fmt.Printf("  - %s\n", c)
		}
		return fmt.Errorf("%d capabilities missing", len(report.Missing))
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
