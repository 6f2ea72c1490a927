// learnerator turns a learning topic into an actionable browser workspace:
// it generates a staged learning plan, discovers resources for each stage,
// and provisions them as named tab groups in a real Chrome.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jasonlam510/Learnerator/internal/backend"
	"github.com/jasonlam510/Learnerator/internal/browser"
	"github.com/jasonlam510/Learnerator/internal/config"
	"github.com/jasonlam510/Learnerator/internal/finder"
	"github.com/jasonlam510/Learnerator/internal/ledger"
	"github.com/jasonlam510/Learnerator/internal/planner"
	"github.com/jasonlam510/Learnerator/internal/provision"
)

var (
	// Global flags
	cfgPath string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "learnerator",
	Short: "Learnerator - learning plans provisioned as browser tab groups",
	Long: `Learnerator builds staged learning plans for a topic, finds the best
tutorial pages and videos for each stage, and opens them as a named tab
group in Chrome so one command turns "learn X" into a ready workspace.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if !verbose {
			if level, lvlErr := zapcore.ParseLevel(cfg.Logging.Level); lvlErr == nil {
				zapCfg.Level.SetLevel(level)
			}
		}
		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func newManager() *browser.Manager {
	return browser.NewManager(cfg.Browser, logger.Named("browser"))
}

func newProvisioner(mgr *browser.Manager) *provision.Provisioner {
	return provision.New(mgr, cfg.Provision, logger.Named("provision"))
}

func newPlanner() *planner.Client {
	return planner.New(cfg.Services.Planner, logger.Named("planner"))
}

func newBackend() *backend.Client {
	return backend.New(cfg.Services.Backend, logger.Named("backend"))
}

func newFinder() (*finder.Finder, error) {
	return finder.New(cfg.Finder, logger.Named("finder"))
}

func openLedger() (*ledger.Store, error) {
	return ledger.Open(cfg.Ledger.DatabasePath, logger.Named("ledger"))
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "learnerator.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
