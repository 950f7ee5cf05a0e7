package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/sugarfunk/campaignshot/internal/browser"
	"github.com/sugarfunk/campaignshot/internal/campaign"
	"github.com/sugarfunk/campaignshot/internal/config"
	"github.com/sugarfunk/campaignshot/internal/logging"
	"github.com/sugarfunk/campaignshot/internal/storage"
	"github.com/sugarfunk/campaignshot/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "campaignshot",
	Short: "Capture screenshots of the campaign creation flow",
	Long: `campaignshot drives a headless Chromium through the admin console's
campaign creation flow and saves screenshots of the content editor and the
preview overlay. A full-page debug screenshot is taken when the run fails.`,
	Version: version.String(),
}

var runCmd = &cobra.Command{
	Use:          "run",
	Short:        "Run the campaign flow once and capture screenshots",
	SilenceUsage: true,
	RunE:         runCampaign,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "campaignshot %s\n", version.Full())
	},
}

var (
	configFileFlag string
	authModeFlag   string
	entryFlag      string
	headlessFlag   bool
)

func init() {
	runCmd.Flags().StringVarP(&configFileFlag, "config", "c", "", "Config file (default: campaignshot.yaml in . or ./config)")
	runCmd.Flags().StringVar(&authModeFlag, "auth", "", "Authentication mode: login, provision or auto")
	runCmd.Flags().StringVar(&entryFlag, "entry", "", "Campaign form entry: direct or list")
	runCmd.Flags().BoolVar(&headlessFlag, "headless", true, "Run the browser headless")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

// applyFlags copies explicitly set flags over the loaded configuration.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("auth") {
		cfg.Auth.Mode = authModeFlag
	}
	if flags.Changed("entry") {
		cfg.Navigation.Entry = entryFlag
	}
	if flags.Changed("headless") {
		cfg.Browser.Headless = headlessFlag
	}
	return cfg.Validate()
}

func runCampaign(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFileFlag)
	if err != nil {
		return err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}

	logger, err := logging.New(cmd.OutOrStdout(), cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	log := logger.WithField("run_id", runID)

	warnings, err := config.ValidateCredentials(cfg)
	if err != nil {
		return err
	}
	for _, w := range warnings {
		log.Warn(w)
	}
	log.WithField("version", version.String()).Info("Starting campaign capture")

	backend := storage.NewFilesystemBackend(afero.NewOsFs(), cfg.Screenshots.Dir)
	driver, err := campaign.NewDriver(cfg, browser.NewPlaywrightLauncher(), backend, runID)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	report, runErr := driver.Run(logging.WithLogger(ctx, log), log)
	report.Log(log)
	return runErr
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
