package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/cli/browser"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vdot-gis/error-reports-dashboard/internal/config"
	"github.com/vdot-gis/error-reports-dashboard/internal/dashboard"
	"github.com/vdot-gis/error-reports-dashboard/internal/fetcher"
	"github.com/vdot-gis/error-reports-dashboard/internal/generator"
)

var (
	configFile string
	outputFile string
	title      string
	portalURL  string
	token      string
	verbose    bool
	openPage   bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "error-reports",
		Short: "Fetch AGOL error reports and generate the dashboard HTML",
		Long: `Error Reports reads the configured error report feature layers from
ArcGIS Online, counts their records by status and writes a static HTML dashboard.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := generateDashboard(cmd); err != nil {
				return fmt.Errorf("failed to generate dashboard: %w", err)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "YAML config file (defaults to the built-in report list)")
	rootCmd.PersistentFlags().StringVar(&portalURL, "portal", "", "ArcGIS portal URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "ArcGIS access token for non-public layers")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output HTML file path")
	rootCmd.Flags().StringVar(&title, "title", "", "Dashboard title")
	rootCmd.Flags().BoolVar(&openPage, "open", false, "Open the generated page in the default browser")

	addListCmd(rootCmd)

	return rootCmd
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		cfg.Output = outputFile
	}
	if flags.Changed("title") {
		cfg.Title = title
	}
	if flags.Changed("portal") {
		cfg.PortalURL = portalURL
	}
	if flags.Changed("token") {
		cfg.Token = token
	}

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newBuilder(cmd *cobra.Command) (*dashboard.Builder, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger()
	client := fetcher.NewClient(cfg.PortalURL, cfg.Token, logger)
	return dashboard.NewBuilder(cfg, client, logger), cfg, nil
}

// generateDashboard fetches every report and writes the dashboard HTML
func generateDashboard(cmd *cobra.Command) error {
	builder, cfg, err := newBuilder(cmd)
	if err != nil {
		return err
	}

	if _, err := builder.Build(cmd.Context()); err != nil {
		return err
	}
	cmd.Println(fmt.Sprintf("Error reports saved to %s", cfg.Output))

	if openPage {
		if err := browser.OpenFile(cfg.Output); err != nil {
			return fmt.Errorf("failed to open %s: %w", cfg.Output, err)
		}
	}
	return nil
}

// addListCmd adds a 'list' subcommand that prints the status counts without generating HTML
func addListCmd(rootCmd *cobra.Command) {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List error reports and their status counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			builder, _, err := newBuilder(cmd)
			if err != nil {
				return err
			}

			reports, err := builder.Collect(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch error reports: %w", err)
			}

			bold := color.New(color.Bold).SprintFunc()
			red := color.New(color.FgRed).SprintFunc()
			yellow := color.New(color.FgYellow).SprintFunc()
			green := color.New(color.FgGreen).SprintFunc()
			faint := color.New(color.Faint).SprintFunc()

			for _, r := range reports {
				cmd.Println("---")
				cmd.Println(bold(r.Name))
				cmd.Println(fmt.Sprintf("New: %s", red(r.Tally.New)))
				cmd.Println(fmt.Sprintf("In progress: %s", yellow(r.Tally.InProgress)))
				cmd.Println(fmt.Sprintf("Fixed: %s", green(r.Tally.Fixed)))
				cmd.Println(fmt.Sprintf("Cannot fix: %s", faint(r.Tally.CannotFix)))
				cmd.Println(fmt.Sprintf("Records: %d", len(r.Records)))
				cmd.Println(fmt.Sprintf("Last updated: %s", r.LastEdit.Format(generator.TimeLayout)))
				cmd.Println(fmt.Sprintf("Link: %s", r.ItemURL))
			}
			return nil
		},
	}

	rootCmd.AddCommand(listCmd)
}
