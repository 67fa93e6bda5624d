package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const appName = "nutriscan-mcp"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	envFile  string
	logLevel string
	logJSON  bool
}

func rootCmd() *cobra.Command {
	var opts globalOptions

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Nutrition label scanner and MCP server",
		Long: `nutriscan-mcp reads nutrition facts panels from photos.

It normalizes the photo, extracts text with Tesseract, parses the nutrient
table, flags notable values and can ask a language model for a short
plain-language summary.

Run without a subcommand to serve MCP over stdin/stdout. Configure it in
your MCP client (e.g., Claude Desktop).`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", "", "Dotenv file to load (default: .env if present)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error, disabled)")
	cmd.PersistentFlags().BoolVar(&opts.logJSON, "log-json", false, "Emit logs as JSON")

	cmd.AddCommand(
		serveCmd(&opts),
		scanCmd(&opts),
		parseCmd(&opts),
		versionCmd(),
	)
	return cmd
}

func serveCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve MCP over stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *opts)
		},
	}
}

func scanCmd(opts *globalOptions) *cobra.Command {
	var (
		asJSON      bool
		region      string
		includeText bool
	)

	cmd := &cobra.Command{
		Use:   "scan <image>",
		Short: "Scan a nutrition label photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*opts)
			if err != nil {
				return err
			}
			res, err := a.scanFile(cmd.Context(), args[0], region)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), res, asJSON, includeText)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")
	cmd.Flags().StringVar(&region, "region", "", "Crop to a named region first (e.g. top-half, center)")
	cmd.Flags().BoolVar(&includeText, "include-text", false, "Include the OCR text in the output")
	return cmd
}

func parseCmd(opts *globalOptions) *cobra.Command {
	var (
		asJSON    bool
		narrative bool
	)

	cmd := &cobra.Command{
		Use:   "parse [file|-]",
		Short: "Parse nutrition facts from label text",
		Long: `Parse nutrition facts from text that was already extracted from a label.
Reads stdin when no file is given or the file is "-".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*opts)
			if err != nil {
				return err
			}
			src := "-"
			if len(args) == 1 {
				src = args[0]
			}
			text, err := readInput(src, cmd.InOrStdin())
			if err != nil {
				return err
			}
			res, err := a.parseText(cmd.Context(), text, narrative)
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), res, asJSON, false)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")
	cmd.Flags().BoolVar(&narrative, "narrative", false, "Request a narrative summary when a provider is configured")
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", appName, Version)
			fmt.Fprintf(out, "  Build time: %s\n", BuildTime)
			fmt.Fprintf(out, "  Git commit: %s\n", GitCommit)
		},
	}
}
