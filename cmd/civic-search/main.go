package main

import (
	"context"
	"os"

	"github.com/sha1n/mcp-civic-search/internal/app"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "civic-search"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "Civic search MCP server",
		Long:    "Contextual relevance search over community issues, communities and profiles, served over MCP and a JSON API",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithFlags(cmd.Flags(), version)
		},
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	app.RegisterFlags(rootCmd.Flags())
	app.RegisterStoreFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newSearchCommand(), newSeedCommand())
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

func newSearchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [flags] <query>",
		Short: "Run one search against the configured store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := app.SearchRequestFromFlags(cmd.Flags(), args)
			if err != nil {
				return err
			}
			return app.RunSearch(cmd.Context(), app.DefaultRunParams(), cmd.Flags(), req, cmd.OutOrStdout())
		},
	}
	app.RegisterSearchFlags(cmd.Flags())
	return cmd
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <file>",
		Short: "Load a TOML seed file into the configured persistent store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.RunSeed(cmd.Context(), app.DefaultRunParams(), cmd.Flags(), args[0], cmd.OutOrStdout())
		},
	}
}

func runWithFlags(flags *pflag.FlagSet, version string) error {
	return app.RunWithDeps(context.Background(), app.DefaultRunParams(), flags, version)
}
