package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/jsonapiclient/app"
	"github.com/artpar/jsonapiclient/bootstrap"
	"github.com/artpar/jsonapiclient/config"
	"github.com/artpar/jsonapiclient/core/formatter"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
	columns      []string
	noHeader     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jsonapictl",
	Short: "Fetch and decode JSON:API resources",
	Long: `jsonapictl fetches JSON:API documents and decodes them into typed
resources using the schemas declared in the configuration file.

Examples:
  jsonapictl get countries 1 --include capital
  jsonapictl fetch countries --sort -population --page number=2 --page size=10
  jsonapictl decode countries response.json -o yaml
  jsonapictl query --filter name=Norway --fields countries=name,capital
  jsonapictl validate`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "jsonapictl.yaml", "config file path")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: "+strings.Join(formatter.List(), ", "))
}

// addOutputFlags registers the flags shared by commands that print resources.
func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&columns, "columns", nil, "fields to show (default: id and every schema field)")
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "omit the table header")
}

func formatOptions() formatter.FormatOptions {
	return formatter.FormatOptions{Columns: columns, NoHeader: noHeader}
}

func outputFormatter() (formatter.Formatter, error) {
	f, ok := formatter.Get(outputFormat)
	if !ok {
		return nil, fmt.Errorf("unknown output format %q (available: %s)", outputFormat, strings.Join(formatter.List(), ", "))
	}
	return f, nil
}

// printError writes err to stderr in the selected output format.
func printError(err error) {
	f, ferr := outputFormatter()
	if ferr != nil {
		f = formatter.NewTableFormatter()
	}
	_ = f.FormatError(os.Stderr, err)
}

// openApp loads the configuration and wires the client.
func openApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, err
	}
	return bootstrap.New(cfg, bootstrap.Options{LogOutput: cmd.ErrOrStderr()})
}

// closeApp shuts a down, reporting the shutdown error unless err is set.
func closeApp(a *bootstrap.App, err *error) {
	if serr := a.Shutdown(); serr != nil && *err == nil {
		*err = serr
	}
}

func lookupEndpoint(a *bootstrap.App, name string) (*app.Endpoint, error) {
	if e, ok := a.Client.Lookup(name); ok {
		return e, nil
	}
	var paths []string
	for _, e := range a.Client.Endpoints() {
		paths = append(paths, strings.TrimPrefix(e.Path(), "/"))
	}
	sort.Strings(paths)
	return nil, fmt.Errorf("unknown endpoint %q (configured: %s)", name, strings.Join(paths, ", "))
}
