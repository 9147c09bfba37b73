package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/artpar/jsonapiclient/config"
	"github.com/artpar/jsonapiclient/domain/resource"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Validate the jsonapictl configuration file.

Checks:
  - YAML syntax is valid
  - Required fields are present
  - Every field uses a known kind and validator
  - Every relationship and endpoint points at a declared resource type

Examples:
  jsonapictl validate
  jsonapictl validate --config ./api.yaml`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config valid\n", checkMark)

	reg, err := cfg.Registry()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "  %s Base URL: %s\n", checkMark, cfg.API.BaseURL)
	fmt.Fprintf(out, "  %s Pagination: %s\n", checkMark, cfg.Pagination.Style)
	fmt.Fprintf(out, "  %s Max depth: %d\n", checkMark, cfg.Decode.MaxDepth)
	for _, typ := range reg.Types() {
		s, _ := reg.Lookup(typ)
		fmt.Fprintf(out, "  %s Resource %s: %s\n", checkMark, typ, describe(s))
	}
	for _, e := range cfg.Endpoints {
		fmt.Fprintf(out, "  %s Endpoint /%s -> %s\n", checkMark, strings.Trim(e.Path, "/"), e.Type)
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

// describe summarizes a schema's fields, e.g. "name, capital -> cities".
func describe(s resource.Schema) string {
	if s.Len() == 0 {
		return "no fields"
	}
	parts := make([]string, 0, s.Len())
	for _, f := range s.Fields() {
		switch {
		case f.IsToOne():
			parts = append(parts, f.Name+" -> "+f.Related)
		case f.IsToMany():
			parts = append(parts, f.Name+" -> []"+f.Related)
		case f.IsRequiredAttribute():
			parts = append(parts, f.Name+"*")
		default:
			parts = append(parts, f.Name)
		}
	}
	return strings.Join(parts, ", ")
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
