package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/artpar/jsonapiclient/pkg/jsonapi"
)

var getCmd = &cobra.Command{
	Use:   "get <endpoint> <id>",
	Short: "Fetch and decode one resource",
	Long: `Fetch one resource from a configured endpoint and decode it.

Examples:
  jsonapictl get countries 1
  jsonapictl get countries 1 --include capital --fields countries=name,capital -o json`,
	Args: cobra.ExactArgs(2),
	RunE: runGet,
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <endpoint>",
	Short: "Fetch and decode a collection",
	Long: `Fetch a collection from a configured endpoint and decode every element.

Elements that fail to decode are reported after the ones that succeeded.

Examples:
  jsonapictl fetch countries
  jsonapictl fetch countries --filter region=europe --page number=2 --page size=25`,
	Args: cobra.ExactArgs(1),
	RunE: runFetch,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <endpoint> <file>",
	Short: "Decode a saved JSON:API document",
	Long: `Decode a JSON:API document read from a file (or - for stdin) with the
schema of a configured endpoint. No request is sent.

Examples:
  jsonapictl decode countries response.json --include capital
  curl -s https://api.example.com/countries | jsonapictl decode countries -`,
	Args: cobra.ExactArgs(2),
	RunE: runDecode,
}

func init() {
	for _, cmd := range []*cobra.Command{getCmd, fetchCmd, decodeCmd} {
		addQueryFlags(cmd)
		addOutputFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
}

func runGet(cmd *cobra.Command, args []string) (err error) {
	f, err := outputFormatter()
	if err != nil {
		return err
	}
	q, err := qopts.build()
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	e, err := lookupEndpoint(a, args[0])
	if err != nil {
		return err
	}

	res, err := e.Get(cmd.Context(), args[1], q)
	if err != nil {
		return err
	}

	schema, err := a.Client.Schemas().Lookup(e.Type())
	if err != nil {
		return err
	}
	return f.FormatResource(cmd.OutOrStdout(), schema, res, formatOptions())
}

func runFetch(cmd *cobra.Command, args []string) (err error) {
	f, err := outputFormatter()
	if err != nil {
		return err
	}
	q, err := qopts.build()
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	e, err := lookupEndpoint(a, args[0])
	if err != nil {
		return err
	}

	page, fetchErr := e.Fetch(cmd.Context(), q)
	if page == nil {
		return fetchErr
	}

	schema, err := a.Client.Schemas().Lookup(e.Type())
	if err != nil {
		return err
	}
	if err := f.FormatList(cmd.OutOrStdout(), schema, page.Resources, formatOptions()); err != nil {
		return err
	}
	if next, ok := page.Next(); ok {
		fmt.Fprintf(cmd.ErrOrStderr(), "next page: %s\n", next)
	}
	return fetchErr
}

func runDecode(cmd *cobra.Command, args []string) (err error) {
	f, err := outputFormatter()
	if err != nil {
		return err
	}
	q, err := qopts.build()
	if err != nil {
		return err
	}

	raw, err := readInput(cmd, args[1])
	if err != nil {
		return err
	}
	doc, err := jsonapi.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", args[1], err)
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	e, err := lookupEndpoint(a, args[0])
	if err != nil {
		return err
	}
	schema, err := a.Client.Schemas().Lookup(e.Type())
	if err != nil {
		return err
	}

	page, decodeErr := e.Decode(doc, q)
	out := cmd.OutOrStdout()
	if !doc.IsCollection() {
		if decodeErr != nil {
			return decodeErr
		}
		if len(page.Resources) == 0 {
			return f.FormatResource(out, schema, nil, formatOptions())
		}
		return f.FormatResource(out, schema, page.Resources[0], formatOptions())
	}

	if err := f.FormatList(out, schema, page.Resources, formatOptions()); err != nil {
		return err
	}
	return decodeErr
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return b, nil
}
