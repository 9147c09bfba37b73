package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/artpar/jsonapiclient/app"
	"github.com/artpar/jsonapiclient/config"
	"github.com/artpar/jsonapiclient/domain/query"
)

var queryCmd = &cobra.Command{
	Use:   "query [endpoint [id]]",
	Short: "Print the query string or request URL for the given flags",
	Long: `Print the encoded query string built from the query flags. With an
endpoint (and optionally an id) the full request URL is printed instead.

Without a configuration file the generic page encoding is used.

Examples:
  jsonapictl query --sort name,-age --include country,country.citizens
  jsonapictl query countries 1 --fields countries=name`,
	Args: cobra.MaximumNArgs(2),
	RunE: runQuery,
}

func init() {
	addQueryFlags(queryCmd)
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) (err error) {
	q, err := qopts.build()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		s := query.Serializer{}
		if cfg, err := config.LoadWithFallback(cfgFile); err == nil {
			s.PageQuery = cfg.PageQuery()
		}
		fmt.Fprintln(cmd.OutOrStdout(), s.Encode(q))
		return nil
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
	id := ""
	if len(args) == 2 {
		id = args[1]
		if err := app.CheckID(id); err != nil {
			return err
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), e.URL(id, q).String())
	return nil
}
