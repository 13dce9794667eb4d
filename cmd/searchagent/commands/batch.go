package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/LouYuanbo1/searchagent/param"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(batchCmd, probeCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Discovers and stores the search pattern of every unprocessed site.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.runner(cfg).RunAll(ctx)
		if printErr := printJSON(summary); printErr != nil {
			return printErr
		}
		return err
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe <base-url>",
	Short: "Runs discovery against one site without storing the result.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req := param.Probe{BaseURL: args[0]}
		if !req.IsValid() {
			return fmt.Errorf("base url must start with http:// or https://, got %q", req.BaseURL)
		}
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()

		res := a.runner(cfg).Probe(ctx, req.BaseURL)
		if err := printJSON(res); err != nil {
			return err
		}
		if res.Err != nil {
			return fmt.Errorf("probe %s: %s: %w", req.BaseURL, res.Status, res.Err)
		}
		return nil
	},
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
