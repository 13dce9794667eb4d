package commands

import (
	"fmt"

	"github.com/LouYuanbo1/searchagent/param"
	"github.com/spf13/cobra"
)

var scrapeReq param.Scrape

func init() {
	scrapeCmd.Flags().StringVar(&scrapeReq.BaseURL, "base-url", "", "base URL of the site to scrape")
	scrapeCmd.Flags().StringVar(&scrapeReq.BaseURLID, "id", "", "id of the site to scrape")
	scrapeCmd.Flags().BoolVar(&scrapeReq.SkipArticleVisit, "skip-article-visit", false, "store harvested links without opening them")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape (--base-url <url> | --id <id>) [--skip-article-visit]",
	Short: "Searches one site with its stored pattern and stores the articles found.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !scrapeReq.IsValid() {
			return fmt.Errorf("one of --base-url or --id is required")
		}
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, true)
		if err != nil {
			return err
		}
		defer a.Close()

		service, err := a.scraper(ctx, cfg)
		if err != nil {
			return err
		}
		res, err := service.Run(ctx, scrapeReq, func(msg string) {
			fmt.Fprintln(cmd.ErrOrStderr(), msg)
		})
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}
