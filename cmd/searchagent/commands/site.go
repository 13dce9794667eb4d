package commands

import (
	"fmt"
	"strings"

	"github.com/LouYuanbo1/searchagent/internal/domain/model"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	siteID         string
	siteSubsegment string
	siteSegment    string
	siteKeywords   []string
)

func init() {
	siteAddCmd.Flags().StringVar(&siteID, "id", "", "site id, generated when empty")
	siteAddCmd.Flags().StringVar(&siteSubsegment, "subsegment", "", "subsegment name used as a search term")
	siteAddCmd.Flags().StringVar(&siteSegment, "segment", "", "segment name used as a search term")
	siteAddCmd.Flags().StringSliceVar(&siteKeywords, "keyword", nil, "search keyword, repeatable")
	siteCmd.AddCommand(siteAddCmd)
	rootCmd.AddCommand(siteCmd)
}

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manages the sites searched by batch and scrape.",
}

var siteAddCmd = &cobra.Command{
	Use:   "add <base-url>",
	Short: "Adds a site, or replaces the metadata of an existing one.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		baseURL := strings.TrimSpace(args[0])
		if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			return fmt.Errorf("base url must start with http:// or https://, got %q", baseURL)
		}
		ctx := cmd.Context()
		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if siteID == "" {
			siteID = uuid.NewString()
		}
		site := &model.Site{
			ID:         siteID,
			BaseURL:    baseURL,
			Subsegment: siteSubsegment,
			Segment:    siteSegment,
			Keywords:   siteKeywords,
		}
		if err := a.store.UpsertSite(ctx, site); err != nil {
			return err
		}
		return printJSON(site)
	},
}
