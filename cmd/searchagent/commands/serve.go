package commands

import (
	"github.com/LouYuanbo1/searchagent/internal/api"
	"github.com/LouYuanbo1/searchagent/internal/service/batch"
	"github.com/LouYuanbo1/searchagent/internal/service/scrape"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address, overrides server.addr from the config")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--addr :5060]",
	Short: "Serves the batch and scrape HTTP API.",
	RunE: func(cmd *cobra.Command, args []string) error {
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
		scheduler := batch.NewScheduler(ctx, a.runner(cfg))
		jobs := scrape.NewManager(ctx, service, scrape.NewRegistry(cfg.Scrape.MaxJobs))

		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}
		server := api.NewServer(a.browser, scheduler, jobs, api.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateLimitBurst))
		err = server.ListenAndServe(ctx, addr)

		logrus.Info("waiting for background work to stop")
		scheduler.Wait()
		jobs.Wait()
		return err
	},
}
