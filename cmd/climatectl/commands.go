package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/climate-advisory/internal/advisor"
	"github.com/i474232898/climate-advisory/internal/app"
	"github.com/i474232898/climate-advisory/internal/config"
	"github.com/i474232898/climate-advisory/internal/weather"
)

// cliSession keeps the analyze and ask commands of one invocation together.
const cliSession = "cli"

type loader func() (*app.App, error)

func loadApp() (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return app.New(cfg, app.NewLogger(cfg, os.Stderr))
}

func newRootCmd(load loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "climatectl",
		Short:         "Agro-climatic analysis for Argentine provinces",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRegionsCmd())
	cmd.AddCommand(newAnalyzeCmd(load))
	cmd.AddCommand(newCompareCmd(load))
	cmd.AddCommand(newAskCmd(load))

	return cmd
}

func newRegionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regions",
		Short: "List the supported regions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range weather.RegionNames() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newAnalyzeCmd(load loader) *cobra.Command {
	var (
		region, start, end string
		asJSON             bool
		timeout            time.Duration
	)

	cmd := &cobra.Command{
		Use:   "analyze --region <name>",
		Short: "Fetch, analyze and forecast one region and print the report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if region == "" && len(args) == 1 {
				region = args[0]
			}
			if region == "" {
				return fmt.Errorf("a region is required (see `climatectl regions`)")
			}

			a, err := load()
			if err != nil {
				return err
			}
			defer a.Close()

			period, err := a.Advisor.ResolvePeriod(start, end)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			res, err := a.Advisor.Analyze(ctx, cliSession, region, period)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Report.Text())
			return nil
		},
	}

	cmd.Flags().StringVarP(&region, "region", "r", "", "Region name")
	cmd.Flags().StringVar(&start, "start", "", "First month, YYYY-MM")
	cmd.Flags().StringVar(&end, "end", "", "Last month, YYYY-MM")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the analysis as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Overall deadline")

	return cmd
}

func newCompareCmd(load loader) *cobra.Command {
	var year int

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Find the region with the most rain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			defer a.Close()

			var y *int
			if year > 0 {
				y = &year
			}
			best, ok, err := a.Advisor.MostRain(cmd.Context(), y)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no region has precipitation data")
			}
			return writeJSON(cmd.OutOrStdout(), best)
		},
	}

	cmd.Flags().IntVarP(&year, "year", "y", 0, "Restrict the totals to one year")

	return cmd
}

func newAskCmd(load loader) *cobra.Command {
	var (
		reportFile string
		region     string
	)

	cmd := &cobra.Command{
		Use:   "ask [message]",
		Short: "Ask the advisor a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := load()
			if err != nil {
				return err
			}
			defer a.Close()

			req := advisor.ReplyRequest{
				Message:   strings.Join(args, " "),
				SessionID: cliSession,
			}
			if reportFile != "" {
				data, err := os.ReadFile(reportFile)
				if err != nil {
					return err
				}
				req.ReportText = string(data)
			}
			if region != "" {
				if _, err := a.Advisor.Analyze(cmd.Context(), cliSession, region, a.Advisor.DefaultPeriod()); err != nil {
					return err
				}
			}

			reply := a.Advisor.Reply(cmd.Context(), req)
			fmt.Fprintln(cmd.OutOrStdout(), reply.Text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reportFile, "report-file", "f", "", "Report text to ground the answer on")
	cmd.Flags().StringVarP(&region, "region", "r", "", "Analyze this region first and answer from its report")

	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
