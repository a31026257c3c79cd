package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"wonderlens/internal/api"
)

var reportCmd = &cobra.Command{
	Use:   "report [date]",
	Short: "Show the day's learning report and badge progress",
	Long: `Fetches the learning report for a date (default: today) together
with badge unlock progress.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var badgesCmd = &cobra.Command{
	Use:   "badges",
	Short: "Show badge unlock progress",
	RunE:  runBadges,
}

func runBadges(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	badges, err := client.BadgeStats(ctx)
	if err != nil {
		return fmt.Errorf("could not fetch badges: %w", err)
	}
	if len(badges.Badges) == 0 {
		fmt.Println("No badges yet. Keep exploring!")
		return nil
	}
	printBadges(badges)
	return nil
}

func printBadges(badges api.BadgeStatsResponse) {
	for _, b := range badges.Badges {
		mark := " "
		if b.Unlocked {
			mark = "x"
		}
		fmt.Printf("  [%s] %-20s %d/%d\n", mark, b.Name, b.Progress, b.Target)
	}
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	date := time.Now().Format("2006-01-02")
	if len(args) == 1 {
		date = args[0]
	}

	age := 0
	if st != nil {
		if profile, ok, err := st.GetProfile(); err == nil && ok {
			age = profile.Age
		}
	}

	var (
		report api.ReportResponse
		badges api.BadgeStatsResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		report, err = client.GenerateReport(gctx, api.ReportRequest{Date: date, Age: age})
		return err
	})
	g.Go(func() error {
		var err error
		badges, err = client.BadgeStats(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("could not fetch the report: %w", err)
	}

	fmt.Printf("Report for %s\n", report.Date)
	fmt.Printf("  Explorations: %d\n", report.ExplorationCount)
	fmt.Printf("  Cards earned: %d\n", report.CardCount)
	for category, n := range report.Categories {
		fmt.Printf("  %s: %d\n", category, n)
	}
	if report.Summary != "" {
		fmt.Printf("\n%s\n", report.Summary)
	}

	if len(badges.Badges) > 0 {
		fmt.Println("\nBadges:")
		printBadges(badges)
	}
	return nil
}
