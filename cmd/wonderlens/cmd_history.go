package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wonderlens/internal/model"
)

var historyCategory string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past explorations, newest first",
	RunE:  runHistory,
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List chat sessions",
	RunE:  runSessions,
}

func init() {
	historyCmd.Flags().StringVar(&historyCategory, "category", "", "Filter by category: animal, plant, or object")
}

func runHistory(cmd *cobra.Command, args []string) error {
	if err := requireStore(); err != nil {
		return err
	}

	var (
		records []model.ExplorationRecord
		err     error
	)
	if historyCategory != "" {
		records, err = st.ListExplorationsByCategory(model.ObjectCategory(historyCategory))
	} else {
		records, err = st.ListExplorations()
	}
	if err != nil {
		return fmt.Errorf("could not read history: %w", err)
	}
	if len(records) == 0 {
		fmt.Println("Nothing explored yet.")
		return nil
	}

	for _, rec := range records {
		marker := " "
		if rec.Collected {
			marker = "*"
		}
		fmt.Printf("%s %s  %-12s %-8s %d cards  (%s)\n",
			marker,
			rec.Timestamp.Format("2006-01-02 15:04"),
			rec.ObjectName,
			rec.ObjectCategory,
			len(rec.Cards),
			rec.ID)
	}
	return nil
}

func runSessions(cmd *cobra.Command, args []string) error {
	if err := requireStore(); err != nil {
		return err
	}
	sessions, err := st.ListSessions()
	if err != nil {
		return fmt.Errorf("could not read sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Println("No chat sessions yet.")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %3d messages  %s - %s\n",
			s.ID, s.MessageCount,
			s.CreatedAt.Format("01-02 15:04"),
			s.LastActive.Format("01-02 15:04"))
	}
	return nil
}
