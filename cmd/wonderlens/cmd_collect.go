package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wonderlens/internal/model"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Collect and browse knowledge cards",
}

var collectCardCmd = &cobra.Command{
	Use:   "card <exploration-id> <card-id>",
	Short: "Toggle a card in or out of your collection",
	Args:  cobra.ExactArgs(2),
	RunE:  runCollectCard,
}

var collectRecordCmd = &cobra.Command{
	Use:   "record <exploration-id>",
	Short: "Toggle a whole exploration in or out of your favorites",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectRecord,
}

var collectListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show your collected cards, newest first",
	RunE:  runCollectList,
}

func init() {
	collectCmd.AddCommand(collectCardCmd)
	collectCmd.AddCommand(collectRecordCmd)
	collectCmd.AddCommand(collectListCmd)
}

func runCollectCard(cmd *cobra.Command, args []string) error {
	if err := requireStore(); err != nil {
		return err
	}
	explorationID, cardID := args[0], args[1]

	rec, err := st.GetExploration(explorationID)
	if err != nil {
		return fmt.Errorf("exploration not found: %w", err)
	}
	var card *model.KnowledgeCard
	for i := range rec.Cards {
		if rec.Cards[i].ID == cardID {
			card = &rec.Cards[i]
			break
		}
	}
	if card == nil {
		return fmt.Errorf("exploration %s has no card %s", explorationID, cardID)
	}

	wasCollected := collected.IsCollected(cardID)
	if err := <-collected.ToggleCard(*card); err != nil {
		return fmt.Errorf("could not update your collection: %w", err)
	}
	if wasCollected {
		fmt.Printf("Removed %q from your collection.\n", card.Title)
	} else {
		fmt.Printf("Collected %q!\n", card.Title)
	}
	return nil
}

func runCollectRecord(cmd *cobra.Command, args []string) error {
	if err := requireStore(); err != nil {
		return err
	}
	rec, err := st.GetExploration(args[0])
	if err != nil {
		return fmt.Errorf("exploration not found: %w", err)
	}
	if err := <-collected.ToggleExploration(rec); err != nil {
		return fmt.Errorf("could not update favorites: %w", err)
	}
	if collected.ExplorationCollected(rec.ID) {
		fmt.Printf("%s is now a favorite.\n", rec.ObjectName)
	} else {
		fmt.Printf("%s removed from favorites.\n", rec.ObjectName)
	}
	return nil
}

func runCollectList(cmd *cobra.Command, args []string) error {
	if err := requireStore(); err != nil {
		return err
	}
	cards := collected.CollectedCards()
	if len(cards) == 0 {
		fmt.Println("No cards collected yet. Explore something first!")
		return nil
	}
	fmt.Printf("%d collected cards:\n", len(cards))
	for _, card := range cards {
		printCard(card)
	}
	return nil
}
