package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"wonderlens/internal/api"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Share explorations with family",
}

var shareCreateCmd = &cobra.Command{
	Use:   "create <exploration-id>",
	Short: "Publish an exploration and get a share link",
	Args:  cobra.ExactArgs(1),
	RunE:  runShareCreate,
}

var shareOpenCmd = &cobra.Command{
	Use:   "open <share-id>",
	Short: "Look at a shared exploration",
	Args:  cobra.ExactArgs(1),
	RunE:  runShareOpen,
}

func init() {
	shareCmd.AddCommand(shareCreateCmd)
	shareCmd.AddCommand(shareOpenCmd)
}

func runShareCreate(cmd *cobra.Command, args []string) error {
	if err := requireStore(); err != nil {
		return err
	}
	ctx, cancel := commandContext()
	defer cancel()

	rec, err := st.GetExploration(args[0])
	if err != nil {
		return fmt.Errorf("exploration not found: %w", err)
	}

	req := api.CreateShareRequest{
		ExplorationID: rec.ID,
		ObjectName:    rec.ObjectName,
	}
	for _, card := range rec.Cards {
		req.CardIDs = append(req.CardIDs, card.ID)
	}

	resp, err := client.CreateShare(ctx, req)
	if err != nil {
		return fmt.Errorf("could not create share: %w", err)
	}
	fmt.Printf("Shared %s!\n", rec.ObjectName)
	fmt.Printf("  id:  %s\n", resp.ShareID)
	if resp.URL != "" {
		fmt.Printf("  url: %s\n", resp.URL)
	}
	return nil
}

func runShareOpen(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	resp, err := client.GetShare(ctx, args[0])
	if err != nil {
		return fmt.Errorf("could not open share: %w", err)
	}

	fmt.Printf("%s\n", resp.ObjectName)
	normalized, err := api.GenerateCardsResponse{Cards: resp.Cards}.Normalized()
	if err != nil {
		return fmt.Errorf("share contains unreadable cards: %w", err)
	}
	for _, card := range normalized {
		printCard(card)
	}
	return nil
}
