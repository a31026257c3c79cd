package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wonderlens/internal/api"
	"wonderlens/internal/model"
)

var exploreKeepImage bool

var exploreCmd = &cobra.Command{
	Use:   "explore <image-file>",
	Short: "Identify an object from a photo and generate knowledge cards",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplore,
}

func init() {
	exploreCmd.Flags().BoolVar(&exploreKeepImage, "keep-image", false, "Store the photo with the exploration record")
}

func runExplore(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}
	imageData := base64.StdEncoding.EncodeToString(raw)

	age := 0
	if st != nil {
		if profile, ok, err := st.GetProfile(); err == nil && ok {
			age = profile.Age
		}
	}

	identified, err := client.IdentifyImage(ctx, api.IdentifyRequest{Image: imageData, Age: age})
	if err != nil {
		return fmt.Errorf("identification failed: %w", err)
	}
	fmt.Printf("This looks like: %s (%s, %.0f%% sure)\n",
		identified.ObjectName, identified.ObjectCategory, identified.Confidence*100)
	if identified.Description != "" {
		fmt.Println(identified.Description)
	}

	language := "zh"
	if st != nil {
		if settings, err := st.GetSettings(); err == nil {
			language = string(settings.Language)
		}
	}
	cards, err := client.GenerateCards(ctx, api.GenerateCardsRequest{
		ObjectName:     identified.ObjectName,
		ObjectCategory: identified.ObjectCategory,
		Age:            age,
		Language:       language,
	})
	if err != nil {
		return fmt.Errorf("card generation failed: %w", err)
	}

	rec := model.ExplorationRecord{
		ID:             uuid.NewString(),
		Timestamp:      time.Now(),
		ObjectName:     identified.ObjectName,
		ObjectCategory: model.ObjectCategory(identified.ObjectCategory),
		Confidence:     identified.Confidence,
		Age:            age,
		Cards:          cards,
	}
	if exploreKeepImage {
		rec.ImageData = imageData
	}
	for i := range rec.Cards {
		rec.Cards[i].ExplorationID = rec.ID
	}

	if st != nil {
		if err := st.SaveExploration(rec); err != nil {
			logger.Warn("exploration not persisted", zap.Error(err))
			fmt.Println("(could not save this exploration locally)")
		}
	}

	fmt.Printf("\n%d knowledge cards:\n", len(rec.Cards))
	for _, card := range rec.Cards {
		printCard(card)
	}
	fmt.Printf("\nExploration %s saved. Collect a card with: wonderlens collect card %s <card-id>\n", rec.ID, rec.ID)
	return nil
}

func printCard(card model.KnowledgeCard) {
	fmt.Printf("\n  [%s] %s (%s)\n", card.Type, card.Title, card.ID)
	switch {
	case card.Content.Science != nil:
		fmt.Printf("    %s\n", card.Content.Science.Fact)
		if card.Content.Science.FunFact != "" {
			fmt.Printf("    Did you know? %s\n", card.Content.Science.FunFact)
		}
	case card.Content.Poetry != nil:
		p := card.Content.Poetry
		if p.Author != "" {
			fmt.Printf("    %s - %s\n", p.Title, p.Author)
		}
		for _, line := range p.Lines {
			fmt.Printf("    %s\n", line)
		}
	case card.Content.English != nil:
		e := card.Content.English
		fmt.Printf("    %s %s\n", e.Word, e.Phonetic)
		if e.Sentence != "" {
			fmt.Printf("    %s\n", e.Sentence)
		}
	}
}
