package api

import (
	"encoding/json"
	"fmt"

	"wonderlens/internal/model"
)

// StreamRequest initiates a chat stream. Exactly one input field is set
// per message type: message for text, audio for voice, image for image.
type StreamRequest struct {
	MessageType           string `json:"messageType" validate:"required,oneof=text voice image"`
	Message               string `json:"message,omitempty" validate:"required_if=MessageType text"`
	Audio                 string `json:"audio,omitempty" validate:"required_if=MessageType voice"`
	Image                 string `json:"image,omitempty" validate:"required_if=MessageType image"`
	SessionID             string `json:"sessionId,omitempty"`
	IdentificationContext string `json:"identificationContext,omitempty"`
	UserAge               int    `json:"userAge,omitempty" validate:"omitempty,gte=3,lte=18"`
	MaxContextRounds      int    `json:"maxContextRounds,omitempty" validate:"omitempty,gte=1,lte=50"`
}

// IdentifyRequest asks the backend to name the object in a photo.
type IdentifyRequest struct {
	Image string `json:"image" validate:"required"`
	Age   int    `json:"age,omitempty" validate:"omitempty,gte=3,lte=18"`
}

// IdentifyResponse is the backend's identification verdict.
type IdentifyResponse struct {
	ObjectName     string  `json:"objectName"`
	ObjectCategory string  `json:"objectCategory"`
	Confidence     float64 `json:"confidence"`
	Description    string  `json:"description,omitempty"`
}

// GenerateCardsRequest asks for knowledge cards about an identified
// object.
type GenerateCardsRequest struct {
	ObjectName     string `json:"objectName" validate:"required"`
	ObjectCategory string `json:"objectCategory" validate:"required,oneof=animal plant object"`
	Age            int    `json:"age,omitempty" validate:"omitempty,gte=3,lte=18"`
	Language       string `json:"language,omitempty" validate:"omitempty,oneof=zh en"`
}

// wireCard is a card as the REST surface ships it: content stays raw
// until normalization.
type wireCard struct {
	ID            string          `json:"id"`
	ExplorationID string          `json:"explorationId,omitempty"`
	Type          string          `json:"type"`
	Title         string          `json:"title,omitempty"`
	Content       json.RawMessage `json:"content"`
}

// GenerateCardsResponse carries the generated cards, raw.
type GenerateCardsResponse struct {
	Cards []wireCard `json:"cards"`
}

// Normalized maps the raw wire cards into canonical model cards. A
// card whose content cannot be normalized fails the whole response,
// since partial card sets confuse the collection view.
func (r GenerateCardsResponse) Normalized() ([]model.KnowledgeCard, error) {
	cards := make([]model.KnowledgeCard, 0, len(r.Cards))
	for _, w := range r.Cards {
		content, err := model.NormalizeCardContent(model.CardType(w.Type), w.Content)
		if err != nil {
			return nil, fmt.Errorf("card %s: %w", w.ID, err)
		}
		cards = append(cards, model.KnowledgeCard{
			ID:            w.ID,
			ExplorationID: w.ExplorationID,
			Type:          model.CardType(w.Type),
			Title:         w.Title,
			Content:       content,
		})
	}
	return cards, nil
}

// CreateShareRequest publishes an exploration for link sharing.
type CreateShareRequest struct {
	ExplorationID string   `json:"explorationId" validate:"required"`
	ObjectName    string   `json:"objectName,omitempty"`
	CardIDs       []string `json:"cardIds,omitempty"`
}

// ShareResponse is a published share, returned by both create and get.
type ShareResponse struct {
	ShareID    string     `json:"shareId"`
	URL        string     `json:"url,omitempty"`
	ObjectName string     `json:"objectName,omitempty"`
	Cards      []wireCard `json:"cards,omitempty"`
}

// ReportRequest asks for the learning summary of one day.
type ReportRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
	Age  int    `json:"age,omitempty" validate:"omitempty,gte=3,lte=18"`
}

// ReportResponse summarizes a day of exploring.
type ReportResponse struct {
	Date             string         `json:"date"`
	ExplorationCount int            `json:"explorationCount"`
	CardCount        int            `json:"cardCount"`
	Categories       map[string]int `json:"categories,omitempty"`
	Summary          string         `json:"summary,omitempty"`
}

// Badge is one unlock-progress entry.
type Badge struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Unlocked bool   `json:"unlocked"`
	Progress int    `json:"progress"`
	Target   int    `json:"target"`
}

// BadgeStatsResponse lists badge progress for the profile.
type BadgeStatsResponse struct {
	Badges []Badge `json:"badges"`
}
