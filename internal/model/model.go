// Package model defines the persisted entities of the wonderlens client:
// the singleton profile/settings records, exploration records with their
// embedded knowledge cards, and conversation messages.
package model

import "time"

// ObjectCategory classifies an identified object. Closed 3-value set.
type ObjectCategory string

const (
	CategoryAnimal ObjectCategory = "animal"
	CategoryPlant  ObjectCategory = "plant"
	CategoryObject ObjectCategory = "object"
)

// CardType selects the knowledge card variant.
type CardType string

const (
	CardScience CardType = "science"
	CardPoetry  CardType = "poetry"
	CardEnglish CardType = "english"
)

// MessageType selects the conversation message variant.
type MessageType string

const (
	MessageText  MessageType = "text"
	MessageCard  MessageType = "card"
	MessageImage MessageType = "image"
	MessageVoice MessageType = "voice"
)

// Sender identifies the side that produced a conversation message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Language is one of the two supported locales.
type Language string

const (
	LanguageChinese Language = "zh"
	LanguageEnglish Language = "en"
)

// UserProfile is the singleton profile record. Overwritten wholesale on
// save; never deleted, only replaced.
type UserProfile struct {
	Age         int       `json:"age" validate:"gte=3,lte=18"`
	Grade       string    `json:"grade,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// UserSettings is the singleton settings record. Exactly one instance
// exists after first launch; DefaultSettings seeds it when absent.
type UserSettings struct {
	Language    Language  `json:"language" validate:"oneof=zh en"`
	Grade       string    `json:"grade,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// DefaultSettings returns the canonical first-run settings.
func DefaultSettings() UserSettings {
	return UserSettings{
		Language:    LanguageChinese,
		LastUpdated: time.Now(),
	}
}

// ExplorationRecord is created once per successful identification.
// Cards are embedded at creation time but also independently indexable
// through the cards collection.
type ExplorationRecord struct {
	ID             string          `json:"id" validate:"required"`
	Timestamp      time.Time       `json:"timestamp"`
	ObjectName     string          `json:"objectName" validate:"required"`
	ObjectCategory ObjectCategory  `json:"objectCategory" validate:"oneof=animal plant object"`
	Confidence     float64         `json:"confidence" validate:"gte=0,lte=1"`
	Age            int             `json:"age"`
	ImageData      string          `json:"imageData,omitempty"`
	Cards          []KnowledgeCard `json:"cards,omitempty"`
	Collected      bool            `json:"collected"`
}

// KnowledgeCard is one AI-generated card. Presence in the cards
// collection IS the collected state; there is no separate flag.
// ExplorationID is a weak back-reference used for lookup only.
type KnowledgeCard struct {
	ID            string      `json:"id" validate:"required"`
	ExplorationID string      `json:"explorationId,omitempty"`
	Type          CardType    `json:"type" validate:"oneof=science poetry english"`
	Title         string      `json:"title"`
	Content       CardContent `json:"content"`
	CollectedAt   *time.Time  `json:"collectedAt,omitempty"`
}

// CardContent is the tagged card payload union. Exactly one variant is
// populated, matching the card's Type.
type CardContent struct {
	Science *ScienceContent `json:"science,omitempty"`
	Poetry  *PoetryContent  `json:"poetry,omitempty"`
	English *EnglishContent `json:"english,omitempty"`
}

// ScienceContent is the payload of a science card.
type ScienceContent struct {
	Fact    string `json:"fact"`
	FunFact string `json:"funFact,omitempty"`
}

// PoetryContent is the payload of a poetry card.
type PoetryContent struct {
	Title  string   `json:"title"`
	Author string   `json:"author,omitempty"`
	Lines  []string `json:"lines"`
}

// EnglishContent is the payload of an english-word card.
type EnglishContent struct {
	Word     string `json:"word"`
	Phonetic string `json:"phonetic,omitempty"`
	Sentence string `json:"sentence,omitempty"`
}

// ConversationMessage is one persisted chat message. Assistant messages
// are created and updated repeatedly during streaming (same ID, growing
// content) and finalized when the terminal event arrives.
type ConversationMessage struct {
	ID          string         `json:"id" validate:"required"`
	SessionID   string         `json:"sessionId" validate:"required"`
	Type        MessageType    `json:"type" validate:"oneof=text card image voice"`
	Sender      Sender         `json:"sender" validate:"oneof=user assistant"`
	Content     MessageContent `json:"content"`
	Timestamp   time.Time      `json:"timestamp"`
	IsStreaming bool           `json:"isStreaming,omitempty"`
	Markdown    bool           `json:"markdown,omitempty"`
}

// MessageContent is the tagged message payload union. Exactly one
// variant is populated, matching the message's Type.
type MessageContent struct {
	Text  string         `json:"text,omitempty"`
	Card  *KnowledgeCard `json:"card,omitempty"`
	Image *ImageContent  `json:"image,omitempty"`
	Voice *VoiceContent  `json:"voice,omitempty"`
}

// ImageContent carries an image message: either a finished URL or the
// progress of an in-flight generation.
type ImageContent struct {
	URL      string `json:"url,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Done     bool   `json:"done,omitempty"`
}

// VoiceContent carries a recognized voice message.
type VoiceContent struct {
	Transcript string `json:"transcript"`
	AudioRef   string `json:"audioRef,omitempty"`
}

// ConversationSession is a derived grouping of messages by session.
// It is never stored directly; the store computes it from the
// conversations collection.
type ConversationSession struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActive   time.Time `json:"lastActive"`
	MessageCount int       `json:"messageCount"`
}
