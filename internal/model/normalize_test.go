package model

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeCardContent(t *testing.T) {
	tests := []struct {
		name     string
		cardType CardType
		payload  string
		want     CardContent
	}{
		{
			name:     "canonical science",
			cardType: CardScience,
			payload:  `{"science":{"fact":"Cats sleep a lot.","funFact":"Up to 16 hours a day."}}`,
			want:     CardContent{Science: &ScienceContent{Fact: "Cats sleep a lot.", FunFact: "Up to 16 hours a day."}},
		},
		{
			name:     "legacy flat science",
			cardType: CardScience,
			payload:  `{"fact":"Bamboo grows fast."}`,
			want:     CardContent{Science: &ScienceContent{Fact: "Bamboo grows fast."}},
		},
		{
			name:     "legacy poetry verses",
			cardType: CardPoetry,
			payload:  `{"title":"静夜思","author":"李白","verses":["床前明月光","疑是地上霜"]}`,
			want:     CardContent{Poetry: &PoetryContent{Title: "静夜思", Author: "李白", Lines: []string{"床前明月光", "疑是地上霜"}}},
		},
		{
			name:     "legacy english words field",
			cardType: CardEnglish,
			payload:  `{"words":"butterfly","sentence":"A butterfly has colorful wings."}`,
			want:     CardContent{English: &EnglishContent{Word: "butterfly", Sentence: "A butterfly has colorful wings."}},
		},
		{
			name:     "legacy english keywords field",
			cardType: CardEnglish,
			payload:  `{"keywords":"sparrow"}`,
			want:     CardContent{English: &EnglishContent{Word: "sparrow"}},
		},
		{
			name:     "bare string science",
			cardType: CardScience,
			payload:  `"Ladybugs eat aphids."`,
			want:     CardContent{Science: &ScienceContent{Fact: "Ladybugs eat aphids."}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCardContent(tt.cardType, json.RawMessage(tt.payload))
			if err != nil {
				t.Fatalf("NormalizeCardContent failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("content mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeCardContentErrors(t *testing.T) {
	if _, err := NormalizeCardContent(CardScience, nil); err == nil {
		t.Error("expected error for empty payload")
	}
	if _, err := NormalizeCardContent("riddle", json.RawMessage(`{}`)); err == nil {
		t.Error("expected error for unknown card type")
	}
}

func TestValidateStruct(t *testing.T) {
	p := UserProfile{Age: 8}
	if err := ValidateStruct(p); err != nil {
		t.Errorf("valid profile rejected: %v", err)
	}

	p.Age = 2
	if err := ValidateStruct(p); err == nil {
		t.Error("expected error for age below range")
	}

	r := ExplorationRecord{ID: "e1", ObjectName: "sparrow", ObjectCategory: "mineral", Confidence: 0.5}
	if err := ValidateStruct(r); err == nil {
		t.Error("expected error for bad category")
	}
}

func TestPrimaryText(t *testing.T) {
	c := CardContent{Poetry: &PoetryContent{Lines: []string{"a", "b"}}}
	if got := c.PrimaryText(); got != "a\nb" {
		t.Errorf("PrimaryText = %q", got)
	}
	if got := (CardContent{}).PrimaryText(); got != "" {
		t.Errorf("empty content PrimaryText = %q", got)
	}
}
