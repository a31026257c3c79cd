package store

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"wonderlens/internal/model"
)

func testExploration(id string, category model.ObjectCategory, ts time.Time) model.ExplorationRecord {
	return model.ExplorationRecord{
		ID:             id,
		Timestamp:      ts,
		ObjectName:     "object-" + id,
		ObjectCategory: category,
		Confidence:     0.85,
		Age:            6,
		Cards: []model.KnowledgeCard{
			{
				ID:            id + "-card",
				ExplorationID: id,
				Type:          model.CardScience,
				Content:       model.CardContent{Science: &model.ScienceContent{Fact: "fact"}},
			},
		},
	}
}

func TestExplorationRoundTrip(t *testing.T) {
	st := newTestStore(t)

	ts := time.Now()
	rec := testExploration("e1", model.CategoryPlant, ts)
	rec.ImageData = "base64imagedata"
	if err := st.SaveExploration(rec); err != nil {
		t.Fatalf("SaveExploration failed: %v", err)
	}

	got, err := st.GetExploration("e1")
	if err != nil {
		t.Fatalf("GetExploration failed: %v", err)
	}
	if got.ObjectName != "object-e1" || got.ObjectCategory != model.CategoryPlant {
		t.Errorf("unexpected record: %+v", got)
	}
	if got.ImageData != "base64imagedata" {
		t.Error("image data lost in round trip")
	}
	if len(got.Cards) != 1 || got.Cards[0].ID != "e1-card" {
		t.Errorf("embedded cards lost: %+v", got.Cards)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got.Timestamp, ts)
	}
}

func TestExplorationUpsertOverwrites(t *testing.T) {
	st := newTestStore(t)

	rec := testExploration("e1", model.CategoryAnimal, time.Now())
	if err := st.SaveExploration(rec); err != nil {
		t.Fatalf("SaveExploration failed: %v", err)
	}

	rec.Collected = true
	rec.ObjectName = "renamed"
	if err := st.SaveExploration(rec); err != nil {
		t.Fatalf("SaveExploration second failed: %v", err)
	}

	all, err := st.ListExplorations()
	if err != nil {
		t.Fatalf("ListExplorations failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 record, got %d", len(all))
	}
	if !all[0].Collected || all[0].ObjectName != "renamed" {
		t.Errorf("overwrite did not win: %+v", all[0])
	}
}

func TestListExplorationsSortedNewestFirst(t *testing.T) {
	st := newTestStore(t)

	base := time.Now()
	for i := 0; i < 3; i++ {
		rec := testExploration(fmt.Sprintf("e%d", i), model.CategoryObject, base.Add(time.Duration(i)*time.Minute))
		if err := st.SaveExploration(rec); err != nil {
			t.Fatalf("SaveExploration failed: %v", err)
		}
	}

	all, err := st.ListExplorations()
	if err != nil {
		t.Fatalf("ListExplorations failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if all[0].ID != "e2" || all[2].ID != "e0" {
		t.Errorf("records not newest-first: %s, %s, %s", all[0].ID, all[1].ID, all[2].ID)
	}
}

func TestListExplorationsByCategory(t *testing.T) {
	st := newTestStore(t)

	if err := st.SaveExplorationBatch([]model.ExplorationRecord{
		testExploration("e1", model.CategoryAnimal, time.Now()),
		testExploration("e2", model.CategoryPlant, time.Now()),
		testExploration("e3", model.CategoryAnimal, time.Now()),
	}); err != nil {
		t.Fatalf("SaveExplorationBatch failed: %v", err)
	}

	animals, err := st.ListExplorationsByCategory(model.CategoryAnimal)
	if err != nil {
		t.Fatalf("ListExplorationsByCategory failed: %v", err)
	}
	if len(animals) != 2 {
		t.Errorf("expected 2 animal records, got %d", len(animals))
	}
}

func TestDeleteExploration(t *testing.T) {
	st := newTestStore(t)

	if err := st.SaveExploration(testExploration("e1", model.CategoryAnimal, time.Now())); err != nil {
		t.Fatalf("SaveExploration failed: %v", err)
	}
	if err := st.DeleteExploration("e1"); err != nil {
		t.Fatalf("DeleteExploration failed: %v", err)
	}
	_, err := st.GetExploration("e1")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestSaveExplorationBatchPartialFailure(t *testing.T) {
	st := newTestStore(t)

	good := testExploration("e1", model.CategoryAnimal, time.Now())
	bad := testExploration("e2", "mineral", time.Now()) // invalid category

	err := st.SaveExplorationBatch([]model.ExplorationRecord{good, bad})
	if err == nil {
		t.Fatal("expected batch error for invalid record")
	}

	// The valid record must still be applied: batches are independent
	// per-operation, not atomic.
	if _, err := st.GetExploration("e1"); err != nil {
		t.Errorf("valid record not applied: %v", err)
	}
	if _, err := st.GetExploration("e2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("invalid record should not exist: %v", err)
	}
}
