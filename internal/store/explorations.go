package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"wonderlens/internal/logging"
	"wonderlens/internal/model"
)

// =============================================================================
// EXPLORATIONS COLLECTION
// Primary key: id. Secondary indexes: timestamp, object_category.
// =============================================================================

// SaveExploration upserts an exploration record by primary key. The
// whole row is overwritten; there is never a partial-field merge.
func (s *LocalStore) SaveExploration(rec model.ExplorationRecord) error {
	if err := model.ValidateStruct(rec); err != nil {
		return fmt.Errorf("invalid exploration: %w", err)
	}

	cardsJSON, err := json.Marshal(rec.Cards)
	if err != nil {
		return fmt.Errorf("encode cards: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO explorations
		 (id, timestamp, object_name, object_category, confidence, age, image_data, cards_json, collected)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		toTS(rec.Timestamp),
		rec.ObjectName,
		string(rec.ObjectCategory),
		rec.Confidence,
		rec.Age,
		rec.ImageData,
		string(cardsJSON),
		boolToInt(rec.Collected),
	)
	if err != nil {
		logging.Get(logging.CategoryStore).Error("Failed to save exploration %s: %v", rec.ID, err)
		return unavailable("save exploration", err)
	}
	logging.StoreDebug("Exploration saved: id=%s object=%s cards=%d", rec.ID, rec.ObjectName, len(rec.Cards))
	return nil
}

const explorationColumns = "id, timestamp, object_name, object_category, confidence, age, image_data, cards_json, collected"

func scanExploration(scan func(dest ...any) error) (model.ExplorationRecord, error) {
	var rec model.ExplorationRecord
	var ts, category, cardsJSON string
	var imageData sql.NullString
	var collected int
	err := scan(
		&rec.ID, &ts, &rec.ObjectName, &category, &rec.Confidence,
		&rec.Age, &imageData, &cardsJSON, &collected,
	)
	if err != nil {
		return rec, err
	}
	rec.Timestamp = fromTS(ts)
	rec.ObjectCategory = model.ObjectCategory(category)
	rec.ImageData = imageData.String
	rec.Collected = intToBool(collected)
	if cardsJSON != "" && cardsJSON != "null" {
		if err := json.Unmarshal([]byte(cardsJSON), &rec.Cards); err != nil {
			return rec, fmt.Errorf("decode cards for %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}

// GetExploration returns one record by id, or ErrNotFound.
func (s *LocalStore) GetExploration(id string) (model.ExplorationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow("SELECT "+explorationColumns+" FROM explorations WHERE id = ?", id)
	rec, err := scanExploration(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("exploration %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return rec, unavailable("get exploration", err)
	}
	return rec, nil
}

// ListExplorations returns all records, newest first (timestamp index).
func (s *LocalStore) ListExplorations() ([]model.ExplorationRecord, error) {
	return s.queryExplorations("SELECT " + explorationColumns + " FROM explorations ORDER BY timestamp DESC")
}

// ListExplorationsByCategory returns records of one category, newest first.
func (s *LocalStore) ListExplorationsByCategory(category model.ObjectCategory) ([]model.ExplorationRecord, error) {
	return s.queryExplorations(
		"SELECT "+explorationColumns+" FROM explorations WHERE object_category = ? ORDER BY timestamp DESC",
		string(category),
	)
}

func (s *LocalStore) queryExplorations(query string, args ...any) ([]model.ExplorationRecord, error) {
	timer := logging.StartTimer(logging.CategoryStore, "queryExplorations")
	defer timer.Stop()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, unavailable("list explorations", err)
	}
	defer rows.Close()

	var records []model.ExplorationRecord
	for rows.Next() {
		rec, err := scanExploration(rows.Scan)
		if err != nil {
			logging.StoreDebug("Skipping unreadable exploration row: %v", err)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return records, unavailable("iterate explorations", err)
	}
	return records, nil
}

// DeleteExploration removes a record by primary key.
func (s *LocalStore) DeleteExploration(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM explorations WHERE id = ?", id); err != nil {
		return unavailable("delete exploration", err)
	}
	logging.StoreDebug("Exploration deleted: id=%s", id)
	return nil
}

// SaveExplorationBatch applies each save independently; there is no
// atomicity across the batch. A partial failure leaves the succeeding
// subset applied and reports every failure in the returned error.
func (s *LocalStore) SaveExplorationBatch(records []model.ExplorationRecord) error {
	var errs []error
	for _, rec := range records {
		if err := s.SaveExploration(rec); err != nil {
			errs = append(errs, fmt.Errorf("exploration %s: %w", rec.ID, err))
		}
	}
	return errors.Join(errs...)
}

// DeleteExplorationBatch deletes each id independently; same partial
// failure semantics as SaveExplorationBatch.
func (s *LocalStore) DeleteExplorationBatch(ids []string) error {
	var errs []error
	for _, id := range ids {
		if err := s.DeleteExploration(id); err != nil {
			errs = append(errs, fmt.Errorf("exploration %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}
