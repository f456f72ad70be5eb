package store

import (
	"context"
	"fmt"

	"agencyboard/internal/pipeline"
)

// StatusCount is the number of records carrying one raw status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// Stats returns record counts of a board grouped by raw status.
func (s *Store) Stats(ctx context.Context, board pipeline.Board) ([]StatusCount, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT status, COUNT(1) FROM records WHERE board = ? GROUP BY status ORDER BY status`, string(board))
	if err != nil {
		return nil, fmt.Errorf("record stats: %w", err)
	}
	defer rows.Close()

	var stats []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		stats = append(stats, sc)
	}
	return stats, rows.Err()
}

// StageCounts folds raw status counts into the board's stages.
func StageCounts(reg *pipeline.Registry, stats []StatusCount) map[pipeline.StageID]int {
	counts := make(map[pipeline.StageID]int, len(reg.Stages()))
	for _, st := range reg.Stages() {
		counts[st.ID] = 0
	}
	for _, sc := range stats {
		counts[reg.Classify(sc.Status)] += sc.Count
	}
	return counts
}
