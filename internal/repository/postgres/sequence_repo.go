package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"vanik/internal/port"
)

type sequenceRepo struct {
	db *sqlx.DB
}

// NewSequenceRepo creates a new PostgreSQL-backed SequenceRepository.
func NewSequenceRepo(db *sqlx.DB) port.SequenceRepository {
	return &sequenceRepo{db: db}
}

// Next increments and returns the counter for (org, doc type, day) in one
// atomic upsert. Concurrent callers serialize on the counter row, so two
// documents can never draw the same number.
func (r *sequenceRepo) Next(ctx context.Context, orgID uuid.UUID, docType string, day time.Time) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`INSERT INTO doc_sequences (org_id, doc_type, seq_day, counter)
		 VALUES ($1, $2, $3, 1)
		 ON CONFLICT (org_id, doc_type, seq_day)
		 DO UPDATE SET counter = doc_sequences.counter + 1
		 RETURNING counter`,
		orgID, docType, day.Format("2006-01-02"))
	if err != nil {
		return 0, fmt.Errorf("sequenceRepo.Next: %w", err)
	}
	return n, nil
}
