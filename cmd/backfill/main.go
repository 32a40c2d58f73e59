// Command backfill populates missing state codes on customer master records
// that carry a GSTIN. Older records were created before the state code was
// derived from the GSTIN prefix at registration time.
// Usage: go run ./cmd/backfill
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"vanik/internal/config"
	"vanik/internal/gst"
	"vanik/internal/repository/postgres"
)

const batchSize = 100

type masterRow struct {
	ID    uuid.UUID `db:"id"`
	GSTIN string    `db:"gstin"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer func() { _ = db.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Keyset pagination: skipped rows still match the WHERE clause, so an
	// offset-free re-select would spin on them.
	var updated, skipped int
	lastID := uuid.Nil
	for {
		var batch []masterRow
		err := db.SelectContext(ctx, &batch,
			`SELECT id, gstin FROM customer_masters
			 WHERE gstin <> '' AND state_code = '' AND id > $1
			 ORDER BY id
			 LIMIT $2`, lastID, batchSize)
		if err != nil {
			return fmt.Errorf("selecting masters: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		for _, m := range batch {
			lastID = m.ID
			state, ok := gst.StateCodeFromGSTIN(m.GSTIN)
			if !ok {
				log.Printf("master %s: GSTIN %q has no recognizable state prefix, skipping", m.ID, m.GSTIN)
				skipped++
				continue
			}
			_, err := db.ExecContext(ctx,
				`UPDATE customer_masters SET state_code = $1, updated_at = NOW() WHERE id = $2`,
				state, m.ID)
			if err != nil {
				return fmt.Errorf("updating master %s: %w", m.ID, err)
			}
			updated++
		}
	}

	log.Printf("backfill complete: %d updated, %d skipped", updated, skipped)
	return nil
}
