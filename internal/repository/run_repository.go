package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ofertas/internal/model"
)

var ErrNotFound = errors.New("registro não encontrado")

// Run é uma execução do pipeline sobre uma imagem.
type Run struct {
	ID          uuid.UUID
	Filename    string
	Model       string
	Outcome     model.Outcome
	RawResponse string
	ImageURL    string
	CreatedAt   time.Time
}

type RunRepository struct {
	DB *sql.DB
}

func (r *RunRepository) Save(ctx context.Context, run Run) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO extraction_runs
		(id, filename, model, outcome, raw_response, image_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET outcome = EXCLUDED.outcome, raw_response = EXCLUDED.raw_response, image_url = EXCLUDED.image_url
	`, run.ID, run.Filename, run.Model, string(run.Outcome), run.RawResponse, run.ImageURL, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (r *RunRepository) Get(ctx context.Context, id uuid.UUID) (Run, error) {
	var (
		run     Run
		outcome string
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, filename, model, outcome, raw_response, image_url, created_at
		FROM extraction_runs
		WHERE id = $1
	`, id).Scan(&run.ID, &run.Filename, &run.Model, &outcome, &run.RawResponse, &run.ImageURL, &run.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	run.Outcome = model.Outcome(outcome)
	return run, nil
}
