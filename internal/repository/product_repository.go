package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"ofertas/internal/model"
)

type ProductRepository struct {
	DB *pgxpool.Pool
}

// SaveAll grava os registros de uma execução numa única transação, preservando a ordem.
func (r *ProductRepository) SaveAll(ctx context.Context, runID uuid.UUID, records []model.ProductRecord) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM extracted_products WHERE run_id = $1`, runID)
	for i, rec := range records {
		batch.Queue(`
			INSERT INTO extracted_products
			(id, run_id, position, brand_name, brand, product, price_value, price_text, conditions, is_valid)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, productArgs(uuid.New(), runID, i, rec)...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("save products of run %s: %w", runID, err)
	}
	return tx.Commit(ctx)
}

func (r *ProductRepository) ListByRun(ctx context.Context, runID uuid.UUID) ([]model.ProductRecord, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT brand_name, brand, product, price_value, price_text, conditions, is_valid
		FROM extracted_products
		WHERE run_id = $1
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list products of run %s: %w", runID, err)
	}
	defer rows.Close()

	records := []model.ProductRecord{}
	for rows.Next() {
		var (
			rec   model.ProductRecord
			price decimal.NullDecimal
		)
		if err := rows.Scan(&rec.BrandName, &rec.Brand, &rec.Product, &price, &rec.PriceText, &rec.Conditions, &rec.IsValid); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		rec.PriceValue = fromNullDecimal(price)
		records = append(records, rec)
	}
	return records, rows.Err()
}

// productArgs converte o registro para os parâmetros do INSERT; nulos continuam nulos.
func productArgs(id, runID uuid.UUID, position int, rec model.ProductRecord) []any {
	return []any{
		id,
		runID,
		position,
		strings.ToValidUTF8(rec.BrandName, ""),
		validUTF8(rec.Brand),
		validUTF8(rec.Product),
		toNullDecimal(rec.PriceValue),
		validUTF8(rec.PriceText),
		validUTF8(rec.Conditions),
		rec.IsValid,
	}
}

// Remove sequências de bytes inválidas para evitar erro "invalid byte sequence for encoding UTF8"
func validUTF8(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.ToValidUTF8(*s, "")
	return &v
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(n decimal.NullDecimal) *decimal.Decimal {
	if !n.Valid {
		return nil
	}
	d := n.Decimal
	return &d
}
