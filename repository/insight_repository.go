package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"shoplens/models"
)

// InsightStore owns the persisted insight feed for each shop.
type InsightStore interface {
	// Replace atomically supersedes the shop's insight set. The delete and
	// the inserts run in one transaction so a concurrent reader never sees a
	// shop with zero insights mid-regeneration.
	Replace(ctx context.Context, shopID string, insights []models.Insight) error
	// List returns one page of active insights ordered newest first, plus the
	// total active count.
	List(ctx context.Context, shopID string, page, pageSize int) ([]models.Insight, int, error)
	MarkRead(ctx context.Context, shopID, insightID string) error
}

type pgInsightStore struct {
	pool *pgxpool.Pool
}

// NewInsightStore returns a Postgres-backed InsightStore.
func NewInsightStore(pool *pgxpool.Pool) InsightStore {
	return &pgInsightStore{pool: pool}
}

func (s *pgInsightStore) Replace(ctx context.Context, shopID string, insights []models.Insight) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin insight replace: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM insights WHERE shop_id = $1`, shopID); err != nil {
		return fmt.Errorf("failed to clear old insights: %w", err)
	}

	for _, in := range insights {
		_, err := tx.Exec(ctx, `
			INSERT INTO insights (id, shop_id, kind, title, message, priority, confidence, is_read, is_active, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, in.ID, in.ShopID, in.Kind, in.Title, in.Message, in.Priority, in.Confidence, in.IsRead, in.IsActive, in.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert insight: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit insight replace: %w", err)
	}
	return nil
}

func (s *pgInsightStore) List(ctx context.Context, shopID string, page, pageSize int) ([]models.Insight, int, error) {
	if pageSize <= 0 {
		pageSize = 10
	}
	if page <= 0 {
		page = 1
	}

	var total int
	countQuery, countArgs, err := psql.
		Select("COUNT(*)").
		From("insights").
		Where(sq.Eq{"shop_id": shopID, "is_active": true}).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build insight count query: %w", err)
	}
	if err := s.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count insights: %w", err)
	}

	query, args, err := psql.
		Select("id", "shop_id", "kind", "title", "message", "priority", "confidence", "is_read", "is_active", "created_at").
		From("insights").
		Where(sq.Eq{"shop_id": shopID, "is_active": true}).
		OrderBy("created_at DESC").
		Limit(uint64(pageSize)).
		Offset(uint64((page - 1) * pageSize)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build insight list query: %w", err)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query insights: %w", err)
	}
	defer rows.Close()

	insights := make([]models.Insight, 0)
	for rows.Next() {
		var in models.Insight
		if err := rows.Scan(&in.ID, &in.ShopID, &in.Kind, &in.Title, &in.Message,
			&in.Priority, &in.Confidence, &in.IsRead, &in.IsActive, &in.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan insight: %w", err)
		}
		insights = append(insights, in)
	}
	return insights, total, rows.Err()
}

func (s *pgInsightStore) MarkRead(ctx context.Context, shopID, insightID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE insights SET is_read = true WHERE id = $1 AND shop_id = $2`, insightID, shopID)
	if err != nil {
		return fmt.Errorf("failed to mark insight read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("insight %s not found for shop", insightID)
	}
	return nil
}
