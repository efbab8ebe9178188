package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/slascicarna/internal/model"
)

// CreateFeedItem creates a new feed post.
func CreateFeedItem(ctx context.Context, db *sql.DB, mediaType, title, description, url string) (*model.FeedItem, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO feed_items (type, title, description, url) VALUES (?, ?, ?, ?)`,
		mediaType, title, description, url,
	)
	if err != nil {
		return nil, fmt.Errorf("creating feed item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting feed item id: %w", err)
	}

	return GetFeedItem(ctx, db, id)
}

// GetFeedItem returns a feed item by ID.
func GetFeedItem(ctx context.Context, db *sql.DB, id int64) (*model.FeedItem, error) {
	item := &model.FeedItem{}
	var description sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, type, title, description, url, created_at FROM feed_items WHERE id = ?`, id,
	).Scan(&item.ID, &item.Type, &item.Title, &description, &item.URL, &item.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting feed item: %w", err)
	}
	item.Description = description.String
	return item, nil
}

// ListFeedItems returns all feed items, newest first.
func ListFeedItems(ctx context.Context, db *sql.DB) ([]model.FeedItem, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, type, title, description, url, created_at
		 FROM feed_items ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing feed items: %w", err)
	}
	defer rows.Close()

	var items []model.FeedItem
	for rows.Next() {
		var item model.FeedItem
		var description sql.NullString
		if err := rows.Scan(&item.ID, &item.Type, &item.Title, &description, &item.URL, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning feed item: %w", err)
		}
		item.Description = description.String
		items = append(items, item)
	}
	return items, rows.Err()
}

// DeleteFeedItem removes a feed post. Returns ErrNotFound for unknown IDs.
func DeleteFeedItem(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM feed_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting feed item: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
