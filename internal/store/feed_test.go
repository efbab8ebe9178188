package store

import (
	"context"
	"errors"
	"testing"

	"github.com/erazemk/slascicarna/internal/db"
	"github.com/erazemk/slascicarna/internal/model"
)

func TestCreateAndListFeedItems(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, err := CreateFeedItem(ctx, database, model.FeedTypeImage, "Wedding cake", "Three tiers", "https://cdn.example.com/wedding.jpg")
	if err != nil {
		t.Fatalf("CreateFeedItem: %v", err)
	}
	if item.Type != model.FeedTypeImage {
		t.Errorf("expected type 'image', got %q", item.Type)
	}

	CreateFeedItem(ctx, database, model.FeedTypeVideo, "Piping demo", "", "https://cdn.example.com/demo.mp4")

	items, err := ListFeedItems(ctx, database)
	if err != nil {
		t.Fatalf("ListFeedItems: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 feed items, got %d", len(items))
	}
	// Newest first.
	if items[0].Title != "Piping demo" {
		t.Errorf("expected newest item first, got %q", items[0].Title)
	}
}

func TestDeleteFeedItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	item, _ := CreateFeedItem(ctx, database, model.FeedTypeImage, "Macarons", "", "https://cdn.example.com/macarons.jpg")

	if err := DeleteFeedItem(ctx, database, item.ID); err != nil {
		t.Fatalf("DeleteFeedItem: %v", err)
	}

	items, _ := ListFeedItems(ctx, database)
	if len(items) != 0 {
		t.Errorf("expected 0 feed items after delete, got %d", len(items))
	}

	if err := DeleteFeedItem(ctx, database, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}
