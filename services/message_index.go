package services

import (
	"batepapo/domain"
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// MessageIndexer is the part of the search index the services write to
// and query. A nil MessageIndexer disables indexing and search.
type MessageIndexer interface {
	Index(message domain.Message) error
	Remove(id uuid.UUID) error
	Search(ctx context.Context, text string, from, size int) ([]uuid.UUID, error)
}

// The index is derived data: failures are logged and never surface.
func indexMessage(index MessageIndexer, message domain.Message, log *slog.Logger) {
	if index == nil {
		return
	}
	if err := index.Index(message); err != nil {
		log.Warn("Failed to index message", "id", message.ID, "err", err)
	}
}

func unindexMessage(index MessageIndexer, id uuid.UUID, log *slog.Logger) {
	if index == nil {
		return
	}
	if err := index.Remove(id); err != nil {
		log.Warn("Failed to remove message from index", "id", id, "err", err)
	}
}
