//go:generate go run go.uber.org/mock/mockgen -source=message_index.go -destination=../../mocks/mock_message_index.go -package=mocks
package search

import (
	"batepapo/domain"
	"context"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"
)

const (
	idField   = "_id"
	textField = "text"
)

// IMessageIndex is a full-text index over message text. It only stores
// IDs: the message store stays the source of truth.
type IMessageIndex interface {
	Index(message domain.Message) error
	Remove(id uuid.UUID) error
	Search(ctx context.Context, text string, from, size int) ([]uuid.UUID, error)
	Close() error
}

type MessageIndex struct {
	writer *bluge.Writer
	log    *slog.Logger
}

// NewMessageIndex opens a bluge index at path, or an in-memory index when
// path is empty.
func NewMessageIndex(path string, log *slog.Logger) (*MessageIndex, error) {
	config := bluge.InMemoryOnlyConfig()
	if path != "" {
		config = bluge.DefaultConfig(path)
	}
	writer, err := bluge.OpenWriter(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	return &MessageIndex{writer: writer, log: log}, nil
}

// Index adds the message or replaces its previous version.
func (i *MessageIndex) Index(message domain.Message) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewTextField(textField, message.Text))
	return i.writer.Update(doc.ID(), doc)
}

func (i *MessageIndex) Remove(id uuid.UUID) error {
	return i.writer.Delete(bluge.Identifier(id.String()))
}

// Search returns up to size message IDs whose text matches, newest first,
// skipping the first from hits. IDs are UUIDv7 so sorting on them follows
// creation order.
func (i *MessageIndex) Search(ctx context.Context, text string, from, size int) ([]uuid.UUID, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	query := bluge.NewMatchQuery(text).SetField(textField)
	request := bluge.NewTopNSearch(size, query).
		SetFrom(from).
		SortBy([]string{"-" + idField})
	iterator, err := reader.Search(ctx, request)
	if err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	match, err := iterator.Next()
	for err == nil && match != nil {
		var parseErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field != idField {
				return true
			}
			id, perr := uuid.ParseBytes(value)
			if perr != nil {
				parseErr = perr
				return false
			}
			ids = append(ids, id)
			return false
		})
		if err == nil && parseErr != nil {
			i.log.Warn("Skipping index entry with invalid id", "err", parseErr)
		}
		if err != nil {
			break
		}
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (i *MessageIndex) Close() error {
	return i.writer.Close()
}
