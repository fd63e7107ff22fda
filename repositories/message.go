//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"batepapo/codec"
	"batepapo/domain"
	"batepapo/errors"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const messagePrefix = "message:"

// MessageFilter selects messages during a scan. A nil filter keeps everything.
type MessageFilter func(domain.Message) bool

// MessagePatch holds the fields an author may overwrite.
type MessagePatch struct {
	From string
	To   string
	Text string
	Type domain.MessageType
}

type IMessageRepository interface {
	Insert(ctx context.Context, message domain.Message) (domain.Message, error)
	Find(ctx context.Context, filter MessageFilter, limit int) ([]domain.Message, error)
	FindOne(ctx context.Context, id uuid.UUID) (domain.Message, error)
	UpdateOne(ctx context.Context, id uuid.UUID, owner string, patch MessagePatch) error
	DeleteOne(ctx context.Context, id uuid.UUID, owner string) error
}

type MessageRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) *MessageRepository {
	return &MessageRepository{db: db, log: log}
}

type DiskMessage struct {
	ID   string `cbor:"id"`
	From string `cbor:"from"`
	To   string `cbor:"to"`
	Text string `cbor:"text"`
	Type string `cbor:"type"`
	Time string `cbor:"time"`
}

// messageKey is "message:{uuidv7}". Version 7 UUIDs embed a millisecond
// timestamp plus a monotonic counter, so the lexicographic key order is
// the creation order.
func messageKey(id uuid.UUID) []byte {
	return []byte(messagePrefix + id.String())
}

// Insert assigns a fresh ID and persists the message.
func (m *MessageRepository) Insert(ctx context.Context, message domain.Message) (domain.Message, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return domain.Message{}, fmt.Errorf("message id generation failed: %w", err)
	}
	message.ID = id
	bytes, err := codec.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, err
	}
	err = update(ctx, m.db, func(txn *badger.Txn) error {
		return txn.Set(messageKey(id), bytes)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// Find returns the messages accepted by filter, oldest first.
// With a positive limit only the most recent limit matches are kept: the
// scan then walks the keys backwards and stops as soon as it has enough.
func (m *MessageRepository) Find(ctx context.Context, filter MessageFilter, limit int) ([]domain.Message, error) {
	var messages []domain.Message
	err := view(ctx, m.db, func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix)
		options := badger.DefaultIteratorOptions
		options.Reverse = limit > 0
		it := txn.NewIterator(options)
		defer it.Close()

		seekKey := prefix
		if options.Reverse {
			// Every key under the prefix sorts before prefix+0xFF
			seekKey = append(slices.Clone(prefix), 0xFF)
		}
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(messages) == limit {
				break
			}
			message, err := readMessage(it.Item())
			if err != nil {
				return err
			}
			if filter == nil || filter(message) {
				messages = append(messages, message)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 {
		slices.Reverse(messages)
	}
	return messages, nil
}

func (m *MessageRepository) FindOne(ctx context.Context, id uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := view(ctx, m.db, func(txn *badger.Txn) error {
		found, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		message = found
		return nil
	})
	return message, err
}

// UpdateOne overwrites the message if it still belongs to owner.
// Time and ID are kept.
func (m *MessageRepository) UpdateOne(ctx context.Context, id uuid.UUID, owner string, patch MessagePatch) error {
	return update(ctx, m.db, func(txn *badger.Txn) error {
		message, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		if !message.OwnedBy(owner) {
			return errors.ErrUnauthorized
		}
		message.From = patch.From
		message.To = patch.To
		message.Text = patch.Text
		message.Type = patch.Type
		bytes, err := codec.Marshal(fromMessage(message))
		if err != nil {
			return err
		}
		return txn.Set(messageKey(id), bytes)
	})
}

// DeleteOne removes the message if it still belongs to owner.
func (m *MessageRepository) DeleteOne(ctx context.Context, id uuid.UUID, owner string) error {
	return update(ctx, m.db, func(txn *badger.Txn) error {
		message, err := getMessage(txn, id)
		if err != nil {
			return err
		}
		if !message.OwnedBy(owner) {
			return errors.ErrUnauthorized
		}
		return txn.Delete(messageKey(id))
	})
}

func getMessage(txn *badger.Txn, id uuid.UUID) (domain.Message, error) {
	item, err := txn.Get(messageKey(id))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, errors.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return readMessage(item)
}

func readMessage(item *badger.Item) (domain.Message, error) {
	var disk DiskMessage
	err := item.Value(func(val []byte) error {
		return codec.Unmarshal(val, &disk)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(disk)
}

func fromMessage(message domain.Message) DiskMessage {
	return DiskMessage{
		ID:   message.ID.String(),
		From: message.From,
		To:   message.To,
		Text: message.Text,
		Type: string(message.Type),
		Time: message.Time,
	}
}

func toMessage(disk DiskMessage) (domain.Message, error) {
	parsedID, err := uuid.Parse(disk.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:   parsedID,
		From: disk.From,
		To:   disk.To,
		Text: disk.Text,
		Type: domain.MessageType(disk.Type),
		Time: disk.Time,
	}, nil
}
