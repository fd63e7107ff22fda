package services

import (
	"batepapo/clock"
	"batepapo/domain"
	"batepapo/errors"
	"batepapo/repositories"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// searchPageSize is how many index hits are read per round trip.
const searchPageSize = 500

type IMessageLedger interface {
	Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error)
	List(ctx context.Context, query domain.ListMessagesQuery) ([]domain.Message, error)
	Search(ctx context.Context, query domain.SearchMessagesQuery) ([]domain.Message, error)
	Update(ctx context.Context, id uuid.UUID, cmd domain.UpdateMessageCommand) error
	Delete(ctx context.Context, id uuid.UUID, requester string) error
	Reindex(ctx context.Context) (int, error)
}

// MessageLedger manages the message lifecycle. Only active participants
// may post, and only authors may edit or delete what they posted.
type MessageLedger struct {
	messages     repositories.IMessageRepository
	participants repositories.IParticipantRepository
	index        MessageIndexer
	clock        clock.Clock
	log          *slog.Logger
}

func NewMessageLedger(
	messages repositories.IMessageRepository,
	participants repositories.IParticipantRepository,
	index MessageIndexer,
	clock clock.Clock,
	log *slog.Logger,
) *MessageLedger {
	return &MessageLedger{
		messages:     messages,
		participants: participants,
		index:        index,
		clock:        clock,
		log:          log,
	}
}

func (l *MessageLedger) Send(ctx context.Context, cmd domain.SendMessageCommand) (domain.Message, error) {
	if err := validateContent(cmd.From, cmd.To, cmd.Text, cmd.Type); err != nil {
		return domain.Message{}, err
	}
	if err := l.requireActive(ctx, cmd.From); err != nil {
		return domain.Message{}, err
	}
	stored, err := l.messages.Insert(ctx, domain.Message{
		From: cmd.From,
		To:   cmd.To,
		Text: cmd.Text,
		Type: cmd.Type,
		Time: l.clock.Now().Format(domain.TimeLayout),
	})
	if err != nil {
		return domain.Message{}, err
	}
	indexMessage(l.index, stored, l.log)
	return stored, nil
}

// List returns the messages visible to the viewer, oldest first. A positive
// limit keeps only the most recent ones. The viewer is taken at its word.
func (l *MessageLedger) List(ctx context.Context, query domain.ListMessagesQuery) ([]domain.Message, error) {
	limit := max(query.Limit, 0)
	return l.messages.Find(ctx, visibleTo(query.Viewer), limit)
}

// Search returns the visible messages whose text matches, oldest first. A
// positive limit keeps only the most recent ones, like List.
func (l *MessageLedger) Search(ctx context.Context, query domain.SearchMessagesQuery) ([]domain.Message, error) {
	if strings.TrimSpace(query.Text) == "" {
		return nil, fmt.Errorf("%w: search text is required", errors.ErrValidation)
	}
	if l.index == nil {
		return nil, nil
	}

	// Pages come newest first. Walking back stops once the limit is filled.
	var found []domain.Message
	seen := make(map[uuid.UUID]struct{})
	for from := 0; ; from += searchPageSize {
		ids, err := l.index.Search(ctx, query.Text, from, searchPageSize)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errors.ErrStoreUnavailable, err)
		}
		for _, id := range ids {
			// A concurrent send shifts the pages by one
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			message, err := l.messages.FindOne(ctx, id)
			if goerrors.Is(err, errors.ErrMessageNotFound) {
				// Index lagging behind a delete
				continue
			}
			if err != nil {
				return nil, err
			}
			if !message.VisibleTo(query.Viewer) {
				continue
			}
			found = append(found, message)
			if query.Limit > 0 && len(found) == query.Limit {
				slices.Reverse(found)
				return found, nil
			}
		}
		if len(ids) < searchPageSize {
			break
		}
	}
	slices.Reverse(found)
	return found, nil
}

// Reindex rebuilds the search index from the store, which stays the source
// of truth. It returns how many messages were indexed.
func (l *MessageLedger) Reindex(ctx context.Context) (int, error) {
	if l.index == nil {
		return 0, nil
	}
	messages, err := l.messages.Find(ctx, nil, 0)
	if err != nil {
		return 0, err
	}
	for n, message := range messages {
		if err = ctx.Err(); err != nil {
			return n, err
		}
		if err = l.index.Index(message); err != nil {
			return n, fmt.Errorf("failed to index message %s: %w", message.ID, err)
		}
	}
	return len(messages), nil
}

// Update overwrites to, text, type and from. The creation time is kept.
// A missing message or a foreign author is reported before a bad payload.
func (l *MessageLedger) Update(ctx context.Context, id uuid.UUID, cmd domain.UpdateMessageCommand) error {
	existing, err := l.messages.FindOne(ctx, id)
	if err != nil {
		return err
	}
	if !existing.OwnedBy(cmd.From) {
		return errors.ErrUnauthorized
	}
	if err = validateContent(cmd.From, cmd.To, cmd.Text, cmd.Type); err != nil {
		return err
	}
	if err = l.requireActive(ctx, cmd.From); err != nil {
		return err
	}
	patch := repositories.MessagePatch{From: cmd.From, To: cmd.To, Text: cmd.Text, Type: cmd.Type}
	if err = l.messages.UpdateOne(ctx, id, cmd.From, patch); err != nil {
		return err
	}
	existing.From, existing.To, existing.Text, existing.Type = cmd.From, cmd.To, cmd.Text, cmd.Type
	indexMessage(l.index, existing, l.log)
	return nil
}

func (l *MessageLedger) Delete(ctx context.Context, id uuid.UUID, requester string) error {
	existing, err := l.messages.FindOne(ctx, id)
	if err != nil {
		return err
	}
	if !existing.OwnedBy(requester) {
		return errors.ErrUnauthorized
	}
	if err = l.messages.DeleteOne(ctx, id, requester); err != nil {
		return err
	}
	unindexMessage(l.index, id, l.log)
	return nil
}

func (l *MessageLedger) requireActive(ctx context.Context, name string) error {
	_, err := l.participants.FindOne(ctx, name)
	if goerrors.Is(err, errors.ErrParticipantNotFound) {
		return fmt.Errorf("%w: %s", errors.ErrInvalidSender, name)
	}
	return err
}

func validateContent(from, to, text string, messageType domain.MessageType) error {
	fields := []lo.Tuple2[string, string]{lo.T2("from", from), lo.T2("to", to), lo.T2("text", text)}
	missing := lo.FilterMap(fields, func(f lo.Tuple2[string, string], _ int) (string, bool) {
		return f.A, strings.TrimSpace(f.B) == ""
	})
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", errors.ErrValidation, strings.Join(missing, ", "))
	}
	if !messageType.IsUserType() {
		return fmt.Errorf("%w: unsupported message type %q", errors.ErrValidation, messageType)
	}
	return nil
}

func visibleTo(viewer string) repositories.MessageFilter {
	return func(m domain.Message) bool {
		return m.VisibleTo(viewer)
	}
}
