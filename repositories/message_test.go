package repositories

import (
	"batepapo/domain"
	"batepapo/errors"
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

func storeMessages(t *testing.T, repository *MessageRepository, messages ...domain.Message) []domain.Message {
	t.Helper()
	return lo.Map(messages, func(m domain.Message, _ int) domain.Message {
		stored, err := repository.Insert(context.Background(), m)
		require.NoError(t, err)
		return stored
	})
}

func Test_Record_And_Get_Messages_In_Insertion_Order(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	var inputs []domain.Message
	for i := 1; i <= 10; i++ {
		inputs = append(inputs, domain.Message{
			From: fmt.Sprintf("user_%d", i),
			To:   domain.Everyone,
			Text: fmt.Sprintf("Message %d", i),
			Type: domain.PublicMessage,
			Time: "12:00:00",
		})
	}
	stored := storeMessages(t, repository, inputs...)
	for _, m := range stored {
		req.NotEqual(uuid.Nil, m.ID)
	}

	fetched, err := repository.Find(context.Background(), nil, 0)
	req.NoError(err)
	req.Equal(stored, fetched)
}

func Test_Find_With_Limit_Keeps_Latest_Matches(t *testing.T) {
	req := require.New(t)
	repository := NewMessageRepository(openTestDB(t), slog.Default())

	var inputs []domain.Message
	for i := 1; i <= 6; i++ {
		inputs = append(inputs, domain.Message{From: "alice", To: domain.Everyone, Text: fmt.Sprintf("%d", i), Type: domain.PublicMessage})
	}
	storeMessages(t, repository, inputs...)

	even := func(m domain.Message) bool { return m.Text == "2" || m.Text == "4" || m.Text == "6" }
	fetched, err := repository.Find(context.Background(), even, 2)
	req.NoError(err)
	req.Equal([]string{"4", "6"}, lo.Map(fetched, func(m domain.Message, _ int) string { return m.Text }))

	all, err := repository.Find(context.Background(), nil, 100)
	req.NoError(err)
	req.Len(all, 6)
	req.Equal("1", all[0].Text)
}

func Test_UpdateOne_Requires_Owner(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	stored := storeMessages(t, repository, domain.Message{
		From: "alice", To: domain.Everyone, Text: "hi", Type: domain.PublicMessage, Time: "10:11:12",
	})[0]

	err := repository.UpdateOne(ctx, stored.ID, "bob", MessagePatch{From: "bob", To: "carol", Text: "hacked", Type: domain.PrivateMessage})
	req.ErrorIs(err, errors.ErrUnauthorized)
	unchanged, err := repository.FindOne(ctx, stored.ID)
	req.NoError(err)
	req.Equal(stored, unchanged)

	err = repository.UpdateOne(ctx, stored.ID, "alice", MessagePatch{From: "alice", To: "bob", Text: "psst", Type: domain.PrivateMessage})
	req.NoError(err)
	updated, err := repository.FindOne(ctx, stored.ID)
	req.NoError(err)
	req.Equal(domain.Message{ID: stored.ID, From: "alice", To: "bob", Text: "psst", Type: domain.PrivateMessage, Time: "10:11:12"}, updated)

	err = repository.UpdateOne(ctx, uuid.New(), "alice", MessagePatch{})
	req.ErrorIs(err, errors.ErrMessageNotFound)
}

func Test_DeleteOne_Requires_Owner(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewMessageRepository(openTestDB(t), slog.Default())
	stored := storeMessages(t, repository,
		domain.Message{From: "alice", To: domain.Everyone, Text: "hi", Type: domain.PublicMessage},
		domain.NewStatusMessage("alice", domain.JoinText, time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
	)

	req.ErrorIs(repository.DeleteOne(ctx, stored[0].ID, "bob"), errors.ErrUnauthorized)
	req.ErrorIs(repository.DeleteOne(ctx, stored[1].ID, "alice"), errors.ErrUnauthorized)
	req.NoError(repository.DeleteOne(ctx, stored[0].ID, "alice"))

	_, err := repository.FindOne(ctx, stored[0].ID)
	req.ErrorIs(err, errors.ErrMessageNotFound)
	req.ErrorIs(repository.DeleteOne(ctx, stored[0].ID, "alice"), errors.ErrMessageNotFound)
}
