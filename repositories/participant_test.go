package repositories

import (
	"batepapo/domain"
	"batepapo/errors"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *badger.DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func Test_Insert_And_Find_Participants(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewParticipantRepository(openTestDB(t), slog.Default())
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	req.NoError(repository.Insert(ctx, domain.Participant{Name: "bob", LastSeen: at}))
	req.NoError(repository.Insert(ctx, domain.Participant{Name: "alice", LastSeen: at}))

	participants, err := repository.Find(ctx)
	req.NoError(err)
	req.Equal([]domain.Participant{
		{Name: "alice", LastSeen: at},
		{Name: "bob", LastSeen: at},
	}, participants)
}

func Test_Insert_Rejects_Duplicate_Name(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewParticipantRepository(openTestDB(t), slog.Default())
	at := time.Now().UTC()

	req.NoError(repository.Insert(ctx, domain.Participant{Name: "alice", LastSeen: at}))
	err := repository.Insert(ctx, domain.Participant{Name: "alice", LastSeen: at.Add(time.Second)})
	req.ErrorIs(err, errors.ErrNameTaken)

	// Names are case-sensitive
	req.NoError(repository.Insert(ctx, domain.Participant{Name: "Alice", LastSeen: at}))

	stored, err := repository.FindOne(ctx, "alice")
	req.NoError(err)
	req.Equal(at.UnixNano(), stored.LastSeen.UnixNano())
}

func Test_Concurrent_Insert_Only_One_Wins(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewParticipantRepository(openTestDB(t), slog.Default())

	const attempts = 20
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- repository.Insert(ctx, domain.Participant{Name: "alice", LastSeen: time.Now()})
		}()
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		req.ErrorIs(err, errors.ErrNameTaken)
	}
	req.Equal(1, succeeded)

	participants, err := repository.Find(ctx)
	req.NoError(err)
	req.Len(participants, 1)
}

func Test_UpdateOne_Unknown_Participant(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(openTestDB(t), slog.Default())

	err := repository.UpdateOne(context.Background(), "ghost", time.Now())
	req.ErrorIs(err, errors.ErrParticipantNotFound)
}

func Test_DeleteOne_Only_When_Still_Stale(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	repository := NewParticipantRepository(openTestDB(t), slog.Default())
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	req.NoError(repository.Insert(ctx, domain.Participant{Name: "alice", LastSeen: at}))

	// Given alice sent a heartbeat after the sweep took its snapshot
	req.NoError(repository.UpdateOne(ctx, "alice", at.Add(20*time.Second)))

	// When the sweep tries to evict her with a cutoff computed from the old snapshot
	deleted, err := repository.DeleteOne(ctx, "alice", at.Add(5*time.Second))
	req.NoError(err)
	req.False(deleted)
	_, err = repository.FindOne(ctx, "alice")
	req.NoError(err)

	// Then a later cutoff removes her
	deleted, err = repository.DeleteOne(ctx, "alice", at.Add(25*time.Second))
	req.NoError(err)
	req.True(deleted)
	_, err = repository.FindOne(ctx, "alice")
	req.ErrorIs(err, errors.ErrParticipantNotFound)

	// Deleting again is a no-op
	deleted, err = repository.DeleteOne(ctx, "alice", at.Add(25*time.Second))
	req.NoError(err)
	req.False(deleted)
}

func Test_Canceled_Context_Skips_Store(t *testing.T) {
	req := require.New(t)
	repository := NewParticipantRepository(openTestDB(t), slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repository.Insert(ctx, domain.Participant{Name: "alice", LastSeen: time.Now()})
	req.ErrorIs(err, context.Canceled)
}

func Test_Closed_DB_Is_Store_Unavailable(t *testing.T) {
	req := require.New(t)
	db, err := OpenInMemory()
	req.NoError(err)
	repository := NewParticipantRepository(db, slog.Default())
	req.NoError(db.Close())

	_, err = repository.Find(context.Background())
	req.ErrorIs(err, errors.ErrStoreUnavailable)
}
