package test

import (
	"batepapo/clock"
	"batepapo/domain"
	"batepapo/infrastructure/search"
	"batepapo/mocks"
	"batepapo/repositories"
	"batepapo/runtime/workers"
	"batepapo/services"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func openDB(t *testing.T, dir string) *badger.DB {
	t.Helper()
	// Reduced to 16 Mo for testing
	db, err := badger.Open(badger.DefaultOptions(dir).
		WithLoggingLevel(badger.ERROR).
		WithValueLogFileSize(16 << 20))
	require.NoError(t, err)
	return db
}

func texts(messages []domain.Message) []string {
	return lo.Map(messages, func(m domain.Message, _ int) string { return m.Text })
}

func Test_Scenario(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := require.New(t)
	dir := t.TempDir()
	db := openDB(t, filepath.Join(dir, "badger"))

	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	index, err := search.NewMessageIndex(filepath.Join(dir, "bluge"), log)
	req.NoError(err)
	defer index.Close()

	fakeClock := clock.Fake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	participants := repositories.NewParticipantRepository(db, log)
	messages := repositories.NewMessageRepository(db, log)
	presence := services.NewPresenceRegistry(participants, messages, index, fakeClock, log)
	ledger := services.NewMessageLedger(messages, participants, index, fakeClock, log)

	// 1. Background sweep under supervision
	ctrl := gomock.NewController(t)
	health := mocks.NewMockHealthReporter(ctrl)
	health.EXPECT().ReportSweep(gomock.Any()).AnyTimes()
	sweep := workers.NewSweepWorker(log, presence, fakeClock, health,
		20*time.Millisecond, 10*time.Second, time.Second)
	supervisor := workers.NewSupervisor(log, 50*time.Millisecond).Add(sweep)
	done := make(chan struct{})
	go func() {
		defer close(done)
		supervisor.Run(ctx)
	}()

	// 2. Conversation
	for _, name := range []string{"alice", "bob", "carol"} {
		_, err = presence.Register(ctx, name)
		req.NoError(err)
	}
	_, err = ledger.Send(ctx, domain.SendMessageCommand{From: "alice", To: domain.Everyone, Text: "hi", Type: domain.PublicMessage})
	req.NoError(err)
	_, err = ledger.Send(ctx, domain.SendMessageCommand{From: "alice", To: "bob", Text: "secret", Type: domain.PrivateMessage})
	req.NoError(err)

	bobSees, err := ledger.List(ctx, domain.ListMessagesQuery{Viewer: "bob"})
	req.NoError(err)
	req.Contains(texts(bobSees), "hi")
	req.Contains(texts(bobSees), "secret")

	carolSees, err := ledger.List(ctx, domain.ListMessagesQuery{Viewer: "carol"})
	req.NoError(err)
	req.NotContains(texts(carolSees), "secret")

	// 3. Only alice keeps beating, the sweeper evicts the others
	fakeClock.Advance(8 * time.Second)
	req.NoError(presence.Heartbeat(ctx, "alice"))
	fakeClock.Advance(3 * time.Second)

	req.Eventually(func() bool {
		active, err := presence.List(ctx)
		return err == nil && len(active) == 1 && active[0].Name == "alice"
	}, 2*time.Second, 10*time.Millisecond)

	leaves, err := messages.Find(ctx, func(m domain.Message) bool { return m.Text == domain.LeaveText }, 0)
	req.NoError(err)
	req.ElementsMatch([]string{"bob", "carol"}, lo.Map(leaves, func(m domain.Message, _ int) string { return m.From }))

	// 4. Evicted participants cannot post anymore
	_, err = ledger.Send(ctx, domain.SendMessageCommand{From: "bob", To: domain.Everyone, Text: "still here?", Type: domain.PublicMessage})
	req.Error(err)

	found, err := ledger.Search(ctx, domain.SearchMessagesQuery{Viewer: "bob", Text: "secret"})
	req.NoError(err)
	req.Len(found, 1)

	cancel()
	<-done

	// 5. Everything survives a restart
	req.NoError(db.Close())
	db = openDB(t, filepath.Join(dir, "badger"))
	defer db.Close()

	reopened := repositories.NewMessageRepository(db, log)
	all, err := reopened.Find(context.Background(), nil, 0)
	req.NoError(err)
	req.Equal(texts(carolSees)[0], texts(all)[0])
	req.Contains(texts(all), "secret")

	// 6. A fresh index finds messages stored before the restart once rebuilt
	freshIndex, err := search.NewMessageIndex("", log)
	req.NoError(err)
	defer freshIndex.Close()
	restarted := services.NewMessageLedger(reopened, repositories.NewParticipantRepository(db, log), freshIndex, fakeClock, log)

	found, err = restarted.Search(context.Background(), domain.SearchMessagesQuery{Viewer: "bob", Text: "secret"})
	req.NoError(err)
	req.Empty(found)

	indexed, err := restarted.Reindex(context.Background())
	req.NoError(err)
	req.Equal(len(all), indexed)

	found, err = restarted.Search(context.Background(), domain.SearchMessagesQuery{Viewer: "bob", Text: "secret"})
	req.NoError(err)
	req.Equal([]string{"secret"}, texts(found))
}
