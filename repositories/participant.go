//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant_repository.go -package=mocks
package repositories

import (
	"batepapo/codec"
	"batepapo/domain"
	"batepapo/errors"
	"context"
	goerrors "errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const participantPrefix = "participant:"

type IParticipantRepository interface {
	Insert(ctx context.Context, participant domain.Participant) error
	Find(ctx context.Context) ([]domain.Participant, error)
	FindOne(ctx context.Context, name string) (domain.Participant, error)
	UpdateOne(ctx context.Context, name string, lastSeen time.Time) error
	DeleteOne(ctx context.Context, name string, staleBefore time.Time) (bool, error)
}

type ParticipantRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewParticipantRepository(db *badger.DB, log *slog.Logger) *ParticipantRepository {
	return &ParticipantRepository{db: db, log: log}
}

type DiskParticipant struct {
	Name     string `cbor:"name"`
	LastSeen int64  `cbor:"last_seen"`
}

func participantKey(name string) []byte {
	return []byte(participantPrefix + name)
}

// Insert creates the participant if no record exists under its name.
// The existence check and the write share one transaction, so two
// concurrent registrations of the same name cannot both succeed.
func (r *ParticipantRepository) Insert(ctx context.Context, participant domain.Participant) error {
	bytes, err := codec.Marshal(fromParticipant(participant))
	if err != nil {
		return err
	}
	key := participantKey(participant.Name)
	return update(ctx, r.db, func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		switch {
		case err == nil:
			return errors.ErrNameTaken
		case !goerrors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		return txn.Set(key, bytes)
	})
}

// Find returns every participant in name order.
func (r *ParticipantRepository) Find(ctx context.Context) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		prefix := []byte(participantPrefix)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			p, err := readParticipant(it.Item())
			if err != nil {
				return err
			}
			participants = append(participants, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return participants, nil
}

func (r *ParticipantRepository) FindOne(ctx context.Context, name string) (domain.Participant, error) {
	var participant domain.Participant
	err := view(ctx, r.db, func(txn *badger.Txn) error {
		p, err := getParticipant(txn, name)
		if err != nil {
			return err
		}
		participant = p
		return nil
	})
	return participant, err
}

// UpdateOne refreshes LastSeen. Read and write happen in one transaction
// so a concurrent eviction either sees the new timestamp or wins first,
// in which case ErrParticipantNotFound is returned.
func (r *ParticipantRepository) UpdateOne(ctx context.Context, name string, lastSeen time.Time) error {
	return update(ctx, r.db, func(txn *badger.Txn) error {
		p, err := getParticipant(txn, name)
		if err != nil {
			return err
		}
		p.LastSeen = lastSeen
		bytes, err := codec.Marshal(fromParticipant(p))
		if err != nil {
			return err
		}
		return txn.Set(participantKey(name), bytes)
	})
}

// DeleteOne removes the participant only if its stored LastSeen is still
// before staleBefore. It reports false when the record is gone or was
// refreshed since the caller looked at it.
func (r *ParticipantRepository) DeleteOne(ctx context.Context, name string, staleBefore time.Time) (bool, error) {
	deleted := false
	err := update(ctx, r.db, func(txn *badger.Txn) error {
		deleted = false
		p, err := getParticipant(txn, name)
		if goerrors.Is(err, errors.ErrParticipantNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !p.LastSeen.Before(staleBefore) {
			r.log.Debug("Participant refreshed before eviction", "name", name)
			return nil
		}
		if err = txn.Delete(participantKey(name)); err != nil {
			return err
		}
		deleted = true
		return nil
	})
	return deleted, err
}

func getParticipant(txn *badger.Txn, name string) (domain.Participant, error) {
	item, err := txn.Get(participantKey(name))
	if goerrors.Is(err, badger.ErrKeyNotFound) {
		return domain.Participant{}, errors.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, err
	}
	return readParticipant(item)
}

func readParticipant(item *badger.Item) (domain.Participant, error) {
	var disk DiskParticipant
	err := item.Value(func(val []byte) error {
		return codec.Unmarshal(val, &disk)
	})
	if err != nil {
		return domain.Participant{}, err
	}
	return toParticipant(disk), nil
}

func fromParticipant(p domain.Participant) DiskParticipant {
	return DiskParticipant{
		Name:     p.Name,
		LastSeen: p.LastSeen.UnixNano(),
	}
}

func toParticipant(d DiskParticipant) domain.Participant {
	return domain.Participant{
		Name:     d.Name,
		LastSeen: time.Unix(0, d.LastSeen).UTC(),
	}
}
