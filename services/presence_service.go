package services

import (
	"batepapo/clock"
	"batepapo/domain"
	"batepapo/errors"
	"batepapo/repositories"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	DefaultInactivityTimeout = 10 * time.Second
	DefaultSweepInterval     = 15 * time.Second
)

type IPresenceRegistry interface {
	Register(ctx context.Context, name string) (domain.Participant, error)
	Heartbeat(ctx context.Context, name string) error
	Sweep(ctx context.Context, now time.Time, timeout time.Duration) (domain.SweepReport, error)
	List(ctx context.Context) ([]domain.Participant, error)
}

// PresenceRegistry manages the participant lifecycle: registration,
// heartbeats and eviction of participants that stopped sending them.
type PresenceRegistry struct {
	participants repositories.IParticipantRepository
	messages     repositories.IMessageRepository
	index        MessageIndexer
	clock        clock.Clock
	log          *slog.Logger
}

func NewPresenceRegistry(
	participants repositories.IParticipantRepository,
	messages repositories.IMessageRepository,
	index MessageIndexer,
	clock clock.Clock,
	log *slog.Logger,
) *PresenceRegistry {
	return &PresenceRegistry{
		participants: participants,
		messages:     messages,
		index:        index,
		clock:        clock,
		log:          log,
	}
}

// Register creates the participant and announces it with a join status message.
// The two writes are not transactional: when the announcement fails the
// participant stays registered and the failure is only logged.
func (r *PresenceRegistry) Register(ctx context.Context, name string) (domain.Participant, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Participant{}, fmt.Errorf("%w: name is required", errors.ErrValidation)
	}
	now := r.clock.Now()
	participant := domain.Participant{Name: name, LastSeen: now}
	if err := r.participants.Insert(ctx, participant); err != nil {
		return domain.Participant{}, err
	}
	r.announce(ctx, domain.NewStatusMessage(name, domain.JoinText, now))
	r.log.Info("Participant registered", "name", name)
	return participant, nil
}

// Heartbeat marks the participant as alive now.
func (r *PresenceRegistry) Heartbeat(ctx context.Context, name string) error {
	return r.participants.UpdateOne(ctx, name, r.clock.Now())
}

// Sweep evicts every participant inactive for longer than timeout at now.
// Each eviction is a compare-and-delete against the stored LastSeen, so a
// heartbeat landing between the scan and the delete keeps the participant.
// One failed eviction never aborts the others.
func (r *PresenceRegistry) Sweep(ctx context.Context, now time.Time, timeout time.Duration) (domain.SweepReport, error) {
	participants, err := r.participants.Find(ctx)
	if err != nil {
		return domain.SweepReport{}, err
	}
	report := domain.SweepReport{Scanned: len(participants)}
	staleBefore := now.Add(-timeout)
	for _, p := range participants {
		if !p.IsStale(now, timeout) {
			continue
		}
		deleted, err := r.participants.DeleteOne(ctx, p.Name, staleBefore)
		if err != nil {
			report.Failed++
			r.log.Warn("Eviction failed", "name", p.Name, "err", err)
			continue
		}
		if !deleted {
			continue
		}
		report.Evicted = append(report.Evicted, p.Name)
		r.announce(ctx, domain.NewStatusMessage(p.Name, domain.LeaveText, now))
		r.log.Info("Participant evicted", "name", p.Name, "last_seen", p.LastSeen)
	}
	return report, nil
}

func (r *PresenceRegistry) List(ctx context.Context) ([]domain.Participant, error) {
	return r.participants.Find(ctx)
}

func (r *PresenceRegistry) announce(ctx context.Context, status domain.Message) {
	stored, err := r.messages.Insert(ctx, status)
	if err != nil {
		r.log.Error("Failed to store status message", "name", status.From, "text", status.Text, "err", err)
		return
	}
	indexMessage(r.index, stored, r.log)
}
