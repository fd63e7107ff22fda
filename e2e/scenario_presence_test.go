package e2e

import (
	"batepapo/client"
	"batepapo/domain"
	"batepapo/errors"
	transport "batepapo/infrastructure/http"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

type testPresenceSuite struct {
	BaseSuite
}

func TestPresenceSuite(t *testing.T) {
	suite.Run(t, &testPresenceSuite{})
}

func texts(messages []transport.MessageResponse) []string {
	return lo.Map(messages, func(m transport.MessageResponse, _ int) string { return m.Text })
}

func (s *testPresenceSuite) TestConversationAndEviction() {
	// Unique names keep the scenario repeatable against a long-lived server
	suffix := uuid.NewString()[:8]
	alice, bob, carol := "alice-"+suffix, "bob-"+suffix, "carol-"+suffix
	secret := "secret-" + suffix

	s.Run("Step 1: Join and talk", func() {
		s.WithClient("Register and send", func(ctx context.Context, c *client.Client) {
			for _, name := range []string{alice, bob} {
				_, err := c.Register(ctx, name)
				s.Require().NoError(err)
			}
			_, err := c.Register(ctx, alice)
			s.Require().ErrorIs(err, errors.ErrNameTaken)

			sent, err := c.Send(ctx, alice, transport.MessageRequest{To: bob, Text: secret, Type: "private_message"})
			s.Require().NoError(err)
			s.debug(s.T(), "sent", sent)
		})
	})

	s.Run("Step 2: Visibility", func() {
		s.WithClient("Outsiders do not see private messages", func(ctx context.Context, c *client.Client) {
			bobSees, err := c.Messages(ctx, bob, 0)
			s.Require().NoError(err)
			s.Contains(texts(bobSees), secret)

			carolSees, err := c.Messages(ctx, carol, 0)
			s.Require().NoError(err)
			s.NotContains(texts(carolSees), secret)
		})
	})

	s.Run("Step 3: Sweep evicts silent participants", func() {
		s.WithClient("Keep alice alive, let bob go", func(ctx context.Context, c *client.Client) {
			deadline := time.Now().Add(s.Config.EvictionWait)
			for time.Now().Before(deadline) {
				s.Require().NoError(c.Heartbeat(ctx, alice))
				time.Sleep(2 * time.Second)
			}

			participants, err := c.Participants(ctx)
			s.Require().NoError(err)
			names := lo.Map(participants, func(p transport.ParticipantResponse, _ int) string { return p.Name })
			s.Contains(names, alice)
			s.NotContains(names, bob)

			messages, err := c.Messages(ctx, alice, 0)
			s.Require().NoError(err)
			s.True(lo.ContainsBy(messages, func(m transport.MessageResponse) bool {
				return m.From == bob && m.Text == domain.LeaveText
			}))
		})
	})

	s.Run("Step 4: Health", func() {
		s.WithHealth("Presence service is serving", func(ctx context.Context, c healthpb.HealthClient) {
			resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: "batepapo.presence"})
			s.Require().NoError(err)
			s.Equal(healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
		})
	})
}
