package http

import (
	"batepapo/domain"
	"batepapo/errors"
	goerrors "errors"
	"time"

	"github.com/samber/lo"
)

// UserHeader carries the caller-asserted identity. It is not authenticated.
const UserHeader = "User"

type RegisterRequest struct {
	Name string `json:"name" validate:"required"`
}

type MessageRequest struct {
	To   string `json:"to" validate:"required"`
	Text string `json:"text" validate:"required"`
	Type string `json:"type" validate:"required,oneof=message private_message"`
}

type identity struct {
	User string `validate:"required"`
}

type listQuery struct {
	Limit *int `validate:"omitempty,gt=0"`
}

type searchQuery struct {
	Text  string `validate:"required"`
	Limit *int   `validate:"omitempty,gt=0"`
}

type ParticipantResponse struct {
	Name string `json:"name"`
	// LastStatus is the last heartbeat in Unix milliseconds
	LastStatus int64 `json:"lastStatus"`
}

type MessageResponse struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
	Text string `json:"text"`
	Type string `json:"type"`
	Time string `json:"time"`
}

// ErrorResponse carries a stable Code next to the human readable Error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

const (
	CodeValidation          = "validation"
	CodeInvalidSender       = "invalid_sender"
	CodeNameTaken           = "name_taken"
	CodeParticipantNotFound = "participant_not_found"
	CodeMessageNotFound     = "message_not_found"
	CodeUnauthorized        = "unauthorized"
	CodeInternal            = "internal"
)

var codes = []lo.Tuple2[error, string]{
	lo.T2(errors.ErrValidation, CodeValidation),
	lo.T2(errors.ErrInvalidSender, CodeInvalidSender),
	lo.T2(errors.ErrNameTaken, CodeNameTaken),
	lo.T2(errors.ErrParticipantNotFound, CodeParticipantNotFound),
	lo.T2(errors.ErrMessageNotFound, CodeMessageNotFound),
	lo.T2(errors.ErrUnauthorized, CodeUnauthorized),
}

// CodeFor names the sentinel err wraps, or CodeInternal.
func CodeFor(err error) string {
	code, ok := lo.Find(codes, func(c lo.Tuple2[error, string]) bool {
		return goerrors.Is(err, c.A)
	})
	if !ok {
		return CodeInternal
	}
	return code.B
}

// ErrorFor is the reverse of CodeFor. Unknown codes give ErrStoreUnavailable.
func ErrorFor(code string) error {
	found, ok := lo.Find(codes, func(c lo.Tuple2[error, string]) bool {
		return c.B == code
	})
	if !ok {
		return errors.ErrStoreUnavailable
	}
	return found.A
}

func toParticipantResponses(participants []domain.Participant) []ParticipantResponse {
	return lo.Map(participants, func(p domain.Participant, _ int) ParticipantResponse {
		return ParticipantResponse{Name: p.Name, LastStatus: p.LastSeen.UnixMilli()}
	})
}

func toMessageResponse(m domain.Message) MessageResponse {
	return MessageResponse{
		ID:   m.ID.String(),
		From: m.From,
		To:   m.To,
		Text: m.Text,
		Type: string(m.Type),
		Time: m.Time,
	}
}

func toMessageResponses(messages []domain.Message) []MessageResponse {
	return lo.Map(messages, func(m domain.Message, _ int) MessageResponse {
		return toMessageResponse(m)
	})
}

// LastSeen converts LastStatus back to a time.
func (p ParticipantResponse) LastSeen() time.Time {
	return time.UnixMilli(p.LastStatus)
}
