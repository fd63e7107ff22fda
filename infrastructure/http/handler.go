package http

import (
	"batepapo/domain"
	"batepapo/errors"
	"batepapo/services"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

type Handler struct {
	presence services.IPresenceRegistry
	ledger   services.IMessageLedger
	log      *slog.Logger
}

func NewHandler(presence services.IPresenceRegistry, ledger services.IMessageLedger, log *slog.Logger) *Handler {
	return &Handler{presence: presence, ledger: ledger, log: log}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Anything unknown is a 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("Request failed", "op", op, "path", r.URL.Path, "err", err)
	} else {
		h.log.Debug("Request rejected", "op", op, "status", status, "err", err)
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: CodeFor(err)})
}

func statusFor(err error) int {
	switch CodeFor(err) {
	case CodeValidation, CodeInvalidSender:
		return http.StatusUnprocessableEntity
	case CodeNameTaken:
		return http.StatusConflict
	case CodeParticipantNotFound, CodeMessageNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", errors.ErrValidation, err)
}

func decodeJSON[T any](r *http.Request) (T, error) {
	var body T
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return body, invalid(err)
	}
	return body, nil
}

func decode[T any](r *http.Request) (T, error) {
	body, err := decodeJSON[T](r)
	if err != nil {
		return body, err
	}
	if err = validate.Struct(body); err != nil {
		return body, invalid(err)
	}
	return body, nil
}

func user(r *http.Request) (string, error) {
	id := identity{User: r.Header.Get(UserHeader)}
	if err := validate.Struct(id); err != nil {
		return "", invalid(fmt.Errorf("missing %s header", UserHeader))
	}
	return id.User, nil
}

func optionalInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, invalid(fmt.Errorf("%s must be an integer", name))
	}
	return &n, nil
}

func messageID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, errors.ErrMessageNotFound
	}
	return id, nil
}

// POST /participants
func (h *Handler) RegisterParticipant(w http.ResponseWriter, r *http.Request) {
	body, err := decode[RegisterRequest](r)
	if err != nil {
		h.writeError(w, r, "register", err)
		return
	}
	if _, err = h.presence.Register(r.Context(), body.Name); err != nil {
		h.writeError(w, r, "register", err)
		return
	}
	participants, err := h.presence.List(r.Context())
	if err != nil {
		h.writeError(w, r, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, toParticipantResponses(participants))
}

// GET /participants
func (h *Handler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	participants, err := h.presence.List(r.Context())
	if err != nil {
		h.writeError(w, r, "list participants", err)
		return
	}
	writeJSON(w, http.StatusOK, toParticipantResponses(participants))
}

// POST /status
func (h *Handler) Heartbeat(w http.ResponseWriter, r *http.Request) {
	name, err := user(r)
	if err != nil {
		// An anonymous heartbeat cannot match any participant
		h.writeError(w, r, "heartbeat", errors.ErrParticipantNotFound)
		return
	}
	if err = h.presence.Heartbeat(r.Context(), name); err != nil {
		h.writeError(w, r, "heartbeat", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// POST /messages
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	from, err := user(r)
	if err != nil {
		h.writeError(w, r, "send", err)
		return
	}
	body, err := decode[MessageRequest](r)
	if err != nil {
		h.writeError(w, r, "send", err)
		return
	}
	message, err := h.ledger.Send(r.Context(), domain.SendMessageCommand{
		From: from,
		To:   body.To,
		Text: body.Text,
		Type: domain.MessageType(body.Type),
	})
	if err != nil {
		h.writeError(w, r, "send", err)
		return
	}
	writeJSON(w, http.StatusCreated, toMessageResponse(message))
}

// GET /messages?limit=
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	viewer, err := user(r)
	if err != nil {
		h.writeError(w, r, "list messages", err)
		return
	}
	limit, err := optionalInt(r, "limit")
	if err == nil {
		if verr := validate.Struct(listQuery{Limit: limit}); verr != nil {
			err = invalid(verr)
		}
	}
	if err != nil {
		h.writeError(w, r, "list messages", err)
		return
	}
	messages, err := h.ledger.List(r.Context(), domain.ListMessagesQuery{Viewer: viewer, Limit: derefOrZero(limit)})
	if err != nil {
		h.writeError(w, r, "list messages", err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponses(messages))
}

// GET /messages/search?q=&limit=
func (h *Handler) SearchMessages(w http.ResponseWriter, r *http.Request) {
	viewer, err := user(r)
	if err != nil {
		h.writeError(w, r, "search messages", err)
		return
	}
	limit, err := optionalInt(r, "limit")
	if err == nil {
		if verr := validate.Struct(searchQuery{Text: r.URL.Query().Get("q"), Limit: limit}); verr != nil {
			err = invalid(verr)
		}
	}
	if err != nil {
		h.writeError(w, r, "search messages", err)
		return
	}
	messages, err := h.ledger.Search(r.Context(), domain.SearchMessagesQuery{
		Viewer: viewer,
		Text:   r.URL.Query().Get("q"),
		Limit:  derefOrZero(limit),
	})
	if err != nil {
		h.writeError(w, r, "search messages", err)
		return
	}
	writeJSON(w, http.StatusOK, toMessageResponses(messages))
}

// PUT /messages/{id}
func (h *Handler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	from, err := user(r)
	if err != nil {
		h.writeError(w, r, "update", err)
		return
	}
	id, err := messageID(r)
	if err != nil {
		h.writeError(w, r, "update", err)
		return
	}
	// The ledger validates the content once the message and its owner are known
	body, err := decodeJSON[MessageRequest](r)
	if err != nil {
		h.writeError(w, r, "update", err)
		return
	}
	err = h.ledger.Update(r.Context(), id, domain.UpdateMessageCommand{
		From: from,
		To:   body.To,
		Text: body.Text,
		Type: domain.MessageType(body.Type),
	})
	if err != nil {
		h.writeError(w, r, "update", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// DELETE /messages/{id}
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	requester, err := user(r)
	if err != nil {
		// Without an identity nobody owns the message
		h.writeError(w, r, "delete", errors.ErrUnauthorized)
		return
	}
	id, err := messageID(r)
	if err != nil {
		h.writeError(w, r, "delete", err)
		return
	}
	if err = h.ledger.Delete(r.Context(), id, requester); err != nil {
		h.writeError(w, r, "delete", err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func derefOrZero(n *int) int {
	if n == nil {
		return 0
	}
	return *n
}
