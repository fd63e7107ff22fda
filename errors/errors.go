package errors

import "fmt"

var (
	ErrWorkerPanic         = fmt.Errorf("worker panic")
	ErrValidation          = fmt.Errorf("validation failed")
	ErrNameTaken           = fmt.Errorf("participant name already taken")
	ErrParticipantNotFound = fmt.Errorf("participant not found")
	ErrMessageNotFound     = fmt.Errorf("message not found")
	ErrUnauthorized        = fmt.Errorf("requester does not own the message")
	ErrInvalidSender       = fmt.Errorf("sender is not an active participant")
	ErrStoreUnavailable    = fmt.Errorf("store unavailable")
)
