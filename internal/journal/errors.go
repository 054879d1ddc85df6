package journal

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("紀錄不存在")
	ErrDuplicate    = errors.New("已存在")
	ErrLastCategory = errors.New("至少保留一個")
	ErrKindMismatch = errors.New("不可變更紀錄類別")
)

// ValidationError is a rejected form field. Message is shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// ConfirmError is returned by destructive operations that were not confirmed.
// Retrying the same call with confirmation performs it.
type ConfirmError struct {
	Prompt string
}

func (e *ConfirmError) Error() string {
	return "confirmation required: " + e.Prompt
}

func needConfirm(prompt string) error {
	return &ConfirmError{Prompt: prompt}
}

// IsConfirm reports whether err asks for confirmation.
func IsConfirm(err error) bool {
	var ce *ConfirmError
	return errors.As(err, &ce)
}
