package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

type sized struct{}

func (sized) Error() string { return "too big" }
func (sized) Code() Code    { return ErrCodePieceTooLarge }

func TestErrorFormatting(t *testing.T) {
	err := New(ErrCodeInvalidInput, "bad width %d", 3)
	if got := err.Error(); got != "INVALID_INPUT: bad width 3" {
		t.Errorf("unexpected message %q", got)
	}

	wrapped := Wrap(ErrCodeFileNotFound, fmt.Errorf("open x: missing"), "cannot load %s", "x")
	if got := wrapped.Error(); got != "FILE_NOT_FOUND: cannot load x: open x: missing" {
		t.Errorf("unexpected message %q", got)
	}
	if UserMessage(wrapped) != "cannot load x" {
		t.Errorf("unexpected user message %q", UserMessage(wrapped))
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{"structured", New(ErrCodeInvalidFormat, "x"), ErrCodeInvalidFormat},
		{"wrapped structured", fmt.Errorf("ctx: %w", New(ErrCodeInternal, "x")), ErrCodeInternal},
		{"coder", sized{}, ErrCodePieceTooLarge},
		{"wrapped coder", fmt.Errorf("ctx: %w", sized{}), ErrCodePieceTooLarge},
		{"plain", stderrors.New("plain"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsClientError(t *testing.T) {
	if !IsClientError(sized{}) {
		t.Error("sizing failures are client errors")
	}
	if IsClientError(New(ErrCodeInternal, "boom")) {
		t.Error("internal errors are not client errors")
	}
	if !Is(New(ErrCodeInvalidInput, "x"), ErrCodeInvalidInput) {
		t.Error("Is should match the code")
	}
}
