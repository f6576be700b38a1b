package apperr

import (
	"errors"
	"fmt"
	"io"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad %s", "input"), KindValidation},
		{"forbidden", Forbidden("no"), KindAuthorization},
		{"not found", NotFound("missing"), KindNotFound},
		{"conflict", Conflict("closed"), KindConflict},
		{"incomplete", Incomplete(2, "not done"), KindIncompleteState},
		{"wrapped with fmt", fmt.Errorf("closing: %w", Conflict("closed")), KindConflict},
		{"foreign", io.EOF, KindInfrastructure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %s, want %s", got, tt.want)
			}
			if !Is(tt.err, tt.want) && tt.want != KindInfrastructure {
				t.Errorf("Is(%v, %s) = false", tt.err, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("keeps workflow errors", func(t *testing.T) {
		orig := Conflict("area %s is closed", "math")
		if got := Wrap(orig, "failed to close area"); got != orig {
			t.Errorf("Wrap() replaced a workflow error: %v", got)
		}
	})

	t.Run("marks foreign errors as infrastructure", func(t *testing.T) {
		got := Wrap(io.ErrUnexpectedEOF, "failed to close area")
		if got.Kind != KindInfrastructure || got.Message != "failed to close area" {
			t.Errorf("Wrap() = %+v", got)
		}
		if !errors.Is(got, io.ErrUnexpectedEOF) {
			t.Error("Wrap() lost the cause")
		}
	})
}

func TestIncompleteData(t *testing.T) {
	err := Incomplete(3, "3 enrollments lack a score").With("percentage", 70.0)

	if err.Data["missing"] != 3 {
		t.Errorf("missing = %v, want 3", err.Data["missing"])
	}
	if err.Data["percentage"] != 70.0 {
		t.Errorf("percentage = %v, want 70", err.Data["percentage"])
	}
	if err.Error() != "incomplete_state: 3 enrollments lack a score" {
		t.Errorf("Error() = %q", err.Error())
	}
}
