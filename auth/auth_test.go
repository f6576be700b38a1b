// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/danielhkuo/olympiad/models"
)

func TestSignActor(t *testing.T) {
	tests := []struct {
		name  string
		actor models.Actor
		salt  string
	}{
		{"admin", models.Actor{ID: "admin-1", Role: models.RoleAdmin}, "secret-salt"},
		{"coordinator", models.Actor{ID: "c-1", Role: models.RoleCoordinator, AreaID: "math"}, "salt"},
		{"empty salt", models.Actor{ID: "e-1", Role: models.RoleEvaluator, EvaluatorID: "ev-1"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := SignActor(tt.actor, tt.salt)

			if sig == "" {
				t.Error("SignActor() returned empty string")
			}

			// Should be deterministic
			if sig != SignActor(tt.actor, tt.salt) {
				t.Error("SignActor() is not deterministic")
			}

			// Any field change must change the signature
			changed := tt.actor
			changed.AreaID += "x"
			if sig == SignActor(changed, tt.salt) {
				t.Error("SignActor() produced same signature for a different area")
			}

			// Should be URL-safe (no padding)
			if strings.Contains(sig, "=") {
				t.Error("SignActor() contains padding characters")
			}
		})
	}
}

func TestVerifyActor(t *testing.T) {
	actor := models.Actor{ID: "c-1", Role: models.RoleCoordinator, AreaID: "math"}
	salt := "test-salt"
	valid := SignActor(actor, salt)

	promoted := actor
	promoted.Role = models.RoleAdmin

	tests := []struct {
		name      string
		actor     models.Actor
		signature string
		salt      string
		wantErr   bool
	}{
		{"valid signature", actor, valid, salt, false},
		{"wrong signature", actor, "wrong", salt, true},
		{"escalated role", promoted, valid, salt, true},
		{"wrong salt", actor, valid, "different-salt", true},
		{"empty signature", actor, "", salt, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyActor(tt.actor, tt.signature, tt.salt)
			if (err != nil) != tt.wantErr {
				t.Errorf("VerifyActor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && err != ErrInvalidSignature {
				t.Errorf("VerifyActor() error = %v, want %v", err, ErrInvalidSignature)
			}
		})
	}
}

func TestActorFromHeaders(t *testing.T) {
	salt := "header-salt"
	signed := func(a models.Actor) http.Header {
		h := http.Header{}
		SetHeaders(h, a, salt)
		return h
	}

	tests := []struct {
		name    string
		headers http.Header
		want    models.Actor
		wantErr error
	}{
		{
			name:    "admin",
			headers: signed(models.Actor{ID: "admin-1", Role: models.RoleAdmin}),
			want:    models.Actor{ID: "admin-1", Role: models.RoleAdmin},
		},
		{
			name:    "evaluator",
			headers: signed(models.Actor{ID: "u-1", Role: models.RoleEvaluator, EvaluatorID: "ev-1"}),
			want:    models.Actor{ID: "u-1", Role: models.RoleEvaluator, EvaluatorID: "ev-1"},
		},
		{
			name:    "missing headers",
			headers: http.Header{},
			wantErr: ErrMissingIdentity,
		},
		{
			name:    "system role is internal",
			headers: signed(models.SystemActor),
			wantErr: ErrUnknownRole,
		},
		{
			name:    "coordinator without area",
			headers: signed(models.Actor{ID: "c-1", Role: models.RoleCoordinator}),
			wantErr: ErrIncompleteActor,
		},
		{
			name: "tampered area",
			headers: func() http.Header {
				h := signed(models.Actor{ID: "c-1", Role: models.RoleCoordinator, AreaID: "math"})
				h.Set(HeaderUserArea, "physics")
				return h
			}(),
			wantErr: ErrInvalidSignature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ActorFromHeaders(tt.headers, salt)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ActorFromHeaders() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ActorFromHeaders() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ActorFromHeaders() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
