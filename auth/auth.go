// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/danielhkuo/olympiad/models"
)

// Actor headers set by the identity collaborator.
const (
	HeaderUserID      = "X-User-ID"
	HeaderUserRole    = "X-User-Role"
	HeaderUserArea    = "X-User-Area"
	HeaderEvaluatorID = "X-Evaluator-ID"
	HeaderSignature   = "X-User-Signature"
)

var (
	ErrMissingIdentity  = errors.New("missing identity headers")
	ErrInvalidSignature = errors.New("invalid identity signature")
	ErrUnknownRole      = errors.New("unknown role")
	ErrIncompleteActor  = errors.New("incomplete actor binding")
)

// canonical is the signed form of an actor. Field order is fixed.
func canonical(a models.Actor) string {
	return strings.Join([]string{a.ID, string(a.Role), a.AreaID, a.EvaluatorID}, "\n")
}

// SignActor creates an HMAC signature over the actor's identity fields.
// It is deterministic, so the engine never stores issued signatures.
func SignActor(a models.Actor, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(canonical(a)))
	sum := h.Sum(nil)
	// URL-safe base64 without padding fits in a header value
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// VerifyActor checks a signature produced by SignActor.
func VerifyActor(a models.Actor, signature, salt string) error {
	expected := SignActor(a, salt)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return ErrInvalidSignature
	}
	return nil
}

// ValidateActor checks the role and its required binding: coordinators need
// an area and evaluators an evaluator registration.
func ValidateActor(a models.Actor) error {
	if a.ID == "" {
		return ErrMissingIdentity
	}
	switch a.Role {
	case models.RoleAdmin:
	case models.RoleCoordinator:
		if a.AreaID == "" {
			return ErrIncompleteActor
		}
	case models.RoleEvaluator:
		if a.EvaluatorID == "" {
			return ErrIncompleteActor
		}
	default:
		// The system role is internal and never accepted from a request.
		return ErrUnknownRole
	}
	return nil
}

// ActorFromHeaders reads and verifies the signed actor headers.
func ActorFromHeaders(h http.Header, salt string) (models.Actor, error) {
	a := models.Actor{
		ID:          strings.TrimSpace(h.Get(HeaderUserID)),
		Role:        models.Role(strings.TrimSpace(h.Get(HeaderUserRole))),
		AreaID:      strings.TrimSpace(h.Get(HeaderUserArea)),
		EvaluatorID: strings.TrimSpace(h.Get(HeaderEvaluatorID)),
	}
	if a.ID == "" || a.Role == "" {
		return models.Actor{}, ErrMissingIdentity
	}
	if err := ValidateActor(a); err != nil {
		return models.Actor{}, err
	}
	if err := VerifyActor(a, h.Get(HeaderSignature), salt); err != nil {
		return models.Actor{}, err
	}
	return a, nil
}

// SetHeaders writes signed actor headers, as the identity collaborator does.
func SetHeaders(h http.Header, a models.Actor, salt string) {
	h.Set(HeaderUserID, a.ID)
	h.Set(HeaderUserRole, string(a.Role))
	if a.AreaID != "" {
		h.Set(HeaderUserArea, a.AreaID)
	}
	if a.EvaluatorID != "" {
		h.Set(HeaderEvaluatorID, a.EvaluatorID)
	}
	h.Set(HeaderSignature, SignActor(a, salt))
}
