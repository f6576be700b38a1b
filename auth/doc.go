// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth verifies the acting user supplied by the identity collaborator.

# Actor Headers

Every workflow request carries the actor as plain headers:

	X-User-ID         user id
	X-User-Role       admin | coordinador | evaluador
	X-User-Area       area id (coordinators)
	X-Evaluator-ID    evaluator registration id (evaluators)
	X-User-Signature  HMAC-SHA256 over the fields above

The signature is keyed with IDENTITY_SALT, shared with the identity
collaborator:

	sig := auth.SignActor(actor, salt)
	actor, err := auth.ActorFromHeaders(r.Header, salt)

Signatures are URL-safe base64 without padding. Like the fields they cover
they are deterministic, so nothing is stored. A changed role or area breaks
the signature, which stops a coordinator from widening its own scope.

The internal system role, used for deadline-triggered closures, is never
accepted from a request.
*/
package auth
