package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"agencyboard/internal/session"
)

// Headers identifying the acting operator.
const (
	HeaderActorID    = "X-Actor-Id"
	HeaderActorName  = "X-Actor-Name"
	HeaderActorAdmin = "X-Actor-Admin"
	HeaderRequestID  = "X-Request-Id"
)

// authMiddleware returns a middleware that validates bearer tokens.
// If token is empty, no authentication is required and all requests pass through.
// Otherwise, requests must include "Authorization: Bearer <token>" header.
func authMiddleware(token string, next http.HandlerFunc) http.HandlerFunc {
	if token == "" {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			unauthorized(w)
			return
		}
		if subtle.ConstantTimeCompare([]byte(strings.TrimPrefix(auth, "Bearer ")), []byte(token)) != 1 {
			unauthorized(w)
			return
		}
		next(w, r)
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="agencyboard"`)
	http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
}

// withRequestContext threads the actor and a correlation id through the
// request context.
func withRequestContext(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get(HeaderRequestID))
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, rid)
		ctx := session.WithRequestID(r.Context(), rid)
		ctx = session.WithActor(ctx, ActorFromRequest(r))
		next(w, r.WithContext(ctx))
	}
}

// ActorFromRequest reads the operator headers. Missing headers yield the
// anonymous actor, which guarded boards refuse for handler-stamping moves.
func ActorFromRequest(r *http.Request) session.Actor {
	actor := session.Actor{
		UserID:      strings.TrimSpace(r.Header.Get(HeaderActorID)),
		DisplayName: strings.TrimSpace(r.Header.Get(HeaderActorName)),
	}
	if raw := strings.TrimSpace(r.Header.Get(HeaderActorAdmin)); raw != "" {
		actor.Admin, _ = strconv.ParseBool(raw)
	}
	return actor
}

func actorOf(r *http.Request) session.Actor {
	if actor, ok := session.ActorFromContext(r.Context()); ok {
		return actor
	}
	return ActorFromRequest(r)
}
