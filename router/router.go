// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"fmt"
	"log/slog"
	"net/http"

	gorillahandlers "github.com/gorilla/handlers"

	"github.com/danielhkuo/olympiad/balancer"
	"github.com/danielhkuo/olympiad/classify"
	"github.com/danielhkuo/olympiad/cliparse"
	"github.com/danielhkuo/olympiad/closure"
	"github.com/danielhkuo/olympiad/events"
	"github.com/danielhkuo/olympiad/handlers"
	"github.com/danielhkuo/olympiad/medals"
	"github.com/danielhkuo/olympiad/metrics"
	"github.com/danielhkuo/olympiad/middleware"
	"github.com/danielhkuo/olympiad/review"
	"github.com/danielhkuo/olympiad/store"
	"github.com/danielhkuo/olympiad/thresholds"
)

// Services are the workflow components the routes call into.
type Services struct {
	Balancer   *balancer.Service
	Review     *review.Service
	Closure    *closure.Service
	Medals     *medals.Service
	Thresholds *thresholds.Provider
	Engine     *classify.Engine
}

// NewServices wires the workflow components over one store and emitter.
func NewServices(st store.Store, settings cliparse.Settings, emitter events.Emitter) Services {
	th := thresholds.NewProvider(st, settings.PassingScore, settings.MedalDefaults())
	engine := classify.NewEngine(st, classify.WithEmitter(emitter))
	closures := closure.NewService(st, engine, th,
		closure.WithReversalWindow(settings.ReversalWindow),
		closure.WithEmitter(emitter),
	)

	return Services{
		Balancer:   balancer.NewService(st, emitter, settings.DefaultQuota),
		Review:     review.NewService(st, th, engine, closures, review.WithEmitter(emitter)),
		Closure:    closures,
		Medals:     medals.NewService(st, th, emitter),
		Thresholds: th,
		Engine:     engine,
	}
}

func NewRouter(svc Services, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	assignmentHandler := handlers.NewAssignmentHandler(svc.Balancer)
	scoreHandler := handlers.NewScoreHandler(svc.Review, svc.Engine)
	closureHandler := handlers.NewClosureHandler(svc.Closure)
	medalHandler := handlers.NewMedalHandler(svc.Medals)
	settingsHandler := handlers.NewSettingsHandler(svc.Thresholds)

	// Workflow routes require a signed actor
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, middleware.WithLogging(middleware.WithActor(cfg.IdentitySalt, h)))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	// Assignments
	handle("POST /areas/{area}/assignments", assignmentHandler.Assign)

	// Scores and the change-approval workflow
	handle("POST /scores", scoreHandler.SubmitScore)
	handle("POST /enrollments/{id}/disqualify", scoreHandler.Disqualify)
	handle("POST /score-changes/{id}/approve", scoreHandler.Approve)
	handle("POST /score-changes/{id}/reject", scoreHandler.Reject)
	handle("POST /score-changes/{id}/request-info", scoreHandler.RequestInfo)

	// Area phase closure
	handle("GET /areas/{area}/phases/{phase}/progress", closureHandler.GetProgress)
	handle("POST /areas/{area}/phases/{phase}/close", closureHandler.CloseArea)
	handle("GET /phases/{phase}/areas", closureHandler.ListAreas)

	// Competition closure
	handle("GET /competition", closureHandler.GetCompetition)
	handle("POST /competition/close", closureHandler.CloseCompetition)
	handle("POST /competition/auto-close", closureHandler.AutoClose)
	handle("POST /competition/revert", closureHandler.RevertCompetition)
	handle("PUT /competition/deadline", closureHandler.SetDeadline)

	// Medals and thresholds
	handle("POST /areas/{area}/medals", medalHandler.Allocate)
	handle("PUT /settings/passing-score", settingsHandler.SetPassingScore)
	handle("PUT /settings/medals", settingsHandler.SetMedalTier)

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("olympiad workflow API v1"))
	})

	return mux
}

// recoveryLogger sends recovered panics to slog.
type recoveryLogger struct{}

func (recoveryLogger) Println(v ...interface{}) {
	slog.Error("handler panic recovered", "error", fmt.Sprint(v...))
}

// Wrap adds panic recovery and CORS around the routes.
func Wrap(h http.Handler) http.Handler {
	recovery := gorillahandlers.RecoveryHandler(
		gorillahandlers.RecoveryLogger(recoveryLogger{}),
		gorillahandlers.PrintRecoveryStack(true),
	)
	return recovery(middleware.CORS(h))
}
