package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	if s.metrics != nil {
		r.Handle(s.metricsPath, s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Surface routes: any authenticated role.
			r.Get("/ws", s.handleWebSocket)
			r.Get("/grid", s.handleGetGrid)

			r.Route("/controls", func(r chi.Router) {
				r.Post("/abort", s.handleAbortAll)
				r.Get("/delayed", s.handleListDelayed)
				r.With(s.requireEditor).Get("/", s.handleListControls)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/style", s.handleRenderStyle)
					r.Post("/press", s.handlePress)
					r.Post("/rotate", s.handleRotate)
					r.Post("/abort", s.handleAbort)

					r.Group(func(r chi.Router) {
						r.Use(s.requireEditor)
						s.controlEditRoutes(r)
					})
				})
			})

			// Editing routes: editor role only.
			r.Group(func(r chi.Router) {
				r.Use(s.requireEditor)

				r.Route("/locations", func(r chi.Router) {
					r.Post("/copy", s.handleCopyControl)
					r.Post("/move", s.handleMoveControl)
					r.Post("/swap", s.handleSwapControls)
					r.Route("/{page}/{row}/{column}", func(r chi.Router) {
						r.Get("/", s.handleGetLocation)
						r.Post("/", s.handleCreateControl)
						r.Put("/", s.handleImportControl)
						r.Delete("/", s.handleDeleteAtLocation)
					})
				})

				r.Route("/triggers", func(r chi.Router) {
					r.Get("/", s.handleListTriggers)
					r.Post("/", s.handleCreateTrigger)
					r.Put("/order", s.handleReorderTriggers)
					r.Route("/{id}", func(r chi.Router) {
						r.Put("/", s.handleImportTrigger)
						r.Post("/duplicate", s.handleDuplicateTrigger)
						r.Post("/test", s.handleTestTrigger)
					})
				})

				r.Get("/learns", s.handleActiveLearns)

				r.Route("/variables", func(r chi.Router) {
					r.Get("/", s.handleListVariables)
					r.Put("/{name}", s.handleSetVariable)
				})

				r.Route("/connections", func(r chi.Router) {
					r.Get("/", s.handleListConnections)
					r.Delete("/{id}", s.handleDeleteConnection)
				})

				r.Route("/pages", func(r chi.Router) {
					r.Get("/", s.handleListPages)
					r.Route("/{page}", func(r chi.Router) {
						r.Get("/", s.handleGetPage)
						r.Put("/", s.handleSetPageName)
						r.Delete("/", s.handleDeletePage)
					})
				})
			})
		})
	})

	return r
}

// controlEditRoutes registers the editing commands under /controls/{id}.
func (s *Server) controlEditRoutes(r chi.Router) {
	r.Get("/", s.handleExportControl)
	r.Delete("/", s.handleDeleteControl)
	r.Post("/clone", s.handleCloneStandalone)
	r.Patch("/style", s.handleStyleSet)
	r.Put("/options/{key}", s.handleOptionSet)

	r.Route("/actions", func(r chi.Router) {
		r.Post("/", s.handleActionAdd)
		r.Route("/{actionID}", func(r chi.Router) {
			r.Patch("/", s.handleActionUpdate)
			r.Delete("/", s.handleActionRemove)
			r.Post("/duplicate", s.handleActionDuplicate)
			r.Post("/move", s.handleActionMove)
			r.Post("/learn", s.handleActionLearn)
			r.Put("/options", s.handleActionSetOptions)
			r.Put("/options/{key}", s.handleActionSetOption)
		})
	})

	r.Route("/feedbacks", func(r chi.Router) {
		r.Post("/", s.handleFeedbackAdd)
		r.Route("/{feedbackID}", func(r chi.Router) {
			r.Patch("/", s.handleFeedbackUpdate)
			r.Delete("/", s.handleFeedbackRemove)
			r.Post("/duplicate", s.handleFeedbackDuplicate)
			r.Post("/move", s.handleFeedbackMove)
			r.Post("/learn", s.handleFeedbackLearn)
			r.Put("/options", s.handleFeedbackSetOptions)
			r.Put("/options/{key}", s.handleFeedbackSetOption)
			r.Put("/style/{key}", s.handleFeedbackSetStyleValue)
			r.Put("/style-selection", s.handleFeedbackSetStyleSelection)
		})
	})

	r.Route("/steps", func(r chi.Router) {
		r.Post("/", s.handleStepAdd)
		r.Post("/swap", s.handleStepSwap)
		r.Route("/{stepID}", func(r chi.Router) {
			r.Patch("/", s.handleStepRename)
			r.Delete("/", s.handleStepRemove)
			r.Post("/duplicate", s.handleStepDuplicate)
			r.Post("/select", s.handleStepSelect)
			r.Post("/sets", s.handleSetAdd)
			r.Patch("/sets/{setID}", s.handleSetUpdate)
			r.Delete("/sets/{setID}", s.handleSetRemove)
		})
	})

	r.Route("/events", func(r chi.Router) {
		r.Post("/", s.handleEventAdd)
		r.Route("/{eventID}", func(r chi.Router) {
			r.Patch("/", s.handleEventUpdate)
			r.Delete("/", s.handleEventRemove)
			r.Post("/duplicate", s.handleEventDuplicate)
			r.Post("/move", s.handleEventMove)
			r.Put("/options/{key}", s.handleEventSetOption)
		})
	})
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"ws_client": s.hub.ClientCount(),
	})
}
