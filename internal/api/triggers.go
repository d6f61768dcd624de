package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-controls/internal/location"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// handleListTriggers returns triggers in sort order.
func (s *Server) handleListTriggers(w http.ResponseWriter, _ *http.Request) {
	triggers := s.controller.Triggers()
	writeJSON(w, http.StatusOK, map[string]any{"triggers": triggers, "count": len(triggers)})
}

// handleCreateTrigger creates a disabled trigger at the end of the order.
func (s *Server) handleCreateTrigger(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, map[string]string{"id": s.controller.CreateTrigger()})
}

// handleDuplicateTrigger copies a trigger and places it after the original.
func (s *Server) handleDuplicateTrigger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	newID, _ := s.controller.DuplicateTrigger(id)
	s.replyID(w, id, newID, nil)
}

// handleTestTrigger runs a trigger's actions once, ignoring its events.
func (s *Server) handleTestTrigger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.reply(w, id, s.controller.TriggerTest(id), nil)
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// handleReorderTriggers applies a new trigger order. Unknown ids are skipped.
func (s *Server) handleReorderTriggers(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if !decode(w, r, &req) {
		return
	}
	if !s.controller.TriggerReorder(req.IDs) {
		writeBadRequest(w, "no known trigger ids")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"triggers": s.controller.Triggers()})
}

// handleImportTrigger creates a trigger from an exported model, keeping its id.
func (s *Server) handleImportTrigger(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var m model.ControlModel
	if !decode(w, r, &m) {
		return
	}
	if err := s.controller.ImportTrigger(r.Context(), id, m); err != nil {
		writeControlError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleActiveLearns lists the ids with a learn in flight.
func (s *Server) handleActiveLearns(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"active": s.controller.ActiveLearns()})
}

// handleListVariables returns every custom variable.
func (s *Server) handleListVariables(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Variables().All())
}

// handleSetVariable sets a custom variable. Unchanged values publish nothing.
func (s *Server) handleSetVariable(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if !decode(w, r, &req) {
		return
	}
	changed := s.controller.Variables().Set(chi.URLParam(r, "name"), req.Value)
	writeJSON(w, http.StatusOK, map[string]bool{"changed": changed})
}

// ─── Pages ───────────────────────────────────────────────────────────

// pageParam parses and range-checks the page URL parameter.
func (s *Server) pageParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || !s.grid.IsPageValid(page) {
		writeBadRequest(w, location.ErrInvalidPage.Error())
		return 0, false
	}
	return page, true
}

func (s *Server) requirePages(w http.ResponseWriter) bool {
	if s.pages == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeInternal, "page storage not configured")
		return false
	}
	return true
}

// handleListPages returns every named page.
func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	if !s.requirePages(w) {
		return
	}
	pages, err := s.pages.ListPages(r.Context())
	if err != nil {
		s.logger.Error("listing pages failed", "error", err)
		writeInternalError(w, "failed to list pages")
		return
	}
	if pages == nil {
		pages = []location.Page{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pages": pages, "count": len(pages)})
}

// handleGetPage returns a page's name and occupied slots.
func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	page, ok := s.pageParam(w, r)
	if !ok || !s.requirePages(w) {
		return
	}
	p, err := s.pages.GetPage(r.Context(), page)
	switch {
	case errors.Is(err, location.ErrPageNotFound):
		p = &location.Page{Number: page}
	case err != nil:
		s.logger.Error("getting page failed", "page", page, "error", err)
		writeInternalError(w, "failed to get page")
		return
	}
	bindings := s.grid.PageBindings(page)
	if bindings == nil {
		bindings = []location.Binding{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": p, "bindings": bindings})
}

type pageNameRequest struct {
	Name string `json:"name"`
}

// handleSetPageName names or renames a page.
func (s *Server) handleSetPageName(w http.ResponseWriter, r *http.Request) {
	page, ok := s.pageParam(w, r)
	if !ok || !s.requirePages(w) {
		return
	}
	var req pageNameRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.pages.SetPageName(r.Context(), page, req.Name); err != nil {
		if errors.Is(err, location.ErrInvalidName) {
			writeBadRequest(w, err.Error())
			return
		}
		s.logger.Error("naming page failed", "page", page, "error", err)
		writeInternalError(w, "failed to name page")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"number": page, "name": req.Name})
}

// handleDeletePage clears a page's stored name.
func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	page, ok := s.pageParam(w, r)
	if !ok || !s.requirePages(w) {
		return
	}
	if err := s.pages.DeletePage(r.Context(), page); err != nil {
		if errors.Is(err, location.ErrPageNotFound) {
			writeNotFound(w, err.Error())
			return
		}
		s.logger.Error("deleting page failed", "page", page, "error", err)
		writeInternalError(w, "failed to delete page")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
