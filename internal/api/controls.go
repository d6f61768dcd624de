package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-controls/internal/controls"
	"github.com/nerrad567/gray-logic-controls/internal/model"
)

// decode reads a JSON body into v. It writes a 400 and returns false on
// failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return false
	}
	return true
}

// reply writes the outcome of a command that reports success as a bool.
// A false result is a 404 when the control is unknown and a 409 otherwise.
func (s *Server) reply(w http.ResponseWriter, controlID string, ok bool, err error) {
	switch {
	case err != nil:
		writeControlError(w, err)
	case !ok:
		s.rejected(w, controlID)
	default:
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// replyID writes the outcome of a command that creates a node.
func (s *Server) replyID(w http.ResponseWriter, controlID, newID string, err error) {
	switch {
	case err != nil:
		writeControlError(w, err)
	case newID == "":
		s.rejected(w, controlID)
	default:
		writeJSON(w, http.StatusCreated, map[string]string{"id": newID})
	}
}

func (s *Server) rejected(w http.ResponseWriter, controlID string) {
	if _, exists := s.controller.GetControl(controlID); !exists {
		writeNotFound(w, "control not found")
		return
	}
	writeError(w, http.StatusConflict, ErrCodeRejected, "command rejected")
}

// parseLocation reads the page/row/column URL parameters.
func parseLocation(r *http.Request) (model.Location, error) {
	var loc model.Location
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"page", &loc.Page},
		{"row", &loc.Row},
		{"column", &loc.Column},
	} {
		n, err := strconv.Atoi(chi.URLParam(r, p.name))
		if err != nil {
			return loc, fmt.Errorf("invalid %s", p.name)
		}
		*p.dst = n
	}
	return loc, nil
}

// locationParam parses the URL location and checks it is on the grid.
func (s *Server) locationParam(w http.ResponseWriter, r *http.Request) (model.Location, bool) {
	loc, err := parseLocation(r)
	if err != nil {
		writeBadRequest(w, err.Error())
		return loc, false
	}
	if !s.grid.IsValid(loc) {
		writeBadRequest(w, "location is outside the grid")
		return loc, false
	}
	return loc, true
}

// handleGetGrid returns the grid dimensions and every occupied slot.
func (s *Server) handleGetGrid(w http.ResponseWriter, _ *http.Request) {
	pages, rows, columns := s.grid.Dimensions()
	writeJSON(w, http.StatusOK, map[string]any{
		"pages":    pages,
		"rows":     rows,
		"columns":  columns,
		"bindings": s.grid.Bindings(),
	})
}

// handleGetLocation returns the control bound at a slot.
func (s *Server) handleGetLocation(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.locationParam(w, r)
	if !ok {
		return
	}
	id := s.grid.GetControlIDAt(loc)
	if id == "" {
		writeNotFound(w, "no control at location")
		return
	}
	m, _ := s.controller.ExportControl(id)
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "model": m})
}

type createControlRequest struct {
	Type string `json:"type"`
}

// handleCreateControl creates a bank control, replacing any occupant.
func (s *Server) handleCreateControl(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.locationParam(w, r)
	if !ok {
		return
	}
	var req createControlRequest
	if !decode(w, r, &req) {
		return
	}
	id, created := s.controller.CreateControl(loc, req.Type)
	if !created {
		writeBadRequest(w, "unknown control type: "+req.Type)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleImportControl places an exported control model at a slot with
// fresh ids.
func (s *Server) handleImportControl(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.locationParam(w, r)
	if !ok {
		return
	}
	var m model.ControlModel
	if !decode(w, r, &m) {
		return
	}
	id, imported := s.controller.ImportControl(r.Context(), loc, m)
	if !imported {
		writeBadRequest(w, "model is not a bank control")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// handleDeleteAtLocation deletes whatever is bound at a slot.
func (s *Server) handleDeleteAtLocation(w http.ResponseWriter, r *http.Request) {
	loc, ok := s.locationParam(w, r)
	if !ok {
		return
	}
	id := s.grid.GetControlIDAt(loc)
	if id == "" || !s.controller.DeleteControl(id) {
		writeNotFound(w, "no control at location")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type locationPairRequest struct {
	From model.Location `json:"from"`
	To   model.Location `json:"to"`
}

func (s *Server) locationPair(w http.ResponseWriter, r *http.Request) (locationPairRequest, bool) {
	var req locationPairRequest
	if !decode(w, r, &req) {
		return req, false
	}
	if !s.grid.IsValid(req.From) || !s.grid.IsValid(req.To) {
		writeBadRequest(w, "location is outside the grid")
		return req, false
	}
	return req, true
}

// handleCopyControl copies the control at from onto to.
func (s *Server) handleCopyControl(w http.ResponseWriter, r *http.Request) {
	req, ok := s.locationPair(w, r)
	if !ok {
		return
	}
	if !s.controller.CopyControl(req.From, req.To) {
		writeNotFound(w, "no control at source location")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": s.grid.GetControlIDAt(req.To)})
}

// handleMoveControl moves the control at from onto to.
func (s *Server) handleMoveControl(w http.ResponseWriter, r *http.Request) {
	req, ok := s.locationPair(w, r)
	if !ok {
		return
	}
	if !s.controller.MoveControl(req.From, req.To) {
		writeNotFound(w, "no control at source location")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleSwapControls exchanges two slots.
func (s *Server) handleSwapControls(w http.ResponseWriter, r *http.Request) {
	req, ok := s.locationPair(w, r)
	if !ok {
		return
	}
	if !s.controller.SwapControls(req.From, req.To) {
		writeError(w, http.StatusConflict, ErrCodeRejected, "nothing to swap")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleListControls returns every control id.
func (s *Server) handleListControls(w http.ResponseWriter, _ *http.Request) {
	ids := s.controller.ControlIDs()
	writeJSON(w, http.StatusOK, map[string]any{"controls": ids, "count": len(ids)})
}

// handleExportControl returns a control's model.
func (s *Server) handleExportControl(w http.ResponseWriter, r *http.Request) {
	m, ok := s.controller.ExportControl(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "control not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// handleDeleteControl deletes a control by id.
func (s *Server) handleDeleteControl(w http.ResponseWriter, r *http.Request) {
	if !s.controller.DeleteControl(chi.URLParam(r, "id")) {
		writeNotFound(w, "control not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleCloneStandalone clones a control that is not on the grid.
func (s *Server) handleCloneStandalone(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	newID, _ := s.controller.CloneStandalone(id)
	s.replyID(w, id, newID, nil)
}

// handleRenderStyle returns a control's style with feedbacks applied.
func (s *Server) handleRenderStyle(w http.ResponseWriter, r *http.Request) {
	style, ok := s.controller.RenderStyle(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "control not found")
		return
	}
	writeJSON(w, http.StatusOK, style)
}

// handleStyleSet merges a partial style into a control.
func (s *Server) handleStyleSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var diff map[string]any
	if !decode(w, r, &diff) {
		return
	}
	ok, err := s.controller.StyleSet(id, diff)
	s.reply(w, id, ok, err)
}

type valueRequest struct {
	Value any `json:"value"`
}

// handleOptionSet sets one control option.
func (s *Server) handleOptionSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req valueRequest
	if !decode(w, r, &req) {
		return
	}
	ok, err := s.controller.OptionSet(id, chi.URLParam(r, "key"), req.Value)
	s.reply(w, id, ok, err)
}

type pressRequest struct {
	Pressed   bool   `json:"pressed"`
	SurfaceID string `json:"surfaceId"`
}

// handlePress presses or releases a control.
func (s *Server) handlePress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req pressRequest
	if !decode(w, r, &req) {
		return
	}
	s.reply(w, id, s.controller.PressControl(id, req.Pressed, s.surfaceID(r, req.SurfaceID)), nil)
}

type rotateRequest struct {
	Right     bool   `json:"right"`
	SurfaceID string `json:"surfaceId"`
}

// handleRotate turns a control's encoder.
func (s *Server) handleRotate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req rotateRequest
	if !decode(w, r, &req) {
		return
	}
	s.reply(w, id, s.controller.RotateControl(id, req.Right, s.surfaceID(r, req.SurfaceID)), nil)
}

type abortRequest struct {
	SkipUp bool `json:"skipUp"`
}

// handleAbort cancels a control's pending delayed actions. An empty body
// is allowed.
func (s *Server) handleAbort(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req abortRequest
	if r.ContentLength != 0 && !decode(w, r, &req) {
		return
	}
	if _, exists := s.controller.GetControl(id); !exists {
		writeNotFound(w, "control not found")
		return
	}
	aborted := s.controller.AbortDelayedActions(id, req.SkipUp)
	writeJSON(w, http.StatusOK, map[string]bool{"aborted": aborted})
}

// handleAbortAll cancels every pending delayed action.
func (s *Server) handleAbortAll(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"aborted": s.controller.AbortAllDelayedActions()})
}

// handleListDelayed lists controls with scheduled or repeating actions.
func (s *Server) handleListDelayed(w http.ResponseWriter, _ *http.Request) {
	delayed := s.controller.DelayedActions()
	if delayed == nil {
		delayed = []controls.DelayedSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"delayed": delayed, "count": len(delayed)})
}

// surfaceID falls back to the token subject when the body names no surface.
func (s *Server) surfaceID(r *http.Request, requested string) string {
	if requested != "" {
		return requested
	}
	if claims := claimsFrom(r.Context()); claims != nil {
		return claims.Subject
	}
	return ""
}
