/*
handlers.go - HTTP handlers for the budget-projection API

PURPOSE:
  Exposes the projection engine over REST. Handles JSON, validation and
  error mapping; all math stays in the budget package.

ENDPOINTS:
  Catalog:
    GET    /api/properties                     Active properties
    GET    /api/properties/{id}/units          Units with ownership fractions

  Projections (one server-side workspace per generated projection):
    POST   /api/projections                    Generate a projection
    GET    /api/projections/{id}               Current table
    PUT    /api/projections/{id}/indices/{code}  Set a reajustment percent
    PUT    /api/projections/{id}/overrides     Pin one cell
    DELETE /api/projections/{id}/overrides     Unpin one cell
    GET    /api/projections/{id}/apportionment Per-unit split
    POST   /api/projections/{id}/save          Persist the operator maps

  Saved sessions:
    GET    /api/sessions?property_id=X         List saved workspaces
    POST   /api/sessions/{id}/load             Rebuild a projection from one
    DELETE /api/sessions/{id}                  Delete one

  Scenarios (demo upstream only):
    GET    /api/scenarios                      List demo datasets
    POST   /api/scenarios/load                 Seed the demo upstream

ERROR HANDLING:
  - 400: validation errors (missing property/month, bad bodies)
  - 404: unknown projection or saved session
  - 409: projection superseded by a newer request
  - 502: upstream failure that could not be degraded
  - 500: everything else

SEE ALSO:
  - dto.go:       request/response shapes
  - scenarios.go: demo dataset loaders
  - server.go:    routing and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/predial/budget-engine/budget"
	"github.com/predial/budget-engine/store/sqlite"
	"github.com/predial/budget-engine/upstream"
	"github.com/predial/budget-engine/upstream/memory"
)

// =============================================================================
// HANDLER
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Upstream upstream.Client
	Store    *sqlite.Store
	Logger   *slog.Logger

	svc      *budget.Service
	validate *validator.Validate

	mu          sync.Mutex
	projections map[string]*budget.Session

	// demo is set when the upstream is the in-memory fixture client;
	// scenario endpoints only work against it.
	demo *memory.Client
}

// NewHandler wires the handler. store may be nil (saving disabled);
// demo may be nil (scenario endpoints return 404).
func NewHandler(client upstream.Client, store *sqlite.Store, demo *memory.Client, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Upstream:    client,
		Store:       store,
		Logger:      logger,
		svc:         budget.NewService(client, logger),
		validate:    validator.New(),
		projections: make(map[string]*budget.Session),
		demo:        demo,
	}
}

func (h *Handler) session(id string) (*budget.Session, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.projections[id]
	return s, ok
}

// =============================================================================
// CATALOG
// =============================================================================

// ListProperties returns the tenant's active properties.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	properties, err := h.Upstream.FetchProperties(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to list properties", err)
		return
	}

	dtos := make([]PropertyDTO, len(properties))
	for i, p := range properties {
		dtos[i] = PropertyDTO{ID: p.ID, Name: p.Name}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListUnits returns a property's units.
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	units, err := h.Upstream.FetchUnits(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to list units", err)
		return
	}

	dtos := make([]UnitDTO, len(units))
	for i, u := range units {
		dtos[i] = UnitDTO{
			ID:                u.ID,
			Name:              u.Name,
			OwnerName:         u.OwnerName,
			OwnershipFraction: u.OwnershipFraction.InexactFloat64(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PROJECTIONS
// =============================================================================

// GenerateProjection creates a new projection workspace.
func (h *Handler) GenerateProjection(w http.ResponseWriter, r *http.Request) {
	var req GenerateProjectionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	closing, err := time.ParseInLocation("2006-01", req.ClosingMonth, time.UTC)
	if err != nil {
		writeError(w, http.StatusBadRequest, "closing_month must be YYYY-MM", err)
		return
	}

	session := budget.NewSession(h.svc)
	if _, err := session.Generate(r.Context(), req.PropertyID, closing); err != nil {
		h.writeEngineError(w, err)
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.projections[id] = session
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, toProjectionDTO(id, session))
}

// GetProjection returns the current table of one workspace.
func (h *Handler) GetProjection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, ok := h.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Projection not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toProjectionDTO(id, session))
}

// SetIndex sets one parent account's reajustment percent and returns
// the recomputed table.
func (h *Handler) SetIndex(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, ok := h.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Projection not found", nil)
		return
	}

	var req SetIndexRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := session.SetReajustmentIndex(chi.URLParam(r, "code"), req.Percent); err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectionDTO(id, session))
}

// SetOverride pins one cell and returns the recomputed table.
func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, ok := h.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Projection not found", nil)
		return
	}

	var req SetOverrideRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	_, err := session.SetManualOverride(req.RowKey, budget.ColumnKey(req.Column), decimal.NewFromFloat(req.Value))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectionDTO(id, session))
}

// ClearOverride unpins one cell and returns the recomputed table.
func (h *Handler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, ok := h.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Projection not found", nil)
		return
	}

	var req ClearOverrideRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if _, err := session.ClearManualOverride(req.RowKey, budget.ColumnKey(req.Column)); err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectionDTO(id, session))
}

// GetApportionment splits the projected monthly average across units.
func (h *Handler) GetApportionment(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Projection not found", nil)
		return
	}

	res, err := session.Apportion(r.Context())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toApportionmentDTO(session.Result().MonthlyAverage(), res))
}

// =============================================================================
// SAVED SESSIONS
// =============================================================================

// SaveSession persists the workspace's operator maps.
func (h *Handler) SaveSession(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotFound, "Persistence disabled", nil)
		return
	}

	id := chi.URLParam(r, "id")
	session, ok := h.session(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Projection not found", nil)
		return
	}

	var req SaveSessionRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	rec := sqlite.SessionRecord{
		ID:           id,
		PropertyID:   session.PropertyID(),
		Name:         req.Name,
		ClosingMonth: session.ClosingMonth(),
		Indices:      session.Indices(),
		Overrides:    sqlite.OverridesToRecords(session.Overrides()),
	}
	if err := h.Store.SaveSession(r.Context(), rec); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save session", err)
		return
	}
	writeJSON(w, http.StatusOK, SavedSessionDTO{
		ID:           rec.ID,
		PropertyID:   rec.PropertyID,
		Name:         rec.Name,
		ClosingMonth: rec.ClosingMonth.Format("2006-01"),
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339),
	})
}

// ListSessions lists a property's saved workspaces.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotFound, "Persistence disabled", nil)
		return
	}

	propertyID := r.URL.Query().Get("property_id")
	if propertyID == "" {
		writeError(w, http.StatusBadRequest, "property_id query parameter is required", nil)
		return
	}

	records, err := h.Store.ListSessions(r.Context(), propertyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions", err)
		return
	}

	dtos := make([]SavedSessionDTO, len(records))
	for i, rec := range records {
		dtos[i] = SavedSessionDTO{
			ID:           rec.ID,
			PropertyID:   rec.PropertyID,
			Name:         rec.Name,
			ClosingMonth: rec.ClosingMonth.Format("2006-01"),
			UpdatedAt:    rec.UpdatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// LoadSession rebuilds a projection workspace from a saved record: a
// fresh fetch, then the saved maps restored on top.
func (h *Handler) LoadSession(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotFound, "Persistence disabled", nil)
		return
	}

	rec, err := h.Store.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, sqlite.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Saved session not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load session", err)
		return
	}

	session := budget.NewSession(h.svc)
	if _, err := session.Generate(r.Context(), rec.PropertyID, rec.ClosingMonth); err != nil {
		h.writeEngineError(w, err)
		return
	}
	if _, err := session.Restore(rec.Indices, sqlite.RecordsToOverrides(rec.Overrides)); err != nil {
		h.writeEngineError(w, err)
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.projections[id] = session
	h.mu.Unlock()

	writeJSON(w, http.StatusCreated, toProjectionDTO(id, session))
}

// DeleteSession removes one saved workspace.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusNotFound, "Persistence disabled", nil)
		return
	}

	err := h.Store.DeleteSession(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, sqlite.ErrSessionNotFound) {
		writeError(w, http.StatusNotFound, "Saved session not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// writeEngineError maps engine errors onto HTTP statuses.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case budget.IsValidationError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, budget.ErrSuperseded):
		writeError(w, http.StatusConflict, err.Error(), nil)
	default:
		h.Logger.Error("projection failed", slog.Any("error", err))
		writeError(w, http.StatusBadGateway, "Upstream failure", err)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
