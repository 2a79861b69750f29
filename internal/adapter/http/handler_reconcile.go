package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/datasteward/steward/internal/domain"
	"github.com/datasteward/steward/internal/usecase"
)

// ReconcileService defines the behavior the reconcile handler depends on
type ReconcileService interface {
	Reconcile(ctx context.Context, req usecase.ReconcileRequest) (*usecase.ReconcileResult, error)
}

// reconcileBody is the request body of a save
type reconcileBody struct {
	SessionID string       `json:"session_id"`
	Original  []domain.Row `json:"original"`
	Rows      []domain.Row `json:"rows"`
	DryRun    bool         `json:"dry_run"`
}

// ReconcileHandler saves edited table snapshots
type ReconcileHandler struct {
	reconciler ReconcileService
}

// NewReconcileHandler creates a new reconcile handler
func NewReconcileHandler(reconciler ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler}
}

// RegisterRoutes registers reconcile routes
func (h *ReconcileHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/schemas/{schema}/tables/{table}/reconcile", h.Reconcile).Methods("POST")
}

// Reconcile applies the difference between the original and edited rows
func (h *ReconcileHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var body reconcileBody
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&body); err != nil {
		writeErrorResponse(w, domain.ErrInvalidRequest("invalid request body: "+err.Error()))
		return
	}
	if body.Rows == nil {
		writeErrorResponse(w, domain.ErrInvalidRequest("rows are required"))
		return
	}

	dryRun := body.DryRun
	if v := r.URL.Query().Get("dry_run"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			writeErrorResponse(w, domain.ErrInvalidRequest("dry_run must be a boolean"))
			return
		}
		dryRun = parsed
	}

	ref := tableRef(r)
	res, err := h.reconciler.Reconcile(r.Context(), usecase.ReconcileRequest{
		Schema:    ref.Schema,
		Table:     ref.Table,
		Actor:     ActorFromContext(r.Context()),
		SessionID: body.SessionID,
		Original:  body.Original,
		Current:   body.Rows,
		DryRun:    dryRun,
	})
	if err != nil {
		writeErrorResponse(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, res.Summary, res)
}
