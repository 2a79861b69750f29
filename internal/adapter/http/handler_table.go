package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/datasteward/steward/internal/domain"
)

// BrowseService defines the behavior the table handler depends on
type BrowseService interface {
	ListSchemas(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, schema string) ([]domain.TableInfo, error)
	LoadTable(ctx context.Context, ref domain.TableRef) (*domain.Snapshot, error)
	OpenSession(ctx context.Context, ref domain.TableRef, actor string) (*domain.EditSession, error)
	DiscardSession(ctx context.Context, id string) error
	AuditHistory(ctx context.Context, schema string, filter domain.AuditFilter) ([]domain.AuditEntry, error)
}

// TableHandler serves catalog, snapshot, session and audit endpoints
type TableHandler struct {
	browse BrowseService
}

// NewTableHandler creates a new table handler
func NewTableHandler(browse BrowseService) *TableHandler {
	return &TableHandler{browse: browse}
}

// RegisterRoutes registers table routes
func (h *TableHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/schemas", h.ListSchemas).Methods("GET")
	router.HandleFunc("/schemas/{schema}/tables", h.ListTables).Methods("GET")
	router.HandleFunc("/schemas/{schema}/tables/{table}", h.GetTable).Methods("GET")
	router.HandleFunc("/schemas/{schema}/tables/{table}/sessions", h.OpenSession).Methods("POST")
	router.HandleFunc("/schemas/{schema}/audit", h.AuditHistory).Methods("GET")
	router.HandleFunc("/sessions/{id}", h.DiscardSession).Methods("DELETE")
}

// ListSchemas lists user schemas
func (h *TableHandler) ListSchemas(w http.ResponseWriter, r *http.Request) {
	schemas, err := h.browse.ListSchemas(r.Context())
	if err != nil {
		writeErrorResponse(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, "Schemas retrieved successfully", schemas)
}

// ListTables lists the tables of a schema
func (h *TableHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	tables, err := h.browse.ListTables(r.Context(), mux.Vars(r)["schema"])
	if err != nil {
		writeErrorResponse(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, "Tables retrieved successfully", tables)
}

// GetTable returns a snapshot of a table
func (h *TableHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.browse.LoadTable(r.Context(), tableRef(r))
	if err != nil {
		writeErrorResponse(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, "Table loaded successfully", snapshot)
}

// OpenSession starts an edit session on a table
func (h *TableHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.browse.OpenSession(r.Context(), tableRef(r), ActorFromContext(r.Context()))
	if err != nil {
		writeErrorResponse(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusCreated, "Edit session opened", session)
}

// DiscardSession cancels an edit session
func (h *TableHandler) DiscardSession(w http.ResponseWriter, r *http.Request) {
	if err := h.browse.DiscardSession(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeErrorResponse(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, "Edit session discarded", nil)
}

// AuditHistory returns audit entries of a schema, newest first
func (h *TableHandler) AuditHistory(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := domain.AuditFilter{
		Table:    query.Get("table"),
		RecordID: query.Get("record_id"),
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			writeErrorResponse(w, domain.ErrInvalidRequest("limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}

	entries, err := h.browse.AuditHistory(r.Context(), mux.Vars(r)["schema"], filter)
	if err != nil {
		writeErrorResponse(w, err)
		return
	}
	writeSuccessResponse(w, http.StatusOK, "Audit entries retrieved successfully", entries)
}

func tableRef(r *http.Request) domain.TableRef {
	vars := mux.Vars(r)
	return domain.TableRef{Schema: vars["schema"], Table: vars["table"]}
}
