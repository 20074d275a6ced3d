package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"managerconsole/common_library/ctxdata"
	"managerconsole/common_library/logging"
	"managerconsole/internal/audit"
	"managerconsole/internal/errdefs"
	"managerconsole/internal/export"
	"managerconsole/internal/projection"
	"managerconsole/internal/service"
	"managerconsole/internal/storage"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AuditLister interface {
	ListByManager(ctx context.Context, managerID string, limit int) ([]audit.Entry, error)
}

type Archiver interface {
	Store(ctx context.Context, key, contentType string, body []byte) (storage.Link, error)
}

type ConsoleHandler struct {
	registry *service.Registry
	audit    AuditLister
	exporter export.Exporter
	archive  Archiver
}

func NewConsoleHandler(registry *service.Registry, auditLister AuditLister, exporter export.Exporter) *ConsoleHandler {
	if auditLister == nil {
		auditLister = audit.Nop{}
	}
	if exporter == nil {
		exporter = export.XLSX{}
	}
	return &ConsoleHandler{registry: registry, audit: auditLister, exporter: exporter, archive: storage.Disabled{}}
}

// WithArchive enables storing exports in object storage.
func (h *ConsoleHandler) WithArchive(a Archiver) *ConsoleHandler {
	if a != nil {
		h.archive = a
	}
	return h
}

func (h *ConsoleHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Group(func(r chi.Router) {
		r.Get("/", h.GetState)
		r.Post("/refresh", h.Refresh)
		r.Get("/staff", h.ListStaff)
		r.Get("/audit", h.ListAudit)

		r.Get("/assignable", h.ListAssignable)
		r.Post("/assignments/{assignmentId}/dialog", h.OpenDialog)
		r.Delete("/assignments/dialog", h.CloseDialog)
		r.Post("/assignments/{assignmentId}", h.AssignStaff)

		r.Get("/approvable", h.ListApprovable)
		r.Get("/reports", h.ListReports)
		r.Get("/reports/export", h.ExportReports)
		r.Post("/reports/export/archive", h.ArchiveReports)
		r.Post("/reports/{reportId}/approve", h.ApproveReport)
	})
}

func (h *ConsoleHandler) workspace(w http.ResponseWriter, r *http.Request) (*service.Workspace, bool) {
	managerID, ok := ctxdata.GetUserID(r.Context())
	if !ok || managerID == "" {
		writeErrorJSON(w, http.StatusUnauthorized, "unauthenticated", errdefs.SeverityError)
		return nil, false
	}
	return h.registry.Open(r.Context(), managerID), true
}

func (h *ConsoleHandler) GetState(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Has("tab") {
		ws.SetTab(projection.ParseTab(r.URL.Query().Get("tab")))
	}
	writeJSON(w, http.StatusOK, ws.State())
}

func (h *ConsoleHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := ws.Reload(r.Context()); err != nil {
		var rerr *errdefs.RemoteError
		if !errors.As(err, &rerr) {
			writeErr(w, err)
			return
		}
		// Stale data stays available; the failure is in the notices.
	}
	writeJSON(w, http.StatusOK, ws.State())
}

func (h *ConsoleHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ws.Staff())
}

func (h *ConsoleHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	managerID, ok := ctxdata.GetUserID(ctx)
	if !ok {
		writeErrorJSON(w, http.StatusUnauthorized, "unauthenticated", errdefs.SeverityError)
		return
	}
	limit, err := parseIntQuery(r, "limit")
	if err != nil {
		writeErr(w, err)
		return
	}
	entries, err := h.audit.ListByManager(ctx, managerID, limit)
	if err != nil {
		if logger, ok := logging.GetFromContext(ctx); ok {
			logger.Error(ctx, "failed to list audit entries", zap.Error(err))
		}
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *ConsoleHandler) applyPager(r *http.Request, ws *service.Workspace, tab projection.Tab) error {
	page, err := parseIntQuery(r, "page")
	if err != nil {
		return err
	}
	size, err := parseIntQuery(r, "size")
	if err != nil {
		return err
	}
	ws.SetPager(tab, page, size)
	return nil
}

// applyFilter replaces the "all" filter when the request names any filter
// parameter; otherwise the stored filter stays.
func applyFilter(r *http.Request, ws *service.Workspace) {
	q := r.URL.Query()
	if !q.Has("q") && !q.Has("status") && !q.Has("staff") {
		return
	}
	ws.SetFilter(projection.Filter{
		Query:  strings.TrimSpace(q.Get("q")),
		Status: strings.TrimSpace(q.Get("status")),
		Staff:  strings.TrimSpace(q.Get("staff")),
	})
}

func (h *ConsoleHandler) ListAssignable(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := h.applyPager(r, ws, projection.TabAssign); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Assignable())
}

func (h *ConsoleHandler) ListApprovable(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	if err := h.applyPager(r, ws, projection.TabApprove); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.Approvable())
}

func (h *ConsoleHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	applyFilter(r, ws)
	if err := h.applyPager(r, ws, projection.TabAll); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.All())
}

func (h *ConsoleHandler) ExportReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	applyFilter(r, ws)

	w.Header().Set("Content-Type", h.exporter.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(h.exporter, time.Now())))
	if err := h.exporter.Export(w, ws.AllRows()); err != nil {
		if logger, ok := logging.GetFromContext(ctx); ok {
			logger.Error(ctx, "export failed", zap.Error(err))
		}
	}
}

// ArchiveReports stores the filtered export and answers with a download link.
func (h *ConsoleHandler) ArchiveReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	applyFilter(r, ws)

	var buf bytes.Buffer
	if err := h.exporter.Export(&buf, ws.AllRows()); err != nil {
		if logger, ok := logging.GetFromContext(ctx); ok {
			logger.Error(ctx, "export failed", zap.Error(err))
		}
		writeErr(w, err)
		return
	}

	key := ws.ManagerID() + "/" + export.Filename(h.exporter, time.Now())
	link, err := h.archive.Store(ctx, key, h.exporter.ContentType(), buf.Bytes())
	if err != nil {
		if errors.Is(err, errdefs.ErrUnavailable) {
			writeErr(w, err)
			return
		}
		if logger, ok := logging.GetFromContext(ctx); ok {
			logger.Error(ctx, "failed to archive export", zap.String("key", key), zap.Error(err))
		}
		writeErr(w, errdefs.NewRemoteError("archive report export", err))
		return
	}
	writeJSON(w, http.StatusCreated, link)
}

func (h *ConsoleHandler) OpenDialog(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	id, err := parsePathParam(r, "assignmentId")
	if err != nil {
		writeErr(w, err)
		return
	}
	b, err := ws.OpenAssignDialog(id)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *ConsoleHandler) CloseDialog(w http.ResponseWriter, r *http.Request) {
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	ws.CloseAssignDialog()
	w.WriteHeader(http.StatusNoContent)
}

type assignRequest struct {
	StaffID       string `json:"staffId"`
	LegacyStaffID string `json:"staffID"`
}

func (h *ConsoleHandler) AssignStaff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	id, err := parsePathParam(r, "assignmentId")
	if err != nil {
		writeErr(w, err)
		return
	}

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		if logger, ok := logging.GetFromContext(ctx); ok {
			logger.Error(ctx, "Failed to parse request body", zap.Error(err))
		}
		writeErrorJSON(w, http.StatusBadRequest, "invalid request body", errdefs.SeverityError)
		return
	}
	staffID := req.StaffID
	if staffID == "" {
		staffID = req.LegacyStaffID
	}

	booking, found := ws.Booking(id)
	if !found {
		writeErr(w, errdefs.ErrNotFound)
		return
	}
	if err := ws.AssignStaff(ctx, booking, staffID, ws.ManagerID()); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.State())
}

func (h *ConsoleHandler) ApproveReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ws, ok := h.workspace(w, r)
	if !ok {
		return
	}
	id, err := parsePathParam(r, "reportId")
	if err != nil {
		writeErr(w, err)
		return
	}
	report, found := ws.Report(id)
	if !found {
		writeErr(w, errdefs.ErrNotFound)
		return
	}
	if err := ws.ApproveReport(ctx, report); err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ws.State())
}
