package service

import (
	"context"
	"fmt"
	"strings"

	"managerconsole/common_library/ctxdata"
	"managerconsole/internal/audit"
	"managerconsole/internal/errdefs"
	"managerconsole/internal/events"
	"managerconsole/internal/models"

	"go.uber.org/zap"
)

// AssignStaff attaches staffID to the booking in selection. Nothing is sent
// to the backend unless both identifiers are present, the booking is still
// awaiting confirmation and no other assignment of this workspace is in
// flight.
func (w *Workspace) AssignStaff(ctx context.Context, selection models.Booking, staffID, managerID string) error {
	w.touch()
	if managerID == "" {
		managerID = w.managerID
	}
	assignmentID := strings.TrimSpace(selection.AssignmentID)
	staffID = strings.TrimSpace(staffID)

	if assignmentID == "" {
		err := errdefs.NewValidationError("assignmentId", "Missing assignment ID for the selected booking")
		w.reject(ctx, audit.ActionAssignStaff, assignmentID, staffID, err)
		return err
	}
	if !selection.Assignable() {
		err := fmt.Errorf("booking %s is not awaiting confirmation: %w", assignmentID, errdefs.ErrNotFound)
		w.reject(ctx, audit.ActionAssignStaff, assignmentID, staffID, err)
		return err
	}
	if staffID == "" {
		err := errdefs.NewValidationWarning("staffId", "Please select a staff member")
		w.reject(ctx, audit.ActionAssignStaff, assignmentID, staffID, err)
		return err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errdefs.ErrClosed
	}
	if w.assigning {
		w.mu.Unlock()
		return errdefs.ErrInFlight
	}
	w.assigning = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.assigning = false
		w.mu.Unlock()
	}()

	logger := w.logger(ctx)
	if err := w.deps.Backend.AssignStaff(ctx, assignmentID, staffID, managerID); err != nil {
		rerr := errdefs.NewRemoteError(fmt.Sprintf("assign staff to booking %s", assignmentID), err)
		logger.Error(ctx, "assign staff failed",
			zap.String("assignment_id", assignmentID),
			zap.String("staff_id", staffID),
			zap.Error(err),
		)
		w.addNotice(NoticeError, rerr.Message)
		w.record(ctx, audit.ActionAssignStaff, assignmentID, staffID, audit.OutcomeFailed, rerr.Message)
		return rerr
	}

	logger.Info(ctx, "staff assigned", zap.String("assignment_id", assignmentID), zap.String("staff_id", staffID))
	w.CloseAssignDialog()
	w.addNotice(NoticeSuccess, "Staff assigned successfully")
	w.record(ctx, audit.ActionAssignStaff, assignmentID, staffID, audit.OutcomeSuccess, "")
	w.publish(ctx, events.WorkflowEvent{
		EventType:    events.TypeStaffAssigned,
		ManagerID:    managerID,
		AssignmentID: assignmentID,
		BookingID:    selection.BookingID,
		StaffID:      staffID,
	})

	// The mutation already succeeded; a failed re-fetch only leaves a notice.
	_ = w.Refresh(ctx, ScopeAll)
	return nil
}

// ApproveReport flips the approval flag of report to approved. Approved
// reports and reports already being approved are refused locally.
func (w *Workspace) ApproveReport(ctx context.Context, report models.Report) error {
	w.touch()
	reportID := strings.TrimSpace(report.ReportID)
	if reportID == "" {
		err := errdefs.NewValidationError("reportId", "Missing report ID")
		w.reject(ctx, audit.ActionApproveReport, reportID, "", err)
		return err
	}
	if report.Approval == models.ApprovalApproved {
		return errdefs.ErrAlreadyApproved
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return errdefs.ErrClosed
	}
	if _, ok := w.approving[reportID]; ok {
		w.mu.Unlock()
		return errdefs.ErrInFlight
	}
	w.approving[reportID] = struct{}{}
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		delete(w.approving, reportID)
		w.mu.Unlock()
	}()

	logger := w.logger(ctx)
	if err := w.deps.Backend.ApproveReport(ctx, reportID); err != nil {
		rerr := errdefs.NewRemoteError(fmt.Sprintf("approve report %s", reportID), err)
		logger.Error(ctx, "approve report failed", zap.String("report_id", reportID), zap.Error(err))
		w.addNotice(NoticeError, rerr.Message)
		w.record(ctx, audit.ActionApproveReport, reportID, "", audit.OutcomeFailed, rerr.Message)
		return rerr
	}

	logger.Info(ctx, "report approved", zap.String("report_id", reportID))
	w.addNotice(NoticeSuccess, "Report approved successfully")
	w.record(ctx, audit.ActionApproveReport, reportID, "", audit.OutcomeSuccess, "")

	var staffID string
	if report.HasStaff() {
		staffID = *report.StaffID
	}
	w.publish(ctx, events.WorkflowEvent{
		EventType: events.TypeReportApproved,
		ManagerID: w.managerID,
		ReportID:  reportID,
		BookingID: report.BookingID,
		StaffID:   staffID,
	})

	_ = w.Refresh(ctx, ScopeReports)
	return nil
}

func (w *Workspace) reject(ctx context.Context, action audit.Action, targetID, staffID string, err error) {
	w.noticeFor(err)
	w.record(ctx, action, targetID, staffID, audit.OutcomeRejected, err.Error())
}

func (w *Workspace) record(ctx context.Context, action audit.Action, targetID, staffID string, outcome audit.Outcome, msg string) {
	e := audit.Entry{
		ManagerID: w.managerID,
		Action:    action,
		TargetID:  targetID,
		Outcome:   outcome,
		Message:   msg,
	}
	if staffID != "" {
		e.StaffID = &staffID
	}
	if traceID, ok := ctxdata.GetTraceID(ctx); ok {
		e.TraceID = &traceID
	}
	if err := w.deps.Audit.Record(ctx, e); err != nil {
		w.logger(ctx).Warn(ctx, "failed to record audit entry", zap.String("action", string(action)), zap.Error(err))
	}
}

func (w *Workspace) publish(ctx context.Context, event events.WorkflowEvent) {
	if traceID, ok := ctxdata.GetTraceID(ctx); ok {
		event.TraceID = traceID
	}
	if err := w.deps.Events.Publish(ctx, event); err != nil {
		w.logger(ctx).Warn(ctx, "failed to publish workflow event", zap.String("event_type", event.EventType), zap.Error(err))
	}
}
