package models

import (
	"encoding/json"
	"time"
)

// ApprovalState is the tri-state approval flag of a report. The zero value is
// ApprovalUnknown so a report that was never normalized is never treated as
// approved.
type ApprovalState int

const (
	ApprovalUnknown ApprovalState = iota
	ApprovalNotApproved
	ApprovalApproved
)

func (s ApprovalState) String() string {
	switch s {
	case ApprovalApproved:
		return "Approved"
	case ApprovalNotApproved:
		return "Not approved"
	default:
		return "Unknown"
	}
}

// Pending reports whether the report still awaits manager sign-off.
// Unknown counts as pending.
func (s ApprovalState) Pending() bool {
	return s != ApprovalApproved
}

func (s ApprovalState) MarshalJSON() ([]byte, error) {
	switch s {
	case ApprovalApproved:
		return []byte("true"), nil
	case ApprovalNotApproved:
		return []byte("false"), nil
	default:
		return []byte(`"unknown"`), nil
	}
}

type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "Pending"
	ReportStatusCompleted ReportStatus = "Completed"
	ReportStatusDelay     ReportStatus = "Delay"
	ReportStatusCancel    ReportStatus = "Cancel"
)

func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusPending, ReportStatusCompleted, ReportStatusDelay, ReportStatusCancel:
		return true
	default:
		return false
	}
}

// UnassignedLabel is shown instead of an empty staff cell.
const UnassignedLabel = "Unassigned"

type Report struct {
	ReportID        string
	BookingID       string
	StaffID         *string
	StaffName       string
	ManagerID       *string
	AppointmentDate string
	AppointmentTime string
	Note            string
	Status          ReportStatus
	Approval        ApprovalState
	// RawApproval keeps the backend value when it could not be coerced.
	RawApproval any
	CreatedAt   time.Time
}

// HasStaff reports whether a staff member is attached to the report.
func (r Report) HasStaff() bool {
	return r.StaffID != nil && *r.StaffID != ""
}

func (r Report) StaffLabel() string {
	if !r.HasStaff() {
		return UnassignedLabel
	}
	if r.StaffName != "" {
		return r.StaffName
	}
	return *r.StaffID
}

type reportJSON struct {
	ReportID        string        `json:"reportId"`
	LegacyReportID  string        `json:"reportID"`
	BookingID       string        `json:"bookingId"`
	LegacyBookingID string        `json:"bookingID"`
	StaffID         *string       `json:"staffId"`
	LegacyStaffID   *string       `json:"staffID"`
	StaffName       string        `json:"staffName,omitempty"`
	StaffLabel      string        `json:"staffLabel"`
	ManagerID       *string       `json:"managerId"`
	AppointmentDate string        `json:"appointmentDate,omitempty"`
	AppointmentTime string        `json:"appointmentTime,omitempty"`
	Note            string        `json:"note,omitempty"`
	Status          ReportStatus  `json:"status"`
	IsApproved      ApprovalState `json:"isApproved"`
	ApprovalBadge   string        `json:"approvalBadge"`
	RawApproval     any           `json:"rawApproval,omitempty"`
	CreatedAt       *time.Time    `json:"createdAt"`
}

// MarshalJSON renders the canonical field names together with the legacy
// aliases older console clients still read.
func (r Report) MarshalJSON() ([]byte, error) {
	out := reportJSON{
		ReportID:        r.ReportID,
		LegacyReportID:  r.ReportID,
		BookingID:       r.BookingID,
		LegacyBookingID: r.BookingID,
		StaffID:         r.StaffID,
		LegacyStaffID:   r.StaffID,
		StaffName:       r.StaffName,
		StaffLabel:      r.StaffLabel(),
		ManagerID:       r.ManagerID,
		AppointmentDate: r.AppointmentDate,
		AppointmentTime: r.AppointmentTime,
		Note:            r.Note,
		Status:          r.Status,
		IsApproved:      r.Approval,
		ApprovalBadge:   r.Approval.String(),
	}
	if r.Approval == ApprovalUnknown {
		out.RawApproval = r.RawApproval
	}
	if !r.CreatedAt.IsZero() {
		createdAt := r.CreatedAt
		out.CreatedAt = &createdAt
	}
	return json.Marshal(out)
}
