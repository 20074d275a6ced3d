package projection

import (
	"slices"
	"strings"

	"managerconsole/internal/models"
)

type Tab string

const (
	TabAssign  Tab = "assign"
	TabApprove Tab = "approve"
	TabAll     Tab = "all"
)

// ParseTab accepts assign, approve and all; anything else is assign.
func ParseTab(s string) Tab {
	switch Tab(strings.ToLower(strings.TrimSpace(s))) {
	case TabApprove:
		return TabApprove
	case TabAll:
		return TabAll
	default:
		return TabAssign
	}
}

type BookingRow struct {
	Booking   models.Booking `json:"booking"`
	CanAssign bool           `json:"canAssign"`
}

type ReportRow struct {
	Report        models.Report `json:"report"`
	StaffLabel    string        `json:"staffLabel"`
	ApprovalBadge string        `json:"approvalBadge"`
	Approving     bool          `json:"approving"`
	CanApprove    bool          `json:"canApprove"`
}

// Filter narrows the "all" projection. Empty fields match everything.
type Filter struct {
	Query  string `json:"q"`
	Status string `json:"status"`
	Staff  string `json:"staff"`
}

func (f Filter) matches(r models.Report) bool {
	if f.Status != "" && string(r.Status) != f.Status {
		return false
	}
	if f.Staff != "" && (!r.HasStaff() || *r.StaffID != f.Staff) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	fields := []string{r.ReportID, r.BookingID, r.StaffName}
	if r.StaffID != nil {
		fields = append(fields, *r.StaffID)
	}
	for _, v := range fields {
		if v != "" && strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

// Approving reports whether an approval for the report id is in flight.
type Approving func(reportID string) bool

func noneApproving(string) bool { return false }

func reportRow(r models.Report, approving Approving) ReportRow {
	inFlight := approving(r.ReportID)
	return ReportRow{
		Report:        r,
		StaffLabel:    r.StaffLabel(),
		ApprovalBadge: r.Approval.String(),
		Approving:     inFlight,
		CanApprove:    r.ReportID != "" && r.Approval.Pending() && !inFlight,
	}
}

// Assignable lists bookings still awaiting a staff member.
func Assignable(bookings []models.Booking, p Pager) Page[BookingRow] {
	rows := make([]BookingRow, 0, len(bookings))
	for _, b := range bookings {
		if !b.Assignable() {
			continue
		}
		rows = append(rows, BookingRow{Booking: b, CanAssign: b.AssignmentID != ""})
	}
	return paginate(rows, p)
}

// Approvable lists reports that are not approved, unknown approval included.
func Approvable(reports []models.Report, approving Approving, p Pager) Page[ReportRow] {
	if approving == nil {
		approving = noneApproving
	}
	rows := make([]ReportRow, 0, len(reports))
	for _, r := range reports {
		if !r.Approval.Pending() {
			continue
		}
		rows = append(rows, reportRow(r, approving))
	}
	return paginate(rows, p)
}

// All lists reports matching f, most recent first.
func All(reports []models.Report, f Filter, approving Approving, p Pager) Page[ReportRow] {
	return paginate(AllRows(reports, f, approving), p)
}

// AllRows is the unpaginated "all" projection, used by exports.
func AllRows(reports []models.Report, f Filter, approving Approving) []ReportRow {
	if approving == nil {
		approving = noneApproving
	}
	matched := make([]models.Report, 0, len(reports))
	for _, r := range reports {
		if f.matches(r) {
			matched = append(matched, r)
		}
	}
	slices.SortStableFunc(matched, func(a, b models.Report) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	rows := make([]ReportRow, 0, len(matched))
	for _, r := range matched {
		rows = append(rows, reportRow(r, approving))
	}
	return rows
}

// Statuses returns the distinct report statuses in first-seen order, for the
// status filter options.
func Statuses(reports []models.Report) []string {
	var out []string
	for _, r := range reports {
		s := string(r.Status)
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
