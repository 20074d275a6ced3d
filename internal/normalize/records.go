package normalize

import (
	"managerconsole/internal/models"
)

var (
	reportIDAliases     = []string{"reportID", "reportId", "id"}
	bookingIDAliases    = []string{"bookingID", "bookingId"}
	staffIDAliases      = []string{"staffID", "staffId"}
	managerIDAliases    = []string{"managerID", "managerId"}
	dateAliases         = []string{"appointmentDate", "date"}
	timeAliases         = []string{"appointmentTime", "time", "slotTime"}
	noteAliases         = []string{"note", "notes"}
	approvalAliases     = []string{"isApproved", "approved"}
	createdAtAliases    = []string{"createdAt", "createAt", "created_at"}
	assignmentIDAliases = []string{"assignmentID", "assignmentId", "id"}
	staffNameAliases    = []string{"staffName", "fullName", "fullname", "name", "username"}
	directoryIDAliases  = []string{"staffID", "staffId", "userID", "userId", "id"}
)

// Report maps one raw backend record to the canonical report. Missing fields
// become empty values; it never fails.
func Report(rec RawRecord) models.Report {
	r := models.Report{
		ReportID:        str(rec, reportIDAliases...),
		BookingID:       str(rec, bookingIDAliases...),
		StaffID:         optStr(rec, staffIDAliases...),
		StaffName:       str(rec, "staffName", "staffFullName"),
		ManagerID:       optStr(rec, managerIDAliases...),
		AppointmentDate: str(rec, dateAliases...),
		AppointmentTime: str(rec, timeAliases...),
		Note:            str(rec, noteAliases...),
		Status:          models.ReportStatus(str(rec, "status")),
	}

	raw, _ := lookup(rec, approvalAliases...)
	r.Approval, r.RawApproval = Approval(raw)

	if v, ok := lookup(rec, createdAtAliases...); ok {
		r.CreatedAt = parseTime(v)
	}
	return r
}

func Reports(recs []RawRecord) []models.Report {
	out := make([]models.Report, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Report(rec))
	}
	return out
}

// Booking maps one raw assignable-booking record to the canonical booking.
func Booking(rec RawRecord) models.Booking {
	return models.Booking{
		AssignmentID:    str(rec, assignmentIDAliases...),
		BookingID:       str(rec, bookingIDAliases...),
		AppointmentDate: str(rec, dateAliases...),
		AppointmentTime: str(rec, timeAliases...),
		Status:          models.BookingStatus(str(rec, "status")),
		ReportID:        optStr(rec, "reportID", "reportId"),
		StaffID:         optStr(rec, staffIDAliases...),
	}
}

func Bookings(recs []RawRecord) []models.Booking {
	out := make([]models.Booking, 0, len(recs))
	for _, rec := range recs {
		out = append(out, Booking(rec))
	}
	return out
}

// Staff maps a directory entry. The second result is false when the entry has
// no identifier and therefore cannot be an assignment target.
func Staff(rec RawRecord) (models.Staff, bool) {
	id := str(rec, directoryIDAliases...)
	if id == "" {
		return models.Staff{}, false
	}
	name := str(rec, staffNameAliases...)
	if name == "" {
		name = id
	}
	return models.Staff{ID: id, Name: name}, true
}

func StaffList(recs []RawRecord) []models.Staff {
	out := make([]models.Staff, 0, len(recs))
	for _, rec := range recs {
		if s, ok := Staff(rec); ok {
			out = append(out, s)
		}
	}
	return out
}
