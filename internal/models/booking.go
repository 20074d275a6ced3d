package models

import "encoding/json"

type BookingStatus string

// BookingStatusAwaitingConfirm is the only status eligible for staff assignment.
const BookingStatusAwaitingConfirm BookingStatus = "Awaiting confirm"

type Booking struct {
	AssignmentID    string
	BookingID       string
	AppointmentDate string
	AppointmentTime string
	Status          BookingStatus
	ReportID        *string
	StaffID         *string
}

func (b Booking) Assignable() bool {
	return b.Status == BookingStatusAwaitingConfirm
}

type bookingJSON struct {
	AssignmentID       string        `json:"assignmentId"`
	LegacyAssignmentID string        `json:"assignmentID"`
	BookingID          string        `json:"bookingId"`
	LegacyBookingID    string        `json:"bookingID"`
	AppointmentDate    string        `json:"appointmentDate,omitempty"`
	AppointmentTime    string        `json:"appointmentTime,omitempty"`
	Status             BookingStatus `json:"status"`
	ReportID           *string       `json:"reportId,omitempty"`
	StaffID            *string       `json:"staffId,omitempty"`
}

func (b Booking) MarshalJSON() ([]byte, error) {
	return json.Marshal(bookingJSON{
		AssignmentID:       b.AssignmentID,
		LegacyAssignmentID: b.AssignmentID,
		BookingID:          b.BookingID,
		LegacyBookingID:    b.BookingID,
		AppointmentDate:    b.AppointmentDate,
		AppointmentTime:    b.AppointmentTime,
		Status:             b.Status,
		ReportID:           b.ReportID,
		StaffID:            b.StaffID,
	})
}

type Staff struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
