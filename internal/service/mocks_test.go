package service

import (
	"context"
	"sync"

	"managerconsole/internal/audit"
	"managerconsole/internal/events"
	"managerconsole/internal/models"

	"github.com/stretchr/testify/mock"
)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) Reports(ctx context.Context, managerID string) ([]models.Report, error) {
	args := m.Called(ctx, managerID)
	reports, _ := args.Get(0).([]models.Report)
	return reports, args.Error(1)
}

func (m *mockBackend) AssignableBookings(ctx context.Context) ([]models.Booking, error) {
	args := m.Called(ctx)
	bookings, _ := args.Get(0).([]models.Booking)
	return bookings, args.Error(1)
}

func (m *mockBackend) AssignStaff(ctx context.Context, assignmentID, staffID, managerID string) error {
	args := m.Called(ctx, assignmentID, staffID, managerID)
	return args.Error(0)
}

func (m *mockBackend) ApproveReport(ctx context.Context, reportID string) error {
	args := m.Called(ctx, reportID)
	return args.Error(0)
}

type stubDirectory struct {
	staff []models.Staff
}

func (d stubDirectory) Build(_ context.Context, reports []models.Report) []models.Staff {
	if d.staff != nil {
		return d.staff
	}
	var out []models.Staff
	for _, r := range reports {
		if r.HasStaff() {
			out = append(out, models.Staff{ID: *r.StaffID, Name: *r.StaffID})
		}
	}
	return out
}

type invalidatingDirectory struct {
	stubDirectory
	invalidated int
}

func (d *invalidatingDirectory) Invalidate(context.Context) {
	d.invalidated++
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.WorkflowEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e events.WorkflowEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) all() []events.WorkflowEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.WorkflowEvent, len(p.events))
	copy(out, p.events)
	return out
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Record(ctx context.Context, e audit.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
