package service

import (
	"slices"
	"time"

	"managerconsole/internal/errdefs"
	"managerconsole/internal/models"
	"managerconsole/internal/projection"
)

type Counts struct {
	Assignable int `json:"assignable"`
	Approvable int `json:"approvable"`
	All        int `json:"all"`
}

// State is what the console needs to draw its chrome: the active tab, the
// dialog, loading flags and notices.
type State struct {
	ManagerID string                              `json:"managerId"`
	Tab       projection.Tab                      `json:"tab"`
	Filter    projection.Filter                   `json:"filter"`
	Pagers    map[projection.Tab]projection.Pager `json:"pagers"`
	PageSizes []int                               `json:"pageSizes"`
	Dialog    *models.Booking                     `json:"dialog"`
	Assigning bool                                `json:"assigning"`
	Approving []string                            `json:"approving"`
	Notices   []Notice                            `json:"notices"`
	Counts    Counts                              `json:"counts"`
	Statuses  []string                            `json:"statuses"`
	Staff     []models.Staff                      `json:"staff"`
	LoadedAt  *time.Time                          `json:"loadedAt"`
}

func (w *Workspace) State() State {
	w.touch()
	snap := w.Snapshot()

	w.mu.Lock()
	st := State{
		ManagerID: w.managerID,
		Tab:       w.tab,
		Filter:    w.filter,
		Pagers:    make(map[projection.Tab]projection.Pager, len(w.pagers)),
		PageSizes: projection.PageSizes,
		Assigning: w.assigning,
		Approving: make([]string, 0, len(w.approving)),
		Notices:   make([]Notice, len(w.notices)),
		Statuses:  projection.Statuses(snap.Reports),
		Staff:     snap.Staff,
	}
	for tab, p := range w.pagers {
		st.Pagers[tab] = p
	}
	if w.dialog != nil {
		d := *w.dialog
		st.Dialog = &d
	}
	for id := range w.approving {
		st.Approving = append(st.Approving, id)
	}
	copy(st.Notices, w.notices)
	filter := w.filter
	w.mu.Unlock()

	slices.Sort(st.Approving)
	st.Counts = Counts{
		Assignable: projection.Assignable(snap.Bookings, projection.NewPager(0)).Total,
		Approvable: projection.Approvable(snap.Reports, nil, projection.NewPager(0)).Total,
		All:        len(projection.AllRows(snap.Reports, filter, nil)),
	}
	if !snap.LoadedAt.IsZero() {
		loadedAt := snap.LoadedAt
		st.LoadedAt = &loadedAt
	}
	return st
}

func (w *Workspace) SetTab(tab projection.Tab) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tab = tab
}

// SetFilter replaces the "all" filter. A changed filter puts the "all" table
// back on its first page.
func (w *Workspace) SetFilter(f projection.Filter) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if f == w.filter {
		return
	}
	w.filter = f
	p := w.pagers[projection.TabAll]
	p.Page = 1
	w.pagers[projection.TabAll] = p
}

// SetPager moves the cursor of one table. Zero values keep the current page
// or size; a size change restarts at page 1.
func (w *Workspace) SetPager(tab projection.Tab, page, size int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.pagers[tab]
	if size != 0 {
		size = projection.ValidSize(size, w.deps.DefaultPageSize)
		if size != p.Size {
			p.Size = size
			p.Page = 1
		}
	}
	if page > 0 {
		p.Page = page
	}
	w.pagers[tab] = p
}

func (w *Workspace) pager(tab projection.Tab) projection.Pager {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pagers[tab]
}

func (w *Workspace) storePage(tab projection.Tab, page int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	p := w.pagers[tab]
	p.Page = page
	w.pagers[tab] = p
}

func (w *Workspace) approvingSet() projection.Approving {
	w.mu.Lock()
	set := make(map[string]struct{}, len(w.approving))
	for id := range w.approving {
		set[id] = struct{}{}
	}
	w.mu.Unlock()
	return func(id string) bool {
		_, ok := set[id]
		return ok
	}
}

func (w *Workspace) Assignable() projection.Page[projection.BookingRow] {
	w.touch()
	page := projection.Assignable(w.Snapshot().Bookings, w.pager(projection.TabAssign))
	w.storePage(projection.TabAssign, page.Page)
	return page
}

func (w *Workspace) Approvable() projection.Page[projection.ReportRow] {
	w.touch()
	page := projection.Approvable(w.Snapshot().Reports, w.approvingSet(), w.pager(projection.TabApprove))
	w.storePage(projection.TabApprove, page.Page)
	return page
}

func (w *Workspace) All() projection.Page[projection.ReportRow] {
	w.touch()
	w.mu.Lock()
	filter := w.filter
	w.mu.Unlock()

	page := projection.All(w.Snapshot().Reports, filter, w.approvingSet(), w.pager(projection.TabAll))
	w.storePage(projection.TabAll, page.Page)
	return page
}

// AllRows is the filtered "all" projection without pagination.
func (w *Workspace) AllRows() []projection.ReportRow {
	w.touch()
	w.mu.Lock()
	filter := w.filter
	w.mu.Unlock()
	return projection.AllRows(w.Snapshot().Reports, filter, w.approvingSet())
}

func (w *Workspace) Staff() []models.Staff {
	w.touch()
	return w.Snapshot().Staff
}

func (w *Workspace) Booking(assignmentID string) (models.Booking, bool) {
	for _, b := range w.Snapshot().Bookings {
		if b.AssignmentID == assignmentID {
			return b, true
		}
	}
	return models.Booking{}, false
}

func (w *Workspace) Report(reportID string) (models.Report, bool) {
	for _, r := range w.Snapshot().Reports {
		if r.ReportID == reportID {
			return r, true
		}
	}
	return models.Report{}, false
}

// OpenAssignDialog targets the assignment dialog at an assignable booking.
func (w *Workspace) OpenAssignDialog(assignmentID string) (models.Booking, error) {
	w.touch()
	b, ok := w.Booking(assignmentID)
	if !ok || !b.Assignable() {
		return models.Booking{}, errdefs.ErrNotFound
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dialog = &b
	return b, nil
}

func (w *Workspace) CloseAssignDialog() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dialog = nil
}

func (w *Workspace) Dialog() (models.Booking, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dialog == nil {
		return models.Booking{}, false
	}
	return *w.dialog, true
}
