package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"managerconsole/common_library/logging"
	"managerconsole/internal/audit"
	"managerconsole/internal/directory"
	"managerconsole/internal/errdefs"
	"managerconsole/internal/events"
	"managerconsole/internal/models"
	"managerconsole/internal/projection"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Backend interface {
	Reports(ctx context.Context, managerID string) ([]models.Report, error)
	AssignableBookings(ctx context.Context) ([]models.Booking, error)
	AssignStaff(ctx context.Context, assignmentID, staffID, managerID string) error
	ApproveReport(ctx context.Context, reportID string) error
}

type Directory interface {
	Build(ctx context.Context, reports []models.Report) []models.Staff
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.WorkflowEvent) error
}

type AuditRecorder interface {
	Record(ctx context.Context, e audit.Entry) error
}

// Deps are shared by every workspace of a registry.
type Deps struct {
	Backend         Backend
	Directory       Directory
	Events          EventPublisher
	Audit           AuditRecorder
	Logger          *logging.Logger
	DefaultPageSize int
}

func (d *Deps) setDefaults() {
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.Audit == nil {
		d.Audit = audit.Nop{}
	}
	if d.Logger == nil {
		d.Logger = logging.Nop()
	}
	d.DefaultPageSize = projection.ValidSize(d.DefaultPageSize, projection.DefaultPageSize)
}

type Scope int

const (
	ScopeReports Scope = 1 << iota
	ScopeBookings

	ScopeAll = ScopeReports | ScopeBookings
)

// Snapshot is an immutable view of the loaded collections. A refresh replaces
// the whole snapshot, never the slices inside it.
type Snapshot struct {
	Reports  []models.Report
	Bookings []models.Booking
	Staff    []models.Staff
	LoadedAt time.Time
}

const maxNotices = 5

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
	At      time.Time   `json:"at"`
}

// Workspace is the console state of one manager.
type Workspace struct {
	managerID string
	deps      Deps

	life   context.Context
	cancel context.CancelFunc

	snap atomic.Pointer[Snapshot]
	seq  atomic.Uint64

	mu          sync.Mutex
	reportsSeq  uint64
	staffSeq    uint64
	bookingsSeq uint64
	tab         projection.Tab
	filter      projection.Filter
	pagers      map[projection.Tab]projection.Pager
	dialog      *models.Booking
	assigning   bool
	approving   map[string]struct{}
	notices     []Notice
	lastUsed    time.Time
	closed      bool
}

func NewWorkspace(managerID string, deps Deps) *Workspace {
	deps.setDefaults()
	life, cancel := context.WithCancel(context.Background())

	w := &Workspace{
		managerID: managerID,
		deps:      deps,
		life:      life,
		cancel:    cancel,
		tab:       projection.TabAssign,
		pagers: map[projection.Tab]projection.Pager{
			projection.TabAssign:  projection.NewPager(deps.DefaultPageSize),
			projection.TabApprove: projection.NewPager(deps.DefaultPageSize),
			projection.TabAll:     projection.NewPager(deps.DefaultPageSize),
		},
		approving: make(map[string]struct{}),
		lastUsed:  time.Now(),
	}
	w.snap.Store(&Snapshot{
		Reports:  []models.Report{},
		Bookings: []models.Booking{},
		Staff:    []models.Staff{},
	})
	return w
}

func (w *Workspace) ManagerID() string {
	return w.managerID
}

func (w *Workspace) Snapshot() *Snapshot {
	return w.snap.Load()
}

// Close cancels in-flight refreshes; their results are dropped.
func (w *Workspace) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.cancel()
}

func (w *Workspace) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *Workspace) touch() {
	w.mu.Lock()
	w.lastUsed = time.Now()
	w.mu.Unlock()
}

func (w *Workspace) idleSince() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastUsed
}

func (w *Workspace) logger(ctx context.Context) *logging.Logger {
	return logging.FromContextOr(ctx, w.deps.Logger)
}

// Refresh re-fetches the collections named by scope. The fetches run
// independently; a failed fetch keeps the previous collection and leaves an
// error notice. Results are discarded when ctx is cancelled or the workspace
// is closed before they arrive.
func (w *Workspace) Refresh(ctx context.Context, scope Scope) error {
	if w.isClosed() {
		return errdefs.ErrClosed
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(w.life, cancel)
	defer stop()

	seq := w.seq.Add(1)
	prev := w.Snapshot()

	var (
		g                   errgroup.Group
		reports             []models.Report
		staff               []models.Staff
		bookings            []models.Booking
		reportsErr, bookErr error
	)

	if scope&ScopeReports != 0 {
		g.Go(func() error {
			reports, reportsErr = w.deps.Backend.Reports(ctx, w.managerID)
			source := reports
			if reportsErr != nil {
				source = prev.Reports
			}
			if w.deps.Directory != nil && ctx.Err() == nil {
				staff = w.deps.Directory.Build(ctx, source)
			}
			return nil
		})
	}
	if scope&ScopeBookings != 0 {
		g.Go(func() error {
			bookings, bookErr = w.deps.Backend.AssignableBookings(ctx)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		if w.life.Err() != nil {
			return errdefs.ErrClosed
		}
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errdefs.ErrClosed
	}

	next := *w.snap.Load()
	changed := false
	var errs []error

	if scope&ScopeReports != 0 {
		if staff != nil && seq > w.staffSeq {
			w.staffSeq = seq
			next.Staff = staff
			changed = true
		}
		if reportsErr != nil {
			errs = append(errs, w.failLocked(ctx, "load reports", reportsErr))
		} else if seq > w.reportsSeq {
			w.reportsSeq = seq
			next.Reports = reports
			changed = true
		}
	}
	if scope&ScopeBookings != 0 {
		if bookErr != nil {
			errs = append(errs, w.failLocked(ctx, "load assignable bookings", bookErr))
		} else if seq > w.bookingsSeq {
			w.bookingsSeq = seq
			next.Bookings = bookings
			changed = true
		}
	}

	if changed {
		next.Reports = directory.EnrichReports(next.Reports, next.Staff)
		next.LoadedAt = time.Now()
		w.snap.Store(&next)
	}
	return errors.Join(errs...)
}

type invalidator interface {
	Invalidate(ctx context.Context)
}

// Reload is a refresh asked for by the manager; cached directory data is
// dropped first.
func (w *Workspace) Reload(ctx context.Context) error {
	if inv, ok := w.deps.Directory.(invalidator); ok {
		inv.Invalidate(ctx)
	}
	return w.Refresh(ctx, ScopeAll)
}

func (w *Workspace) failLocked(ctx context.Context, action string, err error) error {
	rerr := errdefs.NewRemoteError(action, err)
	w.logger(ctx).Error(ctx, "refresh failed", zap.String("action", action), zap.Error(err))
	w.addNoticeLocked(NoticeError, rerr.Message)
	return rerr
}

func (w *Workspace) addNotice(level NoticeLevel, msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.addNoticeLocked(level, msg)
}

func (w *Workspace) addNoticeLocked(level NoticeLevel, msg string) {
	w.notices = append(w.notices, Notice{Level: level, Message: msg, At: time.Now()})
	if len(w.notices) > maxNotices {
		w.notices = w.notices[len(w.notices)-maxNotices:]
	}
}

// Notices returns the most recent notices, oldest first.
func (w *Workspace) Notices() []Notice {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Notice, len(w.notices))
	copy(out, w.notices)
	return out
}

func (w *Workspace) noticeFor(err error) {
	var verr *errdefs.ValidationError
	if errors.As(err, &verr) && verr.Severity == errdefs.SeverityWarning {
		w.addNotice(NoticeWarning, err.Error())
		return
	}
	w.addNotice(NoticeError, err.Error())
}
