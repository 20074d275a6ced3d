package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"managerconsole/common_library/ctxdata"
	"managerconsole/common_library/utils"
	"managerconsole/internal/models"
	"managerconsole/internal/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL, Options{
		Timeout:          time.Second,
		MaxRetries:       3,
		RetryDelay:       time.Millisecond,
		BreakerThreshold: 2,
		BreakerReset:     time.Minute,
	})
	require.NoError(t, err)
	return c
}

func TestNew_InvalidURL(t *testing.T) {
	_, err := New("not a url", Options{})
	assert.Error(t, err)

	_, err = New("/relative", Options{})
	assert.Error(t, err)
}

func TestClient_Reports(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/manager/report/M%201", r.URL.EscapedPath())
		assert.Equal(t, "Bearer abc", r.Header.Get("Authorization"))
		assert.Equal(t, "trace-1", r.Header.Get("X-Trace-Id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"reportID":"R1","bookingId":"B1","isApproved":0},{"reportId":"R2","isApproved":"1"}]}`))
	})

	ctx := ctxdata.WithAuthHeader(context.Background(), "Bearer abc")
	ctx = ctxdata.WithTraceID(ctx, "trace-1")

	reports, err := c.Reports(ctx, "M 1")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "R1", reports[0].ReportID)
	assert.Equal(t, "B1", reports[0].BookingID)
	assert.Equal(t, models.ApprovalNotApproved, reports[0].Approval)
	assert.Equal(t, models.ApprovalApproved, reports[1].Approval)
}

func TestClient_AssignableBookings_BareArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manager/booking-assigned", r.URL.Path)
		_, _ = w.Write([]byte(`[{"assignmentID":"A1","bookingID":"B1","status":"Awaiting confirm"}]`))
	})

	bookings, err := c.AssignableBookings(context.Background())
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, "A1", bookings[0].AssignmentID)
	assert.True(t, bookings[0].Assignable())
}

func TestClient_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"unexpected":true}`))
	})

	_, err := c.AssignableBookings(context.Background())
	assert.ErrorIs(t, err, normalize.ErrMalformedPayload)
}

func TestClient_RetriesTransientFailures(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	bookings, err := c.AssignableBookings(context.Background())
	require.NoError(t, err)
	assert.Empty(t, bookings)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Manager not found"}`))
	})

	_, err := c.Reports(context.Background(), "M1")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	var sErr *StatusError
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, http.StatusNotFound, sErr.StatusCode)
	assert.Equal(t, "Manager not found", sErr.ServerMessage())
}

func TestClient_AssignStaff(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/manager/assign-staff/A1", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.JSONEq(t, `{"staffID":"S1","managerID":"M1"}`, string(body))
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, c.AssignStaff(context.Background(), "A1", "S1", "M1"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_MutationsAreNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := c.ApproveReport(context.Background(), "R1")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_ApproveReport(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/manager/R1/report", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["isApproved"])
		_, _ = w.Write([]byte(`"ok"`))
	})

	assert.NoError(t, c.ApproveReport(context.Background(), "R1"))
}

func TestClient_StaffDirectory_BreakerOpens(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	})

	for i := 0; i < 2; i++ {
		_, err := c.StaffDirectory(context.Background())
		require.Error(t, err)
	}
	callsBefore := atomic.LoadInt32(&calls)

	_, err := c.StaffDirectory(context.Background())
	assert.ErrorIs(t, err, utils.ErrCircuitOpen)
	assert.Equal(t, callsBefore, atomic.LoadInt32(&calls))
}

func TestStatusError_ServerMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"message field", `{"message":"Staff unavailable"}`, "Staff unavailable"},
		{"json string body", `"Booking already assigned"`, "Booking already assigned"},
		{"plain text body", `Internal failure`, "Internal failure"},
		{"object without message", `{"error":"x"}`, ""},
		{"non-string message", `{"message":42}`, ""},
		{"html body", `<html>502</html>`, ""},
		{"empty body", ``, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := newStatusError(http.MethodPatch, "/x", http.StatusInternalServerError, []byte(tc.body))
			assert.Equal(t, tc.want, err.ServerMessage())
		})
	}
}

func TestStatusError_LongMessageKeepsRunesWhole(t *testing.T) {
	msg := "a" + strings.Repeat("é", 200)
	body, err := json.Marshal(map[string]string{"message": msg})
	require.NoError(t, err)

	got := newStatusError(http.MethodPatch, "/x", http.StatusConflict, body).ServerMessage()

	assert.True(t, utf8.ValidString(got))
	assert.LessOrEqual(t, len(got), maxMessageLen)
	assert.Len(t, got, maxMessageLen-1)
	assert.True(t, strings.HasPrefix(msg, got))

	assert.Equal(t, strings.Repeat("x", maxMessageLen), truncate(strings.Repeat("x", maxMessageLen+10)))
}

func TestStatusError_Retriable(t *testing.T) {
	assert.True(t, (&StatusError{StatusCode: http.StatusServiceUnavailable}).Retriable())
	assert.True(t, (&StatusError{StatusCode: http.StatusTooManyRequests}).Retriable())
	assert.False(t, (&StatusError{StatusCode: http.StatusInternalServerError}).Retriable())
	assert.False(t, (&StatusError{StatusCode: http.StatusBadRequest}).Retriable())

	assert.True(t, (&TransportError{Err: errors.New("connection reset")}).Retriable())
	assert.False(t, (&TransportError{Err: context.Canceled}).Retriable())
}
