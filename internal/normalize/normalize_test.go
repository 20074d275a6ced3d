package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"managerconsole/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeOne(t *testing.T, body string) RawRecord {
	t.Helper()
	recs, _, err := DecodeEnvelope([]byte(body))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	return recs[0]
}

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    int
		skipped int
		wantErr bool
	}{
		{"bare array", `[{"reportID":"R1"},{"reportID":"R2"}]`, 2, 0, false},
		{"data envelope", `{"data":[{"reportID":"R1"}]}`, 1, 0, false},
		{"data single object", `{"data":{"reportID":"R1"}}`, 1, 0, false},
		{"data null", `{"data":null}`, 0, 0, false},
		{"empty body", ``, 0, 0, false},
		{"null body", `null`, 0, 0, false},
		{"case-insensitive data key", `{"Data":[{"id":"1"}]}`, 1, 0, false},
		{"non-object elements skipped", `[{"id":"1"}, 3, "x", null]`, 1, 3, false},
		{"object without data", `{"message":"nope"}`, 0, 0, true},
		{"data is string", `{"data":"nope"}`, 0, 0, true},
		{"scalar", `42`, 0, 0, true},
		{"broken json", `[{"id":`, 0, 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recs, skipped, err := DecodeEnvelope([]byte(tc.body))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedPayload)
				return
			}
			require.NoError(t, err)
			assert.Len(t, recs, tc.want)
			assert.Equal(t, tc.skipped, skipped)
		})
	}
}

func TestApproval(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    models.ApprovalState
		wantRaw bool
	}{
		{"number one", `{"isApproved":1}`, models.ApprovalApproved, false},
		{"string one", `{"isApproved":"1"}`, models.ApprovalApproved, false},
		{"number zero", `{"isApproved":0}`, models.ApprovalNotApproved, false},
		{"string zero", `{"isApproved":"0"}`, models.ApprovalNotApproved, false},
		{"bool true", `{"isApproved":true}`, models.ApprovalApproved, false},
		{"bool false", `{"isApproved":false}`, models.ApprovalNotApproved, false},
		{"two", `{"isApproved":2}`, models.ApprovalUnknown, true},
		{"word", `{"isApproved":"yes"}`, models.ApprovalUnknown, true},
		{"decimal one", `{"isApproved":1.0}`, models.ApprovalUnknown, true},
		{"object", `{"isApproved":{"v":1}}`, models.ApprovalUnknown, true},
		{"null", `{"isApproved":null}`, models.ApprovalUnknown, false},
		{"absent", `{}`, models.ApprovalUnknown, false},
		{"legacy alias", `{"approved":"1"}`, models.ApprovalApproved, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Report(decodeOne(t, "["+tc.body+"]"))
			assert.Equal(t, tc.want, r.Approval)
			if tc.wantRaw {
				assert.NotNil(t, r.RawApproval)
			} else {
				assert.Nil(t, r.RawApproval)
			}
		})
	}
}

func TestApproval_GoValues(t *testing.T) {
	state, _ := Approval(1)
	assert.Equal(t, models.ApprovalApproved, state)
	state, _ = Approval(float64(0))
	assert.Equal(t, models.ApprovalNotApproved, state)
	state, raw := Approval(7)
	assert.Equal(t, models.ApprovalUnknown, state)
	assert.Equal(t, 7, raw)
}

func TestReport_AliasRoundTrip(t *testing.T) {
	upper := Report(decodeOne(t, `[{"bookingID":"B1"}]`))
	lower := Report(decodeOne(t, `[{"bookingId":"B1"}]`))
	mixed := Report(decodeOne(t, `[{"BOOKINGID":"B1"}]`))

	assert.Equal(t, upper, lower)
	assert.Equal(t, upper, mixed)
	assert.Equal(t, "B1", upper.BookingID)

	a, err := json.Marshal(upper)
	require.NoError(t, err)
	b, err := json.Marshal(lower)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestReport_FullRecord(t *testing.T) {
	r := Report(decodeOne(t, `{"data":[{
		"reportId": "R1",
		"bookingID": "B1",
		"staffID": "S1",
		"staffName": "Lan",
		"managerID": 7,
		"appointmentDate": "2025-06-01",
		"appointmentTime": "09:30",
		"note": "  sample received ",
		"status": "Pending",
		"isApproved": 0,
		"createdAt": "2025-06-01T08:00:00Z"
	}]}`))

	assert.Equal(t, "R1", r.ReportID)
	assert.Equal(t, "B1", r.BookingID)
	require.NotNil(t, r.StaffID)
	assert.Equal(t, "S1", *r.StaffID)
	assert.Equal(t, "Lan", r.StaffName)
	require.NotNil(t, r.ManagerID)
	assert.Equal(t, "7", *r.ManagerID)
	assert.Equal(t, "2025-06-01", r.AppointmentDate)
	assert.Equal(t, "09:30", r.AppointmentTime)
	assert.Equal(t, "sample received", r.Note)
	assert.Equal(t, models.ReportStatusPending, r.Status)
	assert.Equal(t, models.ApprovalNotApproved, r.Approval)
	assert.True(t, time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC).Equal(r.CreatedAt))
}

func TestReport_MissingFields(t *testing.T) {
	r := Report(RawRecord{})
	assert.Empty(t, r.ReportID)
	assert.Nil(t, r.StaffID)
	assert.Nil(t, r.ManagerID)
	assert.True(t, r.CreatedAt.IsZero())
	assert.Equal(t, models.UnassignedLabel, r.StaffLabel())

	blank := Report(decodeOne(t, `[{"staffID":"   ","createdAt":"not a date"}]`))
	assert.Nil(t, blank.StaffID)
	assert.True(t, blank.CreatedAt.IsZero())
}

func TestReport_DuplicateCaseVariants(t *testing.T) {
	r := Report(decodeOne(t, `[{"StaffId":"S9","staffid":"S1"}]`))
	require.NotNil(t, r.StaffID)
	assert.Equal(t, "S9", *r.StaffID)

	exact := Report(decodeOne(t, `[{"staffId":"S2","STAFFID":"S3"}]`))
	require.NotNil(t, exact.StaffID)
	assert.Equal(t, "S2", *exact.StaffID)
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   any
		want time.Time
	}{
		{"2025-06-01T08:00:00Z", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)},
		{"2025-06-01T08:00:00", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)},
		{"2025-06-01 08:00:00", time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)},
		{"2025-06-01", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
		{json.Number("1748764800000"), time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)},
		{"garbage", time.Time{}},
		{true, time.Time{}},
	}
	for _, tc := range tests {
		assert.True(t, tc.want.Equal(parseTime(tc.in)), "input %v", tc.in)
	}
}

func TestBooking(t *testing.T) {
	a := Booking(decodeOne(t, `[{"assignmentID":"A1","bookingId":"B1","status":"Awaiting confirm","appointmentDate":"2025-06-02","reportID":"R1"}]`))
	b := Booking(decodeOne(t, `[{"assignmentId":"A1","bookingID":"B1","status":"Awaiting confirm","date":"2025-06-02","reportId":"R1"}]`))
	assert.Equal(t, a, b)
	assert.Equal(t, "A1", a.AssignmentID)
	assert.True(t, a.Assignable())
	require.NotNil(t, a.ReportID)
	assert.Equal(t, "R1", *a.ReportID)

	fallback := Booking(decodeOne(t, `[{"id":42,"status":"Confirmed"}]`))
	assert.Equal(t, "42", fallback.AssignmentID)
	assert.False(t, fallback.Assignable())

	missing := Booking(RawRecord{"bookingID": "B2"})
	assert.Empty(t, missing.AssignmentID)
}

func TestStaffList(t *testing.T) {
	recs, _, err := DecodeEnvelope([]byte(`{"data":[
		{"staffID":"S1","fullName":"Lan Nguyen"},
		{"userId":"S2"},
		{"id":"S3","name":"Minh"},
		{"fullName":"No Id"},
		{"staffID":null,"name":"Null Id"}
	]}`))
	require.NoError(t, err)

	staff := StaffList(recs)
	assert.Equal(t, []models.Staff{
		{ID: "S1", Name: "Lan Nguyen"},
		{ID: "S2", Name: "S2"},
		{ID: "S3", Name: "Minh"},
	}, staff)
}
