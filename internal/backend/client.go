package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"managerconsole/common_library/ctxdata"
	"managerconsole/common_library/logging"
	"managerconsole/common_library/utils"
	"managerconsole/internal/models"
	"managerconsole/internal/normalize"

	"go.uber.org/zap"
)

const maxBodyBytes = 10 << 20

type Options struct {
	Timeout          time.Duration
	MaxRetries       int
	RetryDelay       time.Duration
	BreakerThreshold int
	BreakerReset     time.Duration
}

func (o *Options) setDefaults() {
	if o.Timeout <= 0 {
		o.Timeout = 10 * time.Second
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = 3
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = 100 * time.Millisecond
	}
	if o.BreakerThreshold <= 0 {
		o.BreakerThreshold = 3
	}
	if o.BreakerReset <= 0 {
		o.BreakerReset = 30 * time.Second
	}
}

// Client talks to the booking REST backend and hands back canonical records.
type Client struct {
	baseURL          string
	http             *http.Client
	maxRetries       int
	retryDelay       time.Duration
	directoryBreaker *utils.CircuitBreaker
}

func New(baseURL string, opts Options) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q: scheme and host required", baseURL)
	}
	opts.setDefaults()

	return &Client{
		baseURL:          strings.TrimRight(baseURL, "/"),
		http:             &http.Client{Timeout: opts.Timeout},
		maxRetries:       opts.MaxRetries,
		retryDelay:       opts.RetryDelay,
		directoryBreaker: utils.NewCircuitBreaker(opts.BreakerThreshold, opts.BreakerReset),
	}, nil
}

// Reports fetches GET /manager/report/{managerId}.
func (c *Client) Reports(ctx context.Context, managerID string) ([]models.Report, error) {
	recs, err := c.list(ctx, "/manager/report/"+url.PathEscape(managerID))
	if err != nil {
		return nil, err
	}
	return normalize.Reports(recs), nil
}

// AssignableBookings fetches GET /manager/booking-assigned.
func (c *Client) AssignableBookings(ctx context.Context) ([]models.Booking, error) {
	recs, err := c.list(ctx, "/manager/booking-assigned")
	if err != nil {
		return nil, err
	}
	return normalize.Bookings(recs), nil
}

// StaffDirectory fetches GET /manager/all-staff behind a circuit breaker so a
// dead endpoint stops costing a round trip on every refresh.
func (c *Client) StaffDirectory(ctx context.Context) ([]models.Staff, error) {
	var recs []normalize.RawRecord
	err := c.directoryBreaker.Execute(func() error {
		var err error
		recs, err = c.list(ctx, "/manager/all-staff")
		return err
	})
	if err != nil {
		return nil, err
	}
	return normalize.StaffList(recs), nil
}

type approveRequest struct {
	IsApproved bool `json:"isApproved"`
}

// ApproveReport issues PATCH /manager/{reportId}/report. It is not retried:
// the endpoint is not guaranteed to be idempotent.
func (c *Client) ApproveReport(ctx context.Context, reportID string) error {
	return c.patch(ctx, "/manager/"+url.PathEscape(reportID)+"/report", approveRequest{IsApproved: true})
}

type assignRequest struct {
	StaffID   string `json:"staffID"`
	ManagerID string `json:"managerID"`
}

// AssignStaff issues PATCH /manager/assign-staff/{assignmentId}.
func (c *Client) AssignStaff(ctx context.Context, assignmentID, staffID, managerID string) error {
	return c.patch(ctx, "/manager/assign-staff/"+url.PathEscape(assignmentID), assignRequest{
		StaffID:   staffID,
		ManagerID: managerID,
	})
}

func (c *Client) list(ctx context.Context, path string) ([]normalize.RawRecord, error) {
	body, err := utils.RetryWithBackoff(ctx, c.maxRetries, c.retryDelay, func() ([]byte, error) {
		return c.do(ctx, http.MethodGet, path, nil)
	})
	if err != nil {
		return nil, err
	}

	recs, skipped, err := normalize.DecodeEnvelope(body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if skipped > 0 {
		if logger, ok := logging.GetFromContext(ctx); ok {
			logger.Warn(ctx, "skipped non-object records", zap.String("path", path), zap.Int("skipped", skipped))
		}
	}
	return recs, nil
}

func (c *Client) patch(ctx context.Context, path string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	_, err = c.do(ctx, http.MethodPatch, path, data)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if header, ok := ctxdata.GetAuthHeader(ctx); ok {
		req.Header.Set("Authorization", header)
	}
	if traceID, ok := ctxdata.GetTraceID(ctx); ok {
		req.Header.Set("X-Trace-Id", traceID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	if logger, ok := logging.GetFromContext(ctx); ok {
		logger.Debug(ctx, "backend call",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.Duration("duration", time.Since(start)),
		)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(method, path, resp.StatusCode, body)
	}
	return body, nil
}
