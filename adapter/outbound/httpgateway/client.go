package httpgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker"

	"github.com/ajkula/GoLockers/domain/model"
	"github.com/ajkula/GoLockers/domain/port/outbound"
)

const (
	opFetchStats   = "fetch stats"
	opFetchLockers = "fetch lockers"
	opFetchUsers   = "fetch users"
	opFetchLogs    = "fetch activity logs"
	opFetchProfile = "fetch admin profile"
	opForceOpen    = "force open"
)

// Options tunes the HTTP gateway
type Options struct {
	Timeout        time.Duration // per attempt
	MaxRetries     int           // retries of a failed read, commands are never retried
	RetryBaseDelay time.Duration // first backoff delay, doubled on each retry
	Breaker        BreakerConfig
}

func DefaultOptions() Options {
	return Options{
		Timeout:        5 * time.Second,
		MaxRetries:     2,
		RetryBaseDelay: 200 * time.Millisecond,
		Breaker:        DefaultBreakerConfig(),
	}
}

// Client is the DataGateway backed by the locker backend REST API
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	opts       Options
	breaker    *gobreaker.CircuitBreaker
	logger     outbound.Logger
}

var _ outbound.DataGateway = (*Client)(nil)

// statusError is a non-2xx answer of the backend
type statusError struct {
	Status int
	Code   string
	Msg    string
}

func (e *statusError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Msg)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type forceOpenResponse struct {
	Success bool `json:"success"`
}

func NewClient(baseURL string, httpClient *http.Client, opts Options, logger outbound.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: unsupported scheme", baseURL)
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = DefaultOptions().RetryBaseDelay
	}

	return &Client{
		baseURL:    u,
		httpClient: httpClient,
		opts:       opts,
		breaker:    newBreaker("backend reads "+u.Host, opts.Breaker, logger),
		logger:     logger,
	}, nil
}

// BreakerState exposes the read circuit state for health reporting
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) FetchStats(ctx context.Context) (model.DashboardStats, error) {
	var stats model.DashboardStats
	if err := c.read(ctx, opFetchStats, "/api/stats", &stats); err != nil {
		return model.DashboardStats{}, err
	}
	return stats, nil
}

func (c *Client) FetchLockers(ctx context.Context) ([]model.Locker, error) {
	var lockers []model.Locker
	if err := c.read(ctx, opFetchLockers, "/api/lockers", &lockers); err != nil {
		return nil, err
	}

	lockers = keepValid("locker", lockers, lockerID, c.logger)
	sort.SliceStable(lockers, func(i, j int) bool {
		return lockers[i].Number < lockers[j].Number
	})
	return lockers, nil
}

func (c *Client) FetchUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := c.read(ctx, opFetchUsers, "/api/users", &users); err != nil {
		return nil, err
	}
	return keepValid("user", users, userID, c.logger), nil
}

// FetchActivityLogs keeps the backend order so ordering violations stay visible
func (c *Client) FetchActivityLogs(ctx context.Context) ([]model.ActivityLog, error) {
	var logs []model.ActivityLog
	if err := c.read(ctx, opFetchLogs, "/api/logs", &logs); err != nil {
		return nil, err
	}
	return keepValid("activity log", logs, logID, c.logger), nil
}

func (c *Client) FetchAdminProfile(ctx context.Context) (model.AdminProfile, error) {
	var profile model.AdminProfile
	if err := c.read(ctx, opFetchProfile, "/api/admin/profile", &profile); err != nil {
		return model.AdminProfile{}, err
	}
	return profile, nil
}

// ForceOpenLocker sends the command once. A lost answer is reported, never replayed.
func (c *Client) ForceOpenLocker(ctx context.Context, id string) (bool, error) {
	path := "/api/lockers/" + url.PathEscape(id) + "/force-open"

	var resp forceOpenResponse
	err := c.do(ctx, http.MethodPost, path, &resp)
	if err == nil {
		return resp.Success, nil
	}

	var serr *statusError
	if errors.As(err, &serr) {
		switch serr.Code {
		case "not_found":
			err = model.ErrLockerNotFound
		case "not_occupied":
			err = fmt.Errorf("%w: %s", model.ErrLockerNotOccupied, serr.Msg)
		case "rejected":
			err = model.ErrCommandRejected
		}
	} else {
		err = model.NewTransientError(opForceOpen, err)
	}

	c.logger.Warn("Force open failed", "locker", id, "error", err)
	return false, &model.CommandError{Op: opForceOpen, LockerID: id, Err: err}
}

// read performs a GET through the breaker with bounded exponential retries.
// Every failure is reported as a TransientError. Reads cancelled by the caller
// do not count against the backend.
func (c *Client) read(ctx context.Context, op, path string, out any) error {
	if err := ctx.Err(); err != nil {
		return model.NewTransientError(op, err)
	}

	backoff := retry.WithMaxRetries(uint64(c.opts.MaxRetries), retry.NewExponential(c.opts.RetryBaseDelay))

	attempt := 0
	_, err := c.breaker.Execute(func() (interface{}, error) {
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			attempt++
			err := c.do(ctx, http.MethodGet, path, out)
			if err != nil && retryable(err) {
				c.logger.Debug("Backend read failed, retrying", "op", op, "attempt", attempt, "error", err)
				return retry.RetryableError(err)
			}
			return err
		})
		if err != nil && ctx.Err() != nil {
			return nil, &callerAbort{err: err}
		}
		return nil, err
	})
	if err != nil {
		if breakerRejected(err) {
			err = fmt.Errorf("%w: %w", model.ErrBackendUnavailable, err)
		}
		return model.NewTransientError(op, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		serr := &statusError{Status: resp.StatusCode}
		var eresp errorResponse
		if json.Unmarshal(body, &eresp) == nil {
			serr.Code = eresp.Code
			serr.Msg = eresp.Error
		}
		return serr
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// retryable reports network failures, 5xx and 429 answers
func retryable(err error) bool {
	var serr *statusError
	if errors.As(err, &serr) {
		return serr.Status >= 500 || serr.Status == http.StatusTooManyRequests
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var uerr *url.Error
	return errors.As(err, &uerr)
}
