// Package ctftime is the client for the CTFtime event catalog API.
package ctftime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	logx "ctfnotice/pkg/logx"
)

// ErrNotFound is returned when a single-event lookup gets any non-2xx
// response. The catalog answers 404 for unknown ids but also returns other
// statuses for malformed ones; all of them mean "no such event" to callers.
var ErrNotFound = errors.New("ctftime: event not found")

const (
	DefaultBaseURL   = "https://ctftime.org/api/v1"
	DefaultUserAgent = "CTFNotice Bot/1.0"

	// maxLimit is the upper bound the API accepts for the events listing.
	maxLimit = 100
)

type Config struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	// RatePerSec caps outbound requests; the catalog is a shared third-party
	// service and has no auth, so stay polite. Default 1.
	RatePerSec int
}

type Client struct {
	base    string
	ua      string
	httpc   *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 1
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{
		base:    base,
		ua:      ua,
		httpc:   &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
		log:     log,
	}
}

// FetchUpcoming lists events starting within the next daysAhead days.
// limit is capped at the API maximum.
func (c *Client) FetchUpcoming(ctx context.Context, now time.Time, daysAhead, limit int) ([]Event, error) {
	if daysAhead <= 0 {
		daysAhead = 30
	}
	if limit <= 0 || limit > maxLimit {
		limit = maxLimit
	}

	start := now.Unix()
	finish := start + int64(daysAhead)*86400

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("start", strconv.FormatInt(start, 10))
	q.Set("finish", strconv.FormatInt(finish, 10))

	var events []Event
	if err := c.getJSON(ctx, c.base+"/events/?"+q.Encode(), &events); err != nil {
		return nil, err
	}
	c.log.Debug("fetched upcoming events",
		logx.Int("count", len(events)),
		logx.Int("days_ahead", daysAhead),
	)
	return events, nil
}

// FetchEvent looks up one event by id. A non-2xx response is ErrNotFound.
func (c *Client) FetchEvent(ctx context.Context, id int64) (*Event, error) {
	var ev Event
	err := c.getJSON(ctx, fmt.Sprintf("%s/events/%d/", c.base, id), &ev)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			c.log.Debug("event lookup missed", logx.Int64("event_id", id), logx.Int("status", se.code))
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ev, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("ctftime: unexpected status %d: %s", e.code, e.body)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.ua)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &statusError{code: resp.StatusCode, body: string(b)}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
