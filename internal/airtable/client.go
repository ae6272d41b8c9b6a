// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package airtable syncs profiles into an Airtable table over its REST API.
// Every call made through one Client is paced by a fixed-interval limiter so
// the base's request velocity limit is never exceeded.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/creator-sync/internal/httputil"
	"github.com/pdiddy/creator-sync/pkg/types"
)

// DefaultBaseURL is the Airtable REST root. Declared as a var so tests can
// substitute an httptest server.
var DefaultBaseURL = "https://api.airtable.com/v0"

const (
	DefaultUniqueField = "Handle"
	DefaultInterval    = 200 * time.Millisecond
	defaultMaxRetries  = 3
	defaultTimeout     = 30 * time.Second
)

// Record is one table row. ID is assigned by the server and is only known
// after a successful find or create.
type Record struct {
	ID          string         `json:"id,omitempty"`
	Fields      map[string]any `json:"fields"`
	CreatedTime string         `json:"createdTime,omitempty"`
}

type recordsEnvelope struct {
	Records  []Record `json:"records"`
	Typecast bool     `json:"typecast,omitempty"`
}

// Client talks to one table of one base. Calls are serialized, and each
// call is followed by a pause of the configured interval, measured from the
// moment the previous call finished.
type Client struct {
	mu          sync.Mutex
	http        *http.Client
	log         *zap.Logger
	limiter     *rate.Limiter
	baseURL     string
	baseID      string
	table       string
	token       string
	uniqueField string
	userAgent   string
	maxRetries  int
}

// New builds a client from cfg. A nil httpClient gets one with cfg.Timeout;
// a nil logger discards output.
func New(cfg types.StoreConfig, httpClient *http.Client, log *zap.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		http:        httpClient,
		log:         log.Named("airtable"),
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		baseID:      cfg.BaseID,
		table:       cfg.Table,
		token:       cfg.Token,
		uniqueField: cfg.UniqueField,
		userAgent:   cfg.UserAgent,
		maxRetries:  cfg.MaxRetries,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.uniqueField == "" {
		c.uniqueField = DefaultUniqueField
	}
	if c.maxRetries == 0 {
		c.maxRetries = defaultMaxRetries
	}
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	// Burst 1: the first call goes straight through, later calls wait out
	// the interval that settle restarts.
	c.limiter = rate.NewLimiter(rate.Every(interval), 1)
	return c
}

// UniqueField returns the column that holds the handle.
func (c *Client) UniqueField() string { return c.uniqueField }

// FindByHandle returns the row whose unique field equals handle, compared
// case-insensitively, or nil when there is none.
func (c *Client) FindByHandle(ctx context.Context, handle string) (*Record, error) {
	params := url.Values{
		"filterByFormula": {HandleFormula(c.uniqueField, handle)},
		"maxRecords":      {"1"},
	}
	var out recordsEnvelope
	if err := c.do(ctx, "find", http.MethodGet, c.tableURL()+"?"+params.Encode(), nil, &out); err != nil {
		return nil, err
	}
	if len(out.Records) == 0 {
		return nil, nil
	}
	r := out.Records[0]
	return &r, nil
}

// CreateRecord inserts a new row and returns it with its assigned id.
func (c *Client) CreateRecord(ctx context.Context, fields map[string]any) (*Record, error) {
	body := recordsEnvelope{Records: []Record{{Fields: fields}}, Typecast: true}
	var out recordsEnvelope
	if err := c.do(ctx, "create", http.MethodPost, c.tableURL(), body, &out); err != nil {
		return nil, err
	}
	return firstRecord("create", out)
}

// UpdateRecord replaces the given fields on row id. Fields not named are
// left as they are.
func (c *Client) UpdateRecord(ctx context.Context, id string, fields map[string]any) (*Record, error) {
	if id == "" {
		return nil, &Error{Kind: KindValidation, Op: "update", Message: "record id is required"}
	}
	body := recordsEnvelope{Records: []Record{{ID: id, Fields: fields}}, Typecast: true}
	var out recordsEnvelope
	if err := c.do(ctx, "update", http.MethodPatch, c.tableURL(), body, &out); err != nil {
		return nil, err
	}
	return firstRecord("update", out)
}

func firstRecord(op string, out recordsEnvelope) (*Record, error) {
	if len(out.Records) == 0 {
		return nil, &Error{Kind: KindTransient, Op: op, Message: "response carried no records"}
	}
	r := out.Records[0]
	return &r, nil
}

func (c *Client) tableURL() string {
	return c.baseURL + "/" + url.PathEscape(c.baseID) + "/" + url.PathEscape(c.table)
}

// settle empties the limiter's bucket as of now, so the next call waits a
// full interval after this one completed, whether it succeeded or not.
func (c *Client) settle() {
	now := time.Now()
	c.limiter.SetBurstAt(now, 0)
	c.limiter.SetBurstAt(now, 1)
}

// do waits for the limiter, sends one request and decodes the response
// into out. Every failure is returned as an *Error.
func (c *Client) do(ctx context.Context, op, method, reqURL string, body, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.limiter.Wait(ctx); err != nil {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}
	defer c.settle()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindValidation, Op: op, Message: "encoding request", Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(payload))
	if err != nil {
		return &Error{Kind: KindValidation, Op: op, Message: "creating request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.maxRetries)
	if err != nil {
		return &Error{Kind: KindTransient, Op: op, Err: err}
	}
	defer resp.Body.Close()

	c.log.Debug("request",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(op, resp.StatusCode, httputil.ErrorBody(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Kind: KindTransient, Op: op, StatusCode: resp.StatusCode, Message: "decoding response", Err: err}
	}
	return nil
}

var formulaEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// HandleFormula builds the server-side case-insensitive match on field.
func HandleFormula(field, handle string) string {
	return fmt.Sprintf(`LOWER({%s})=LOWER("%s")`, field, formulaEscaper.Replace(handle))
}
