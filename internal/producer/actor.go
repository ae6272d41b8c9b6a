// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package producer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/creator-sync/internal/httputil"
	"github.com/pdiddy/creator-sync/pkg/types"
)

// DefaultBaseURL is the actor platform API root. Declared as a var so tests
// can substitute an httptest server.
var DefaultBaseURL = "https://api.apify.com/v2"

// PollInterval spaces status checks on a run that is still going. Tests
// override this to avoid real sleeps.
var PollInterval = 5 * time.Second

const (
	DefaultActor        = "clockworks~tiktok-scraper"
	DefaultTermField    = "searchQueries"
	DefaultHashtagField = "hashtags"
	DefaultLimitField   = "resultsPerPage"

	defaultTimeout = 90 * time.Second

	// waitForFinish is how long, in seconds, the server may hold a request
	// open waiting for the run to finish.
	waitForFinish = 60
)

// Run statuses reported by the platform.
const (
	StatusReady     = "READY"
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusAborted   = "ABORTED"
	StatusTimedOut  = "TIMED-OUT"
)

// ActorClient runs an actor over the platform's REST API.
type ActorClient struct {
	http         *http.Client
	log          *zap.Logger
	baseURL      string
	actor        string
	token        string
	userAgent    string
	termField    string
	hashtagField string
	limitField   string
	extra        map[string]any
}

// NewActorClient builds a client from cfg. A nil httpClient gets one with
// cfg.Timeout; a nil logger discards output.
func NewActorClient(cfg types.ProducerConfig, httpClient *http.Client, log *zap.Logger) *ActorClient {
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
	c := &ActorClient{
		http:         httpClient,
		log:          log.Named("producer"),
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		actor:        cfg.Actor,
		token:        cfg.Token,
		userAgent:    cfg.UserAgent,
		termField:    cfg.TermField,
		hashtagField: cfg.HashtagField,
		limitField:   cfg.LimitField,
		extra:        cfg.ExtraOptions,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.actor == "" {
		c.actor = DefaultActor
	}
	// The API addresses "user/name" actors as "user~name".
	c.actor = strings.ReplaceAll(c.actor, "/", "~")
	if c.termField == "" {
		c.termField = DefaultTermField
	}
	if c.hashtagField == "" {
		c.hashtagField = DefaultHashtagField
	}
	if c.limitField == "" {
		c.limitField = DefaultLimitField
	}
	return c
}

// Input builds the actor input for seed: the configured extra options, the
// seed value as a one-element list under the term or hashtag field, and
// maxItems under the limit field when positive.
func (c *ActorClient) Input(seed types.Seed, maxItems int) map[string]any {
	input := make(map[string]any, len(c.extra)+2)
	for k, v := range c.extra {
		input[k] = v
	}
	field := c.termField
	if seed.Kind == types.SeedHashtag {
		field = c.hashtagField
	}
	input[field] = []string{seed.Value}
	if maxItems > 0 {
		input[c.limitField] = maxItems
	}
	return input
}

// Invoke starts the actor for seed and polls until the run is terminal.
func (c *ActorClient) Invoke(ctx context.Context, seed types.Seed, maxItems int) (*Run, error) {
	payload, err := json.Marshal(c.Input(seed, maxItems))
	if err != nil {
		return nil, &Error{Op: "invoke", Seed: seed.String(), Message: "encoding input", Err: err}
	}

	startURL := fmt.Sprintf("%s/acts/%s/runs?waitForFinish=%d", c.baseURL, url.PathEscape(c.actor), waitForFinish)
	body, status, err := c.call(ctx, http.MethodPost, startURL, payload)
	if err != nil {
		return nil, &Error{Op: "invoke", Seed: seed.String(), StatusCode: status, Err: err}
	}
	run, err := parseRun(body)
	if err != nil {
		return nil, &Error{Op: "invoke", Seed: seed.String(), Err: err}
	}
	c.log.Info("run started",
		zap.String("seed", seed.String()),
		zap.String("run", run.ID),
		zap.String("status", run.Status),
	)

	for !terminal(run.Status) {
		if run.ID == "" {
			return nil, &Error{Op: "invoke", Seed: seed.String(), Message: "run descriptor has no id"}
		}
		select {
		case <-ctx.Done():
			return nil, &Error{Op: "wait", Seed: seed.String(), Message: "run " + run.ID + " did not finish", Err: ctx.Err()}
		case <-time.After(PollInterval):
		}

		pollURL := fmt.Sprintf("%s/actor-runs/%s?waitForFinish=%d", c.baseURL, url.PathEscape(run.ID), waitForFinish)
		body, status, err := c.call(ctx, http.MethodGet, pollURL, nil)
		if err != nil {
			return nil, &Error{Op: "poll", Seed: seed.String(), StatusCode: status, Err: err}
		}
		next, err := parseRun(body)
		if err != nil {
			return nil, &Error{Op: "poll", Seed: seed.String(), Err: err}
		}
		if next.ID == "" {
			next.ID = run.ID
		}
		run = next
		c.log.Debug("run status", zap.String("run", run.ID), zap.String("status", run.Status))
	}

	if run.Status != StatusSucceeded && run.Status != "" {
		return run, &Error{Op: "run", Seed: seed.String(), Message: fmt.Sprintf("run %s ended %s", run.ID, run.Status)}
	}
	return run, nil
}

// Items fetches the cleaned dataset items.
func (c *ActorClient) Items(ctx context.Context, datasetID string, limit int) ([]types.RawRecord, error) {
	if datasetID == "" {
		return nil, &Error{Op: "items", Message: "dataset id is required"}
	}
	params := url.Values{"clean": {"true"}, "format": {"json"}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	itemsURL := fmt.Sprintf("%s/datasets/%s/items?%s", c.baseURL, url.PathEscape(datasetID), params.Encode())

	body, status, err := c.call(ctx, http.MethodGet, itemsURL, nil)
	if err != nil {
		return nil, &Error{Op: "items", StatusCode: status, Message: "dataset " + datasetID, Err: err}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var items []types.RawRecord
	if err := dec.Decode(&items); err != nil {
		return nil, &Error{Op: "items", Message: "parsing dataset " + datasetID, Err: err}
	}
	return items, nil
}

// call sends one request and returns the body of a 2xx response.
func (c *ActorClient) call(ctx context.Context, method, reqURL string, payload []byte) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, 0)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, fmt.Errorf("%s", httputil.ErrorBody(resp))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}
	return body, resp.StatusCode, nil
}

type runDescriptor struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
	Output           *struct {
		DefaultDatasetID string `json:"defaultDatasetId"`
	} `json:"output"`
}

// parseRun accepts the descriptor wrapped in {"data": ...} or bare, with the
// dataset id either at the top level or under "output".
func parseRun(body []byte) (*Run, error) {
	var env struct {
		Data *runDescriptor `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("parsing run descriptor: %w", err)
	}
	d := env.Data
	if d == nil {
		d = &runDescriptor{}
		if err := json.Unmarshal(body, d); err != nil {
			return nil, fmt.Errorf("parsing run descriptor: %w", err)
		}
	}

	run := &Run{ID: d.ID, Status: strings.ToUpper(d.Status), DatasetID: d.DefaultDatasetID}
	if run.DatasetID == "" && d.Output != nil {
		run.DatasetID = d.Output.DefaultDatasetID
	}
	return run, nil
}

// terminal treats an empty status as finished; some proxies return only the
// dataset id. Invoke accepts such a descriptor as succeeded.
func terminal(status string) bool {
	switch status {
	case StatusSucceeded, StatusFailed, StatusAborted, StatusTimedOut, "":
		return true
	}
	return false
}
