// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package airtable

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pdiddy/creator-sync/internal/httputil"
	"github.com/pdiddy/creator-sync/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

// capture records every request the fake server sees.
type capture struct {
	mu       sync.Mutex
	requests []*http.Request
	bodies   []string
	times    []time.Time
}

func (c *capture) add(r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, r)
	c.bodies = append(c.bodies, string(data))
	c.times = append(c.times, time.Now())
}

func newTestClient(t *testing.T, h http.HandlerFunc, mutate ...func(*types.StoreConfig)) (*Client, *capture) {
	t.Helper()
	c := &capture{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.add(r)
		h(w, r)
	}))
	t.Cleanup(ts.Close)

	cfg := types.StoreConfig{
		BaseURL:  ts.URL,
		BaseID:   "appTEST",
		Table:    "Creators",
		Token:    "pat_test",
		Interval: time.Millisecond,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg, ts.Client(), zaptest.NewLogger(t)), c
}

func TestFindByHandleRequest(t *testing.T) {
	client, c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"records":[{"id":"rec1","fields":{"Handle":"@Foo"},"createdTime":"2026-01-01T00:00:00.000Z"}]}`)
	})

	rec, err := client.FindByHandle(context.Background(), "@foo")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "rec1", rec.ID)
	assert.Equal(t, "@Foo", rec.Fields["Handle"])

	req := c.requests[0]
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "/appTEST/Creators", req.URL.Path)
	assert.Equal(t, `LOWER({Handle})=LOWER("@foo")`, req.URL.Query().Get("filterByFormula"))
	assert.Equal(t, "1", req.URL.Query().Get("maxRecords"))
	assert.Equal(t, "Bearer pat_test", req.Header.Get("Authorization"))
}

func TestFindByHandleNoMatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"records":[]}`)
	})

	rec, err := client.FindByHandle(context.Background(), "@nobody")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestFindByHandleCustomUniqueField(t *testing.T) {
	client, c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"records":[]}`)
	}, func(cfg *types.StoreConfig) { cfg.UniqueField = "TikTok Handle" })

	_, err := client.FindByHandle(context.Background(), "@foo")
	require.NoError(t, err)
	assert.Equal(t, `LOWER({TikTok Handle})=LOWER("@foo")`, c.requests[0].URL.Query().Get("filterByFormula"))
}

func TestHandleFormulaEscapes(t *testing.T) {
	assert.Equal(t, `LOWER({Handle})=LOWER("@a\"b\\c")`, HandleFormula("Handle", `@a"b\c`))
}

func TestCreateRecord(t *testing.T) {
	client, c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"records":[{"id":"recNEW","fields":{"Handle":"@foo"}}]}`)
	})

	rec, err := client.CreateRecord(context.Background(), map[string]any{"Handle": "@foo", "Followers": 10})
	require.NoError(t, err)
	assert.Equal(t, "recNEW", rec.ID)

	assert.Equal(t, http.MethodPost, c.requests[0].Method)
	assert.Equal(t, "application/json", c.requests[0].Header.Get("Content-Type"))
	assert.JSONEq(t, `{"records":[{"fields":{"Handle":"@foo","Followers":10}}],"typecast":true}`, c.bodies[0])
}

func TestUpdateRecord(t *testing.T) {
	client, c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"records":[{"id":"rec1","fields":{"Handle":"@foo","Followers":20}}]}`)
	})

	rec, err := client.UpdateRecord(context.Background(), "rec1", map[string]any{"Followers": 20})
	require.NoError(t, err)
	assert.Equal(t, "rec1", rec.ID)

	assert.Equal(t, http.MethodPatch, c.requests[0].Method)
	assert.JSONEq(t, `{"records":[{"id":"rec1","fields":{"Followers":20}}],"typecast":true}`, c.bodies[0])
}

func TestUpdateRecordRequiresID(t *testing.T) {
	client, c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.UpdateRecord(context.Background(), "", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, KindValidation, KindOf(err))
	assert.Empty(t, c.requests)
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		status int
		body   string
		kind   Kind
		msg    string
	}{
		{http.StatusUnauthorized, `{"error":{"type":"AUTHENTICATION_REQUIRED","message":"Authentication required"}}`, KindAuth, "AUTHENTICATION_REQUIRED: Authentication required"},
		{http.StatusForbidden, `{"error":"INVALID_PERMISSIONS_OR_MODEL_NOT_FOUND"}`, KindAuth, "INVALID_PERMISSIONS_OR_MODEL_NOT_FOUND"},
		{http.StatusUnprocessableEntity, `{"error":{"type":"INVALID_VALUE_FOR_COLUMN","message":"Field \"Followers\" cannot accept the provided value"}}`, KindValidation, "INVALID_VALUE_FOR_COLUMN"},
		{http.StatusNotFound, `{"error":"NOT_FOUND"}`, KindValidation, "NOT_FOUND"},
		{http.StatusBadRequest, `not json`, KindValidation, "not json"},
		{http.StatusInternalServerError, ``, KindTransient, ""},
		{http.StatusServiceUnavailable, `{"error":"SERVICE_UNAVAILABLE"}`, KindTransient, "SERVICE_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("HTTP %d", tt.status), func(t *testing.T) {
			client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.CreateRecord(context.Background(), map[string]any{"Handle": "@foo"})
			require.Error(t, err)

			var e *Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.kind, e.Kind)
			assert.Equal(t, tt.status, e.StatusCode)
			assert.Contains(t, e.Message, tt.msg)
			assert.Equal(t, tt.kind == KindAuth, IsAuth(err))
		})
	}
}

func TestRetriesOn429ThenSucceeds(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"records":[]}`)
	})

	rec, err := client.FindByHandle(context.Background(), "@foo")
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Equal(t, 3, calls)
}

func TestPersistent429IsTransient(t *testing.T) {
	client, c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, func(cfg *types.StoreConfig) { cfg.MaxRetries = 2 })

	_, err := client.FindByHandle(context.Background(), "@foo")
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
	assert.Len(t, c.requests, 3, "one call plus two retries")
}

func TestNetworkErrorIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	client := New(types.StoreConfig{BaseURL: ts.URL, BaseID: "app", Table: "t", Token: "x"}, nil, nil)
	_, err := client.FindByHandle(context.Background(), "@foo")
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
	assert.False(t, IsAuth(err))
}

func TestPacing(t *testing.T) {
	const interval = 40 * time.Millisecond
	client, c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"records":[]}`)
	}, func(cfg *types.StoreConfig) { cfg.Interval = interval })

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.FindByHandle(context.Background(), "@foo")
		require.NoError(t, err)
	}

	assert.Less(t, c.times[0].Sub(start), interval, "first call must not wait")
	for i := 1; i < len(c.times); i++ {
		gap := c.times[i].Sub(c.times[i-1])
		// Allow a little scheduler slack below the nominal interval.
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond, "gap %d", i)
	}
}

func TestPacingCountsFromCallEnd(t *testing.T) {
	const (
		interval = 40 * time.Millisecond
		latency  = 60 * time.Millisecond
	)
	var mu sync.Mutex
	var finished []time.Time
	client, c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(latency)
		fmt.Fprint(w, `{"records":[]}`)
		mu.Lock()
		finished = append(finished, time.Now())
		mu.Unlock()
	}, func(cfg *types.StoreConfig) { cfg.Interval = interval })

	for i := 0; i < 3; i++ {
		_, err := client.FindByHandle(context.Background(), "@foo")
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, c.times, 3)
	for i := 1; i < len(c.times); i++ {
		// A slow call does not eat into the pause that follows it.
		gap := c.times[i].Sub(finished[i-1])
		assert.GreaterOrEqual(t, gap, interval-5*time.Millisecond, "gap %d", i)
	}
}

func TestPacingAfterFailedCall(t *testing.T) {
	const interval = 40 * time.Millisecond
	client, c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"error":{"type":"INVALID_VALUE_FOR_COLUMN","message":"bad"}}`)
	}, func(cfg *types.StoreConfig) { cfg.Interval = interval })

	for i := 0; i < 2; i++ {
		_, err := client.FindByHandle(context.Background(), "@foo")
		require.Error(t, err)
	}

	require.Len(t, c.times, 2)
	assert.GreaterOrEqual(t, c.times[1].Sub(c.times[0]), interval-5*time.Millisecond)
}

func TestPacingHonorsContext(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"records":[]}`)
	}, func(cfg *types.StoreConfig) { cfg.Interval = time.Hour })

	_, err := client.FindByHandle(context.Background(), "@foo")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = client.FindByHandle(ctx, "@foo")
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestFields(t *testing.T) {
	now := time.Date(2026, 3, 4, 5, 6, 7, 0, time.FixedZone("EST", -5*3600))
	p := types.Profile{
		Handle:        "@foo",
		DisplayName:   "Foo Bar",
		FollowerCount: 1234,
		Bio:           "hi",
		Region:        "US",
		Topics:        []string{"deals", "coupons"},
	}

	got := Fields(p, "", now)
	assert.Equal(t, map[string]any{
		"Handle":      "@foo",
		"Full Name":   "Foo Bar",
		"Followers":   int64(1234),
		"Bio":         "hi",
		"Region":      "US",
		"Topics":      "deals, coupons",
		"Last Synced": "2026-03-04T10:06:07Z",
	}, got)

	// Round-trip through JSON to confirm the wire shape.
	data, err := json.Marshal(Fields(types.Profile{Handle: "@x"}, "TikTok", now))
	require.NoError(t, err)
	assert.JSONEq(t, `{"TikTok":"@x","Followers":0,"Last Synced":"2026-03-04T10:06:07Z"}`, string(data))
}
