package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	operation string
	outcome   string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (r *fakeRecorder) ObserveCatalogCall(operation, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, recordedCall{operation, outcome})
}

func newTestClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	client, err := New(Config{BaseURL: baseURL, Timeout: time.Second}, zerolog.Nop(), opts...)
	require.NoError(t, err)
	return client
}

func catalogError(t *testing.T, err error) *Error {
	t.Helper()
	require.Error(t, err)
	var ce *Error
	require.ErrorAs(t, err, &ce)
	return ce
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
		wantURL string
	}{
		{
			name:    "default config",
			cfg:     DefaultConfig(),
			wantURL: "https://pokeapi.co/api/v2",
		},
		{
			name:    "trailing slash trimmed",
			cfg:     Config{BaseURL: "http://localhost:9000/api/v2/"},
			wantURL: "http://localhost:9000/api/v2",
		},
		{
			name:    "missing base URL",
			cfg:     Config{},
			wantErr: "base URL is required",
		},
		{
			name:    "relative base URL",
			cfg:     Config{BaseURL: "pokeapi"},
			wantErr: "invalid catalog base URL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.cfg, zerolog.Nop())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, client.baseURL)
			assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
		})
	}
}

func TestFetchItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pokemon/pikachu", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Write([]byte(`{"id":25,"name":"pikachu","base_experience":112,"types":[{"type":{"name":"electric"}}],"sprites":{"front_default":"url"}}`))
	}))
	defer server.Close()

	rec := &fakeRecorder{}
	client := newTestClient(t, server.URL, WithRecorder(rec))

	detail, err := client.FetchItem(context.Background(), "pikachu")
	require.NoError(t, err)

	assert.Equal(t, 25, detail.ID)
	assert.Equal(t, "pikachu", detail.Name)
	require.NotNil(t, detail.BaseExperience)
	assert.Equal(t, 112, *detail.BaseExperience)
	assert.Equal(t, []string{"electric"}, detail.Types)
	require.NotNil(t, detail.SpriteURL)
	assert.Equal(t, "url", *detail.SpriteURL)

	assert.Equal(t, []recordedCall{{OpFetchItem, "ok"}}, rec.calls)
}

func TestFetchItemMissingOptionalFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":10001,"name":"deoxys-attack","base_experience":null,"sprites":{}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	detail, err := client.FetchItem(context.Background(), "10001")
	require.NoError(t, err)
	assert.Equal(t, 10001, detail.ID)
	assert.Nil(t, detail.BaseExperience)
	assert.Nil(t, detail.SpriteURL)
	require.NotNil(t, detail.Types)
	assert.Empty(t, detail.Types)

	encoded, err := json.Marshal(detail)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":10001,"name":"deoxys-attack","base_experience":null,"types":[],"sprite_url":null}`, string(encoded))
}

func TestFetchItemTypesKeepUpstreamOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":6,"name":"charizard","types":[{"slot":1,"type":{"name":"fire"}},{"slot":2,"type":{"name":"flying"}}]}`))
	}))
	defer server.Close()

	detail, err := newTestClient(t, server.URL).FetchItemByID(context.Background(), 6)
	require.NoError(t, err)
	assert.Equal(t, []string{"fire", "flying"}, detail.Types)
}

func TestFetchItemNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not Found", http.StatusNotFound)
	}))
	defer server.Close()

	var logs bytes.Buffer
	client, err := New(Config{BaseURL: server.URL}, zerolog.New(&logs))
	require.NoError(t, err)

	_, err = client.FetchItem(context.Background(), "missingno")
	ce := catalogError(t, err)
	assert.Equal(t, KindNotFound, ce.Kind)
	assert.Equal(t, "missingno", ce.Identifier)
	assert.Equal(t, http.StatusNotFound, ce.StatusCode)
	assert.False(t, ce.Retryable())

	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), `"identifier":"missingno"`)
	assert.Contains(t, logs.String(), `"op":"fetch_item"`)
}

func TestUpstreamStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()

	_, err := client.FetchItem(ctx, "1")
	ce := catalogError(t, err)
	assert.Equal(t, KindUpstream, ce.Kind)
	assert.Equal(t, http.StatusInternalServerError, ce.StatusCode)

	_, err = client.ListItems(ctx, 20, 0)
	assert.True(t, IsKind(err, KindUpstream))

	_, err = client.ListItemsByType(ctx, "fire")
	assert.True(t, IsKind(err, KindUpstream))
}

func TestListItemsNotFoundIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).ListItems(context.Background(), 20, 0)
	ce := catalogError(t, err)
	assert.Equal(t, KindUpstream, ce.Kind)
	assert.Equal(t, http.StatusNotFound, ce.StatusCode)
}

func TestListItemsInvalidArguments(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"count":0,"results":[]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	tests := []struct {
		name   string
		limit  int
		offset int
	}{
		{"zero limit", 0, 0},
		{"negative limit", -5, 0},
		{"negative offset", 20, -1},
		{"both out of range", 0, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := client.ListItems(context.Background(), tt.limit, tt.offset)
			ce := catalogError(t, err)
			assert.Equal(t, KindInvalidArgument, ce.Kind)
			assert.ErrorIs(t, err, ErrInvalidPagination)
		})
	}

	assert.Zero(t, calls.Load())
}

func TestListItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/pokemon", r.URL.Path)
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "0", r.URL.Query().Get("offset"))
		w.Write([]byte(`{
			"count": 1302,
			"next": "https://pokeapi.co/api/v2/pokemon?offset=20&limit=20",
			"previous": null,
			"results": [
				{"name": "bulbasaur", "url": "https://pokeapi.co/api/v2/pokemon/1/"},
				{"name": "ivysaur", "url": "https://pokeapi.co/api/v2/pokemon/2/"},
				{"name": "venusaur", "url": "https://pokeapi.co/api/v2/pokemon/3/"}
			]
		}`))
	}))
	defer server.Close()

	page, err := newTestClient(t, server.URL).ListItems(context.Background(), 20, 0)
	require.NoError(t, err)

	assert.Equal(t, 1302, page.TotalCount)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "https://pokeapi.co/api/v2/pokemon?offset=20&limit=20", *page.NextCursor)
	assert.Nil(t, page.PreviousCursor)
	assert.Equal(t, []ItemSummary{
		{Name: "bulbasaur", Reference: "https://pokeapi.co/api/v2/pokemon/1/"},
		{Name: "ivysaur", Reference: "https://pokeapi.co/api/v2/pokemon/2/"},
		{Name: "venusaur", Reference: "https://pokeapi.co/api/v2/pokemon/3/"},
	}, page.Items)
}

func TestListItemsByType(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.Write([]byte(`{
			"name": "fire",
			"pokemon": [
				{"slot": 1, "pokemon": {"name": "charmander", "url": "https://pokeapi.co/api/v2/pokemon/4/"}},
				{"slot": 1, "pokemon": {"name": "vulpix", "url": "https://pokeapi.co/api/v2/pokemon/37/"}}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	upper, err := client.ListItemsByType(context.Background(), "FIRE")
	require.NoError(t, err)
	lower, err := client.ListItemsByType(context.Background(), "fire")
	require.NoError(t, err)

	assert.Equal(t, []string{"/type/fire", "/type/fire"}, paths)
	assert.Equal(t, upper, lower)
	assert.Equal(t, []ItemSummary{
		{Name: "charmander", Reference: "https://pokeapi.co/api/v2/pokemon/4/"},
		{Name: "vulpix", Reference: "https://pokeapi.co/api/v2/pokemon/37/"},
	}, lower)
}

func TestListItemsByTypeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL).ListItemsByType(context.Background(), "Shadow")
	ce := catalogError(t, err)
	assert.Equal(t, KindNotFound, ce.Kind)
	assert.Equal(t, "shadow", ce.Identifier)
}

func TestTimeoutIsUnavailable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	rec := &fakeRecorder{}
	client, err := New(Config{BaseURL: server.URL, Timeout: 50 * time.Millisecond}, zerolog.Nop(), WithRecorder(rec))
	require.NoError(t, err)
	ctx := context.Background()

	calls := map[string]func() error{
		OpFetchItem: func() error {
			_, err := client.FetchItem(ctx, "pikachu")
			return err
		},
		OpListItems: func() error {
			_, err := client.ListItems(ctx, 20, 0)
			return err
		},
		OpListItemsByType: func() error {
			_, err := client.ListItemsByType(ctx, "fire")
			return err
		},
	}

	for op, call := range calls {
		t.Run(op, func(t *testing.T) {
			ce := catalogError(t, call())
			assert.Equal(t, KindUnavailable, ce.Kind)
			assert.True(t, ce.Timeout)
			assert.True(t, ce.Retryable())
		})
	}

	for _, c := range rec.calls {
		assert.Equal(t, string(KindUnavailable), c.outcome)
	}
}

func TestContextDeadlineIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, server.URL).FetchItem(ctx, "pikachu")
	ce := catalogError(t, err)
	assert.Equal(t, KindUnavailable, ce.Kind)
	assert.True(t, ce.Timeout)
}

func TestConnectionFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	client := newTestClient(t, addr)

	_, err := client.FetchItem(context.Background(), "pikachu")
	ce := catalogError(t, err)
	assert.Equal(t, KindUnavailable, ce.Kind)
	assert.False(t, ce.Timeout)

	_, err = client.ListItems(context.Background(), 20, 0)
	assert.True(t, IsKind(err, KindUnavailable))
}

func TestMalformedBodyIsInternal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": 25, "name": `))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.FetchItem(context.Background(), "pikachu")
	assert.True(t, IsKind(err, KindInternal))

	_, err = client.ListItems(context.Background(), 1, 0)
	assert.True(t, IsKind(err, KindInternal))

	_, err = client.ListItemsByType(context.Background(), "fire")
	assert.True(t, IsKind(err, KindInternal))
}

func TestEmptyIdentifierRejected(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	_, err := client.FetchItem(context.Background(), "  ")
	assert.True(t, IsKind(err, KindInvalidArgument))

	_, err = client.ListItemsByType(context.Background(), "")
	assert.True(t, IsKind(err, KindInvalidArgument))

	assert.Zero(t, calls.Load())
}
