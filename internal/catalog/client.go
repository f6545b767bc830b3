package catalog

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

const maxResponseBytes = 8 << 20

// Operation names carried by errors, log entries and metrics.
const (
	OpFetchItem       = "fetch_item"
	OpListItems       = "list_items"
	OpListItemsByType = "list_items_by_type"
)

// Client wraps the read-only endpoints of the Pokémon catalog API.
// A single Client is meant to be shared; it keeps no per-call state.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	recorder   Recorder
	logger     zerolog.Logger
}

// New creates a catalog client. No request is made until an operation is called.
func New(cfg Config, logger zerolog.Logger, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("catalog base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid catalog base URL %q: %w", cfg.BaseURL, err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		httpClient: newHTTPClient(timeout),
		logger:     logger.With().Str("component", "catalog").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}

	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         dialer.DialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: timeout,
		},
	}
}

// FetchItem returns a single Pokémon by name or numeric id.
func (c *Client) FetchItem(ctx context.Context, identifier string) (*ItemDetail, error) {
	start := time.Now()
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, c.fail(OpFetchItem, start, &Error{
			Op:   OpFetchItem,
			Kind: KindInvalidArgument,
			Err:  fmt.Errorf("identifier is required"),
		})
	}

	body, cerr := c.get(ctx, OpFetchItem, identifier, "/pokemon/"+url.PathEscape(identifier), nil, true)
	if cerr != nil {
		return nil, c.fail(OpFetchItem, start, cerr)
	}
	if !gjson.ValidBytes(body) {
		return nil, c.fail(OpFetchItem, start, malformed(OpFetchItem, identifier))
	}

	root := gjson.ParseBytes(body)
	detail := &ItemDetail{
		ID:    int(root.Get("id").Int()),
		Name:  root.Get("name").String(),
		Types: []string{},
	}
	if v := root.Get("base_experience"); v.Type == gjson.Number {
		n := int(v.Int())
		detail.BaseExperience = &n
	}
	root.Get("types.#.type.name").ForEach(func(_, v gjson.Result) bool {
		detail.Types = append(detail.Types, v.String())
		return true
	})
	if v := root.Get("sprites.front_default"); v.Type == gjson.String {
		s := v.String()
		detail.SpriteURL = &s
	}

	c.observe(OpFetchItem, "ok", start)
	return detail, nil
}

// FetchItemByID is FetchItem for a numeric id.
func (c *Client) FetchItemByID(ctx context.Context, id int) (*ItemDetail, error) {
	return c.FetchItem(ctx, strconv.Itoa(id))
}

// ListItems returns one page of the catalog listing.
func (c *Client) ListItems(ctx context.Context, limit, offset int) (*Page, error) {
	start := time.Now()
	if limit < 1 || offset < 0 {
		return nil, c.fail(OpListItems, start, &Error{
			Op:         OpListItems,
			Kind:       KindInvalidArgument,
			Identifier: fmt.Sprintf("limit=%d offset=%d", limit, offset),
			Err:        ErrInvalidPagination,
		})
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	body, cerr := c.get(ctx, OpListItems, "", "/pokemon", params, false)
	if cerr != nil {
		return nil, c.fail(OpListItems, start, cerr)
	}
	if !gjson.ValidBytes(body) {
		return nil, c.fail(OpListItems, start, malformed(OpListItems, ""))
	}

	root := gjson.ParseBytes(body)
	page := &Page{
		TotalCount:     int(root.Get("count").Int()),
		NextCursor:     optionalString(root.Get("next")),
		PreviousCursor: optionalString(root.Get("previous")),
		Items:          []ItemSummary{},
	}
	root.Get("results").ForEach(func(_, v gjson.Result) bool {
		page.Items = append(page.Items, ItemSummary{
			Name:      v.Get("name").String(),
			Reference: v.Get("url").String(),
		})
		return true
	})

	c.observe(OpListItems, "ok", start)
	return page, nil
}

// ListItemsByType returns every Pokémon of the given type, in upstream order.
func (c *Client) ListItemsByType(ctx context.Context, typeName string) ([]ItemSummary, error) {
	start := time.Now()
	typeName = strings.ToLower(strings.TrimSpace(typeName))
	if typeName == "" {
		return nil, c.fail(OpListItemsByType, start, &Error{
			Op:   OpListItemsByType,
			Kind: KindInvalidArgument,
			Err:  fmt.Errorf("type name is required"),
		})
	}

	body, cerr := c.get(ctx, OpListItemsByType, typeName, "/type/"+url.PathEscape(typeName), nil, true)
	if cerr != nil {
		return nil, c.fail(OpListItemsByType, start, cerr)
	}
	if !gjson.ValidBytes(body) {
		return nil, c.fail(OpListItemsByType, start, malformed(OpListItemsByType, typeName))
	}

	items := []ItemSummary{}
	gjson.GetBytes(body, "pokemon").ForEach(func(_, v gjson.Result) bool {
		items = append(items, ItemSummary{
			Name:      v.Get("pokemon.name").String(),
			Reference: v.Get("pokemon.url").String(),
		})
		return true
	})

	c.observe(OpListItemsByType, "ok", start)
	return items, nil
}

// get performs a GET against the catalog and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, op, identifier, endpoint string, params url.Values, notFoundAware bool) ([]byte, *Error) {
	requestURL := c.baseURL + endpoint
	if len(params) > 0 {
		requestURL += "?" + params.Encode()
	}

	c.logger.Info().
		Str("op", op).
		Str("method", http.MethodGet).
		Str("url", requestURL).
		Msg("Calling catalog API")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, &Error{Op: op, Kind: KindInternal, Identifier: identifier, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(op, identifier, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classifyTransport(op, identifier, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyStatus(op, identifier, resp.StatusCode, notFoundAware)
	}

	c.logger.Info().
		Str("op", op).
		Int("status", resp.StatusCode).
		Str("url", requestURL).
		Msg("Catalog API responded")

	return body, nil
}

// fail logs a classified error and records the outcome.
func (c *Client) fail(op string, start time.Time, e *Error) error {
	event := c.logger.Error()
	if e.Kind == KindNotFound || e.Kind == KindInvalidArgument {
		event = c.logger.Warn()
	}

	event.Str("op", op).Str("kind", string(e.Kind))
	if e.Identifier != "" {
		event.Str("identifier", e.Identifier)
	}
	if e.StatusCode != 0 {
		event.Int("status", e.StatusCode)
	}
	if e.Kind == KindUnavailable {
		event.Bool("timeout", e.Timeout)
	}
	event.Err(e.Err).Msg("Catalog call failed")

	c.observe(op, string(e.Kind), start)
	return e
}

func (c *Client) observe(op, outcome string, start time.Time) {
	if c.recorder != nil {
		c.recorder.ObserveCatalogCall(op, outcome, time.Since(start))
	}
}

func malformed(op, identifier string) *Error {
	return &Error{
		Op:         op,
		Kind:       KindInternal,
		Identifier: identifier,
		Err:        fmt.Errorf("malformed JSON in catalog response"),
	}
}

func optionalString(v gjson.Result) *string {
	if v.Type != gjson.String {
		return nil
	}
	s := v.String()
	return &s
}
