package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
)

const defaultTimeout = 30 * time.Second

// HTTPClient talks to the entity REST backend:
//
//	options  GET    {base}/{entity}/options/
//	get      GET    {base}/{entity}/?page=..&size=..
//	getOne   GET    {base}/{entity}/{id}/
//	post     POST   {base}/{entity}/
//	update   PUT    {base}/{entity}/{id}/   (id removed from the body)
//	delete   DELETE {base}/{entity}/{id}
//	export   GET    {base}/{entity}/export/
type HTTPClient struct {
	BaseURL string
	HTTP    *http.Client
	Limiter *rate.Limiter
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithHTTPClient sets the underlying http.Client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPClient) {
		if c != nil {
			h.HTTP = c
		}
	}
}

// WithRateLimit throttles outgoing requests. A non positive limit disables throttling.
func WithRateLimit(perSecond float64, burst int) HTTPOption {
	return func(h *HTTPClient) {
		if perSecond <= 0 {
			h.Limiter = nil
			return
		}

		h.Limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithTokenSource authorizes every request with tokens from ts.
func WithTokenSource(ts oauth2.TokenSource) HTTPOption {
	return func(h *HTTPClient) {
		if ts == nil {
			return
		}

		base := h.HTTP.Transport
		if base == nil {
			base = http.DefaultTransport
		}

		h.HTTP = &http.Client{
			Timeout:   h.HTTP.Timeout,
			Transport: &oauth2.Transport{Source: ts, Base: base},
		}
	}
}

// NewHTTPClient creates an HTTPClient for baseURL.
func NewHTTPClient(baseURL string, opts ...HTTPOption) (*HTTPClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrEmptyBaseURL
	}

	if _, err := url.Parse(baseURL); err != nil {
		return nil, errors.Wrap(err, "invalid api base url")
	}

	c := &HTTPClient{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Fetch implements Client.
func (c *HTTPClient) Fetch(ctx context.Context, entityName string, op Operation, payload any) (any, error) {
	switch op {
	case OpOptions:
		return c.doJSON(ctx, op, entityName, http.MethodGet, c.endpoint(entityName, "options")+"/", nil)
	case OpGet:
		return c.doJSON(ctx, op, entityName, http.MethodGet, c.withQuery(c.endpoint(entityName)+"/", payload), nil)
	case OpGetOne:
		id := entity.ToString(IDOf(payload))
		if id == "" {
			return nil, errors.Wrapf(ErrMissingID, "%s %s", op, entityName)
		}

		return c.doJSON(ctx, op, entityName, http.MethodGet, c.endpoint(entityName, id)+"/", nil)
	case OpPost:
		if payload == nil {
			payload = map[string]any{}
		}

		return c.doJSON(ctx, op, entityName, http.MethodPost, c.endpoint(entityName)+"/", payload)
	case OpUpdate:
		row := asMap(payload)

		id := entity.ToString(row["id"])
		if id == "" {
			return nil, errors.Wrapf(ErrMissingID, "%s %s", op, entityName)
		}

		body := make(map[string]any, len(row))
		for k, v := range row {
			if k != "id" {
				body[k] = v
			}
		}

		return c.doJSON(ctx, op, entityName, http.MethodPut, c.endpoint(entityName, id)+"/", body)
	case OpDelete:
		id := entity.ToString(IDOf(payload))
		if id == "" {
			return nil, errors.Wrapf(ErrMissingID, "%s %s", op, entityName)
		}

		if _, _, err := c.do(ctx, op, entityName, http.MethodDelete, c.endpoint(entityName, id), nil); err != nil {
			return nil, err
		}

		return true, nil
	case OpExport:
		return c.export(ctx, entityName, payload)
	}

	return nil, errors.Wrapf(ErrUnknownOperation, "%q", op)
}

func (c *HTTPClient) export(ctx context.Context, entityName string, payload any) (any, error) {
	raw, header, err := c.do(ctx, OpExport, entityName, http.MethodGet,
		c.withQuery(c.endpoint(entityName, "export")+"/", payload), nil)
	if err != nil {
		return nil, err
	}

	ct := header.Get("Content-Type")
	if mt, _, _ := mime.ParseMediaType(ct); mt == "application/json" {
		return decode(raw)
	}

	blob := &Blob{ContentType: ct, Data: raw}
	if _, params, err := mime.ParseMediaType(header.Get("Content-Disposition")); err == nil {
		blob.Filename = params["filename"]
	}

	return blob, nil
}

// endpoint joins the base URL with the escaped segments of the entity path and the extra segments.
func (c *HTTPClient) endpoint(entityName string, extra ...string) string {
	var b strings.Builder

	b.WriteString(c.BaseURL)

	for _, seg := range strings.Split(strings.Trim(entityName, "/"), "/") {
		b.WriteString("/")
		b.WriteString(url.PathEscape(seg))
	}

	for _, seg := range extra {
		b.WriteString("/")
		b.WriteString(url.PathEscape(seg))
	}

	return b.String()
}

// withQuery appends the payload entries that are neither nil nor empty strings as query parameters.
func (c *HTTPClient) withQuery(endpoint string, payload any) string {
	params := url.Values{}

	for k, v := range asMap(payload) {
		if v == nil {
			continue
		}

		s := entity.ToString(v)
		if s == "" {
			if _, isString := v.(string); isString {
				continue
			}
		}

		params.Set(k, s)
	}

	if len(params) == 0 {
		return endpoint
	}

	return endpoint + "?" + params.Encode()
}

func (c *HTTPClient) doJSON(
	ctx context.Context,
	op Operation,
	entityName, method, endpoint string,
	body any,
) (any, error) {
	raw, _, err := c.do(ctx, op, entityName, method, endpoint, body)
	if err != nil {
		return nil, err
	}

	return decode(raw)
}

func (c *HTTPClient) do(
	ctx context.Context,
	op Operation,
	entityName, method, endpoint string,
	body any,
) ([]byte, http.Header, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, nil, errors.Wrap(err, "rate limiter")
		}
	}

	var reader io.Reader

	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "failed to encode %s payload", op)
		}

		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to build %s request", op)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()

	res, err := c.HTTP.Do(req)
	if err != nil {
		observeRequest(op, "error")
		return nil, nil, errors.Wrapf(err, "%s %s", method, endpoint)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		observeRequest(op, "error")
		return nil, nil, errors.Wrapf(err, "failed to read %s response", op)
	}

	log.Debug().
		Str("op", string(op)).
		Str("method", method).
		Str("url", endpoint).
		Int("status", res.StatusCode).
		Dur("took", time.Since(start)).
		Msg("api request")

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		observeRequest(op, "status")

		return nil, nil, &StatusError{
			Op:         op,
			Entity:     entityName,
			StatusCode: res.StatusCode,
			Body:       strings.TrimSpace(string(raw)),
		}
	}

	observeRequest(op, "ok")

	return raw, res.Header, nil
}

func decode(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil //nolint:nilnil
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode response")
	}

	return out, nil
}

func asMap(payload any) map[string]any {
	switch p := payload.(type) {
	case map[string]any:
		return p
	case Query:
		return p
	case entity.Row:
		return p
	}

	return nil
}
