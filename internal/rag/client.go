package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Leah1314/gut-balance-buddy-24-sub000/internal"
)

var (
	ErrNotConfigured = errors.New("rag: RAG_SERVICE_URL not configured")
	ErrUnavailable   = errors.New("rag: service unavailable")
	// ErrConnection marks failures to reach the service at all. It always
	// travels together with ErrUnavailable.
	ErrConnection = errors.New("rag: connection failed")
)

const (
	dataTypeHealthInfo   = "health_info"
	dataTypeTrackHistory = "track_history"
	defaultNResults      = 5
)

// handler has one method per Request variant.
type handler interface {
	ingestHealthProfile(IngestHealthProfile) (json.RawMessage, error)
	ingestTrackData(IngestTrackData) (json.RawMessage, error)
	ingestImage(IngestImage) (json.RawMessage, error)
	retrieveUserData(RetrieveUserData) (json.RawMessage, error)
	checkUserData(CheckUserData) (json.RawMessage, error)
	captionImage(CaptionImage) (json.RawMessage, error)
	healthCheck(HealthCheck) (json.RawMessage, error)
	trackEvent(TrackEvent) (json.RawMessage, error)
}

// UserData is what the retrieval service returns for a query.
type UserData struct {
	HealthInfo   []string `json:"health_info"`
	TrackHistory []string `json:"track_history"`
}

type DataStatus struct {
	HealthInfo   bool `json:"health_info"`
	TrackHistory bool `json:"track_history"`
}

// Client relays requests to the external retrieval service. The service owns
// embeddings and ranking; this side only shapes payloads and applies the
// fallbacks callers rely on.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     internal.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger internal.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Enabled() bool { return c.baseURL != "" }

// Do runs req on behalf of userID. The user id always comes from the
// authenticated caller, never from the request body.
func (c *Client) Do(ctx context.Context, userID string, req Request) (json.RawMessage, error) {
	return req.dispatch(&call{c: c, ctx: ctx, userID: userID})
}

// Retrieve returns matching user data; failures degrade to empty lists.
func (c *Client) Retrieve(ctx context.Context, userID, query string, n int) UserData {
	out := UserData{HealthInfo: []string{}, TrackHistory: []string{}}
	raw, err := c.Do(ctx, userID, RetrieveUserData{Query: query, NResults: n})
	if err != nil {
		return out
	}
	var got UserData
	if err := json.Unmarshal(raw, &got); err != nil {
		c.logger.Warnf("rag: unexpected retrieve response: %v", err)
		return out
	}
	if got.HealthInfo != nil {
		out.HealthInfo = got.HealthInfo
	}
	if got.TrackHistory != nil {
		out.TrackHistory = got.TrackHistory
	}
	return out
}

// EnrichQuery appends retrieved profile and history context to query.
func (c *Client) EnrichQuery(ctx context.Context, userID, query string) string {
	if !c.Enabled() {
		return query
	}
	data := c.Retrieve(ctx, userID, query, 3)
	var b strings.Builder
	b.WriteString(query)
	if len(data.HealthInfo) > 0 {
		b.WriteString("\n\nUser's Health Profile:\n")
		b.WriteString(strings.Join(data.HealthInfo, "\n"))
	}
	if len(data.TrackHistory) > 0 {
		b.WriteString("\n\nUser's Recent Tracking History:\n")
		b.WriteString(strings.Join(data.TrackHistory, "\n"))
	}
	return b.String()
}

func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

type ingestPayload struct {
	Text        string `json:"text"`
	UserID      string `json:"user_id"`
	DataType    string `json:"data_type"`
	Source      string `json:"source"`
	ContentType string `json:"content_type"`
}

type ingestImagePayload struct {
	ImageData   string `json:"image_data"`
	UserID      string `json:"user_id"`
	DataType    string `json:"data_type"`
	Source      string `json:"source"`
	ContentType string `json:"content_type"`
}

type retrievePayload struct {
	UserID   string `json:"user_id"`
	Query    string `json:"query"`
	NResults int    `json:"n_results"`
}

type checkPayload struct {
	UserID string `json:"user_id"`
}

type captionPayload struct {
	ImageData   string `json:"image_data"`
	ContentType string `json:"content_type"`
}

// call binds one Do invocation's context and user to the handler methods.
type call struct {
	c      *Client
	ctx    context.Context
	userID string
}

var _ handler = (*call)(nil)

func (k *call) ingestHealthProfile(r IngestHealthProfile) (json.RawMessage, error) {
	return k.c.post(k.ctx, "/ingest", ingestPayload{
		Text:        r.ProfileText,
		UserID:      k.userID,
		DataType:    dataTypeHealthInfo,
		Source:      "manual",
		ContentType: "profile",
	})
}

func (k *call) ingestTrackData(r IngestTrackData) (json.RawMessage, error) {
	return k.c.post(k.ctx, "/ingest", ingestPayload{
		Text:        r.TrackText,
		UserID:      k.userID,
		DataType:    dataTypeTrackHistory,
		Source:      sourceFor(r.HasImage),
		ContentType: orDefault(r.ContentType, "general"),
	})
}

func (k *call) ingestImage(r IngestImage) (json.RawMessage, error) {
	return k.c.post(k.ctx, "/ingest_image", ingestImagePayload{
		ImageData:   r.ImageData,
		UserID:      k.userID,
		DataType:    dataTypeTrackHistory,
		Source:      "image",
		ContentType: orDefault(r.ContentType, "food"),
	})
}

func (k *call) retrieveUserData(r RetrieveUserData) (json.RawMessage, error) {
	n := r.NResults
	if n <= 0 {
		n = defaultNResults
	}
	raw, err := k.c.post(k.ctx, "/retrieve", retrievePayload{UserID: k.userID, Query: r.Query, NResults: n})
	if err != nil {
		k.c.logger.Warnf("rag: retrieve failed, returning empty result: %v", err)
		return json.RawMessage(`{"health_info":[],"track_history":[]}`), nil
	}
	return raw, nil
}

func (k *call) checkUserData(CheckUserData) (json.RawMessage, error) {
	raw, err := k.c.post(k.ctx, "/check_data", checkPayload{UserID: k.userID})
	if err != nil {
		k.c.logger.Warnf("rag: check_data failed, reporting no data: %v", err)
		return json.RawMessage(`{"health_info":false,"track_history":false}`), nil
	}
	return raw, nil
}

func (k *call) captionImage(r CaptionImage) (json.RawMessage, error) {
	return k.c.post(k.ctx, "/caption", captionPayload{ImageData: r.ImageData, ContentType: orDefault(r.ContentType, "food")})
}

func (k *call) healthCheck(HealthCheck) (json.RawMessage, error) {
	raw, err := k.c.send(k.ctx, http.MethodGet, "/health", nil)
	if err != nil {
		body, _ := json.Marshal(map[string]string{"status": "unavailable", "error": err.Error()})
		return body, nil
	}
	return raw, nil
}

// trackEvent never fails the caller: tracking screens treat ingestion as
// optional and only look at the success flag.
func (k *call) trackEvent(r TrackEvent) (json.RawMessage, error) {
	raw, err := k.c.post(k.ctx, "/ingest", ingestPayload{
		Text:        r.Text(),
		UserID:      k.userID,
		DataType:    dataTypeTrackHistory,
		Source:      sourceFor(r.IncludeImage),
		ContentType: orDefault(r.Type, "general"),
	})
	if err != nil {
		k.c.logger.Warnf("rag: track event ingestion failed: %v", err)
		if errors.Is(err, ErrConnection) {
			return json.RawMessage(`{"success":false,"message":"RAG service connection failed"}`), nil
		}
		return json.RawMessage(`{"success":false,"message":"RAG service unavailable"}`), nil
	}
	return json.Marshal(struct {
		Success bool            `json:"success"`
		Result  json.RawMessage `json:"result"`
	}{true, raw})
}

func (c *Client) post(ctx context.Context, path string, payload any) (json.RawMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("rag: marshal %s payload: %w", path, err)
	}
	return c.send(ctx, http.MethodPost, path, body)
}

func (c *Client) send(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	if !c.Enabled() {
		return nil, ErrNotConfigured
	}
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("rag: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %v", ErrUnavailable, ErrConnection, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Errorf("rag: %s %s returned %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(raw)))
		return nil, fmt.Errorf("%w: %s returned %s", ErrUnavailable, path, resp.Status)
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("%w: %s returned invalid JSON", ErrUnavailable, path)
	}
	return raw, nil
}

func sourceFor(hasImage bool) string {
	if hasImage {
		return "image"
	}
	return "manual"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
