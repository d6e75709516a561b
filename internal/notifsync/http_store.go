package notifsync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"resilinked/backend/config"
	"resilinked/backend/internal/dto"
	pkgerrors "resilinked/backend/pkg/errors"
)

// envelope the server's response wrapper
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		Total       int64 `json:"total"`
		UnreadCount int64 `json:"unreadCount"`
		UnseenCount int64 `json:"unseenCount"`
	} `json:"meta"`
	Message string `json:"message"`
	Alert   string `json:"alert"`
	Field   string `json:"field"`
}

// reply a completed round trip; 4xx replies count as breaker successes
type reply struct {
	status int
	env    envelope
}

// HTTPStore Store over the notification REST API. Calls go through a
// circuit breaker that only counts transport failures and 5xx answers.
type HTTPStore struct {
	baseURL string
	token   string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewHTTPStore creates an HTTPStore for cfg.BaseURL authenticated with cfg.Token
func NewHTTPStore(cfg *config.SyncConfig, logger *zap.Logger) *HTTPStore {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 3
	}
	openFor := cfg.BreakerTimeout
	if openFor <= 0 {
		openFor = 30 * time.Second
	}

	return &HTTPStore{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "notification-store",
			MaxRequests: 1,
			Timeout:     openFor,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Info("circuit breaker state changed",
					zap.String("name", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
		logger: logger,
	}
}

// ────────────────────── Store ──────────────────────

func (h *HTTPStore) List(ctx context.Context, q ListQuery) (*Snapshot, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("autoMarkSeen", strconv.FormatBool(q.AutoMarkSeen))
	if q.Type != "" {
		params.Set("type", q.Type)
	}
	if q.IsRead != nil {
		params.Set("isRead", strconv.FormatBool(*q.IsRead))
	}

	r, err := h.do(ctx, http.MethodGet, "/notifications?"+params.Encode())
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{}
	if err := json.Unmarshal(r.env.Data, &snap.Items); err != nil {
		return nil, fmt.Errorf("%w: decode notifications: %w", pkgerrors.ErrStoreUnavailable, err)
	}
	if r.env.Meta != nil {
		snap.Total = r.env.Meta.Total
		snap.UnreadCount = r.env.Meta.UnreadCount
		snap.UnseenCount = r.env.Meta.UnseenCount
	}
	return snap, nil
}

func (h *HTTPStore) MarkRead(ctx context.Context, id string) error {
	return h.transition(ctx, id, "read")
}

func (h *HTTPStore) MarkSeen(ctx context.Context, id string) error {
	return h.transition(ctx, id, "seen")
}

func (h *HTTPStore) MarkAllRead(ctx context.Context) (int64, error) {
	return h.bulk(ctx, "read")
}

func (h *HTTPStore) MarkAllSeen(ctx context.Context) (int64, error) {
	return h.bulk(ctx, "seen")
}

func (h *HTTPStore) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := h.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id))
	return err
}

// ── helpers ──

func (h *HTTPStore) transition(ctx context.Context, id, action string) error {
	if err := checkID(id); err != nil {
		return err
	}
	_, err := h.do(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/"+action)
	return err
}

func (h *HTTPStore) bulk(ctx context.Context, action string) (int64, error) {
	r, err := h.do(ctx, http.MethodPatch, "/notifications/all/"+action)
	if err != nil {
		return 0, err
	}
	var result dto.BulkUpdateResponse
	if err := json.Unmarshal(r.env.Data, &result); err != nil {
		return 0, fmt.Errorf("%w: decode bulk result: %w", pkgerrors.ErrStoreUnavailable, err)
	}
	return result.UpdatedCount, nil
}

// checkID keeps single-item calls off the bulk routes
func checkID(id string) error {
	if id == "" || id == "all" {
		return pkgerrors.NewValidationError("id", "a single notification id is required")
	}
	return nil
}

func (h *HTTPStore) do(ctx context.Context, method, path string) (*reply, error) {
	out, err := h.breaker.Execute(func() (interface{}, error) {
		return h.roundTrip(ctx, method, path)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", pkgerrors.ErrStoreUnavailable, err)
		}
		return nil, err
	}

	r := out.(*reply)
	switch {
	case r.status < 300:
		return r, nil
	case r.status == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrUnauthorized, r.env.Message)
	case r.status == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", pkgerrors.ErrNotFound, r.env.Message)
	case r.status == http.StatusBadRequest:
		msg := r.env.Alert
		if msg == "" {
			msg = r.env.Message
		}
		return nil, pkgerrors.NewValidationError(r.env.Field, msg)
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", pkgerrors.ErrStoreUnavailable, r.status)
	}
}

func (h *HTTPStore) roundTrip(ctx context.Context, method, path string) (*reply, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pkgerrors.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: server answered %d", pkgerrors.ErrStoreUnavailable, resp.StatusCode)
	}

	r := &reply{status: resp.StatusCode}
	if err := json.NewDecoder(resp.Body).Decode(&r.env); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("%w: decode response: %w", pkgerrors.ErrStoreUnavailable, err)
	}
	return r, nil
}
