package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BradenHooton/breachwatch/internal/models"
	pkglogger "github.com/BradenHooton/breachwatch/pkg/logger"
)

const maxBreachResponseBytes = 4 << 20

// BreachClient queries the xposedornot breach API
type BreachClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewBreachClient creates a client for baseURL. A zero timeout leaves the
// transport defaults in place.
func NewBreachClient(baseURL string, timeout time.Duration, logger *slog.Logger) *BreachClient {
	return &BreachClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type checkEmailResponse struct {
	Breaches json.RawMessage `json:"breaches"`
	Email    string          `json:"email"`
	Error    string          `json:"Error"`
}

type breachAnalyticsResponse struct {
	BreachMetrics *struct {
		Industry          json.RawMessage `json:"industry"`
		PasswordsStrength json.RawMessage `json:"passwords_strength"`
		Risk              json.RawMessage `json:"risk"`
		YearwiseDetails   json.RawMessage `json:"yearwise_details"`
	} `json:"BreachMetrics"`
	BreachesSummary json.RawMessage `json:"BreachesSummary"`
	ExposedBreaches *struct {
		BreachesDetails json.RawMessage `json:"breaches_details"`
	} `json:"ExposedBreaches"`
	Detail string `json:"detail"`
}

// CheckEmail looks up the breaches an address appears in. An empty result or
// an explicit not-found marker is a clean result, not an error.
func (c *BreachClient) CheckEmail(ctx context.Context, email string) (*models.BreachResult, error) {
	endpoint := fmt.Sprintf("%s/v1/check-email/%s", c.baseURL, url.PathEscape(email))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	result := &models.BreachResult{Email: email}

	if isEmptyPayload(body) {
		return result, nil
	}

	var resp checkEmailResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode check-email response: %v", models.ErrLookupFailed, err)
	}

	if resp.Error != "" || isEmptyPayload(resp.Breaches) {
		return result, nil
	}

	// breaches is a single-element array wrapping the list of site names
	var sites [][]string
	if err := json.Unmarshal(resp.Breaches, &sites); err != nil {
		return nil, fmt.Errorf("%w: decode breaches: %v", models.ErrLookupFailed, err)
	}
	if len(sites) > 0 {
		result.Count = len(sites[0])
	}

	result.Breached = true
	result.Breaches = resp.Breaches
	if resp.Email != "" {
		result.Email = resp.Email
	}

	return result, nil
}

// BreachAnalytics fetches the detailed analytics for an address. Missing
// metrics or exposure sections mean the address has no recorded breaches.
func (c *BreachClient) BreachAnalytics(ctx context.Context, email string) (*models.DetailedBreachResult, error) {
	endpoint := fmt.Sprintf("%s/v1/breach-analytics?email=%s", c.baseURL, url.QueryEscape(email))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	if isEmptyPayload(body) {
		return &models.DetailedBreachResult{}, nil
	}

	var resp breachAnalyticsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: decode breach-analytics response: %v", models.ErrLookupFailed, err)
	}

	if resp.BreachMetrics == nil || resp.ExposedBreaches == nil || resp.Detail == "Not found" {
		return &models.DetailedBreachResult{}, nil
	}

	count, err := summarySiteCount(resp.BreachesSummary)
	if err != nil {
		c.logger.Warn("breach summary could not be counted",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
	}

	return &models.DetailedBreachResult{
		Found:             true,
		BreachCount:       count,
		Industries:        resp.BreachMetrics.Industry,
		PasswordsStrength: resp.BreachMetrics.PasswordsStrength,
		RiskScore:         resp.BreachMetrics.Risk,
		YearwiseBreaches:  resp.BreachMetrics.YearwiseDetails,
		ExposedBreaches:   resp.ExposedBreaches.BreachesDetails,
		BreachesSummary:   resp.BreachesSummary,
	}, nil
}

func (c *BreachClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", models.ErrLookupFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Error("breach API request failed",
			slog.String("path", req.URL.Path),
			slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: status %d", models.ErrLookupFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBreachResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", models.ErrLookupFailed, err)
	}
	return body, nil
}

// summarySiteCount counts the ';'-separated sites in BreachesSummary.site
func summarySiteCount(raw json.RawMessage) (int, error) {
	if isEmptyPayload(raw) {
		return 0, nil
	}

	var summary struct {
		Site string `json:"site"`
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		return 0, err
	}
	if summary.Site == "" {
		return 0, nil
	}
	return len(strings.Split(summary.Site, ";")), nil
}

func isEmptyPayload(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", "[]", "{}":
		return true
	}
	return false
}
