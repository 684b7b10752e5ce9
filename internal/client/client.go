package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rpggio/gmboard/internal/domain/campaign"
	"github.com/rpggio/gmboard/internal/domain/mutation"
	"github.com/rpggio/gmboard/internal/domain/system"
	"github.com/rpggio/gmboard/internal/overlay"
)

// DefaultTimeout bounds every request unless overridden.
const DefaultTimeout = 10 * time.Second

// StatusError is a non-2xx response from the server.
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to the REST API.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a client for the server at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL is the server address the client was created with.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) ListCampaigns(ctx context.Context) ([]campaign.Campaign, error) {
	var out []campaign.Campaign
	if err := c.do(ctx, http.MethodGet, CampaignsKey, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCampaign(ctx context.Context, id int64) (*campaign.Campaign, error) {
	var out campaign.Campaign
	if err := c.do(ctx, http.MethodGet, campaignPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateCampaign(ctx context.Context, req campaign.CreateRequest) (*campaign.Campaign, error) {
	var out campaign.Campaign
	if err := c.do(ctx, http.MethodPost, CampaignsKey, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCampaign(ctx context.Context, id int64, req campaign.UpdateRequest) (*campaign.Campaign, error) {
	var out campaign.Campaign
	if err := c.do(ctx, http.MethodPut, campaignPath(id), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddCharacter(ctx context.Context, campaignID int64, req campaign.AddCharacterRequest) (*campaign.Character, error) {
	var out campaign.Character
	if err := c.do(ctx, http.MethodPost, campaignPath(campaignID)+"/characters", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateCharacter sends a partial update; fields left nil are unchanged.
func (c *Client) UpdateCharacter(ctx context.Context, campaignID, characterID int64, patch campaign.CharacterPatch) (*campaign.Character, error) {
	var out campaign.Character
	if err := c.do(ctx, http.MethodPut, characterPath(campaignID, characterID), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyMutation has the server apply m against its stored copy.
func (c *Client) ApplyMutation(ctx context.Context, campaignID, characterID int64, m mutation.Mutation) (*campaign.Character, error) {
	var out campaign.Character
	if err := c.do(ctx, http.MethodPost, characterPath(campaignID, characterID)+"/mutations", m, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSystems(ctx context.Context) (map[string]system.System, error) {
	out := map[string]system.System{}
	if err := c.do(ctx, http.MethodGet, "/api/systems", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOverlay(ctx context.Context, addr overlay.Address) (*overlay.View, error) {
	var out overlay.View
	if err := c.do(ctx, http.MethodGet, "/api"+addr.Path(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		var eb errorBody
		if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb); err == nil {
			statusErr.Code = eb.Error.Code
			statusErr.Message = eb.Error.Message
		}
		return statusErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}

func campaignPath(id int64) string {
	return CampaignsKey + "/" + strconv.FormatInt(id, 10)
}

func characterPath(campaignID, characterID int64) string {
	return campaignPath(campaignID) + "/characters/" + strconv.FormatInt(characterID, 10)
}
