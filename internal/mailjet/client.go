package mailjet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

const (
	resourceCampaign       = "campaign"
	resourceGeoStats       = "geostatistics"
	resourceLinkClick      = "statistics/link-click"
	resourceStatCounters   = "statcounters"
	resourceUserAgentStats = "useragentstatistics"

	// maxListLimit is the largest page Mailjet returns for a listing.
	maxListLimit = 1000

	// topLinks is how many of the most clicked links are reported per campaign.
	topLinks = 10
)

// Client is a Mailjet REST API client authenticated with an API key pair.
type Client struct {
	// baseURL is the REST root.
	baseURL string

	// httpClient is the HTTP client for making requests.
	httpClient *http.Client

	// privateKey is the API secret key, used as basic auth password.
	privateKey string

	// publicKey is the API key, used as basic auth user.
	publicKey string

	// userAgent is sent with every request.
	userAgent string
}

// Campaigns lists the campaigns of the given period, oldest send first.
// At most 1000 campaigns are returned.
func (c *Client) Campaigns(ctx context.Context, period Period) ([]Campaign, error) {
	params := url.Values{}
	params.Set("Period", string(period))
	params.Set("Limit", strconv.Itoa(maxListLimit))
	params.Set("Sort", "SendStartAt")

	return get[Campaign](ctx, c, resourceCampaign, params)
}

// CampaignCounters returns the daily event counters of a campaign between from and to.
// Both bounds are ISO 8601 timestamps as accepted by the FromTS and ToTS filters.
func (c *Client) CampaignCounters(ctx context.Context, campaignID int64, from string, to string) ([]StatCounter, error) {
	params := url.Values{}
	params.Set("CounterSource", "Campaign")
	params.Set("CounterTiming", "Event")
	params.Set("CounterResolution", "Day")
	params.Set("FromTS", from)
	params.Set("ToTS", to)
	params.Set("SourceID", strconv.FormatInt(campaignID, 10))

	return get[StatCounter](ctx, c, resourceStatCounters, params)
}

// GeoStats returns the per-country opens and clicks of a campaign, most opened first.
func (c *Client) GeoStats(ctx context.Context, campaignID int64) ([]GeoStat, error) {
	params := url.Values{}
	params.Set("CampaignID", strconv.FormatInt(campaignID, 10))
	params.Set("Limit", strconv.Itoa(maxListLimit))
	params.Set("Sort", "OpenedCount DESC")

	return get[GeoStat](ctx, c, resourceGeoStats, params)
}

// LinkClicks returns the ten most clicked links of a campaign.
func (c *Client) LinkClicks(ctx context.Context, campaignID int64) ([]LinkClick, error) {
	params := url.Values{}
	params.Set("CampaignID", strconv.FormatInt(campaignID, 10))
	params.Set("Sort", "ClickedEventsCount DESC")
	params.Set("Limit", strconv.Itoa(topLinks))

	return get[LinkClick](ctx, c, resourceLinkClick, params)
}

// UserAgentStats returns the user agents that opened a campaign, most frequent first.
func (c *Client) UserAgentStats(ctx context.Context, campaignID int64) ([]UserAgentStat, error) {
	params := url.Values{}
	params.Set("CampaignID", strconv.FormatInt(campaignID, 10))
	params.Set("Event", "open")
	params.Set("Limit", strconv.Itoa(maxListLimit))
	params.Set("Sort", "Count DESC")

	return get[UserAgentStat](ctx, c, resourceUserAgentStats, params)
}

// get requests a resource listing and decodes its Data entries.
func get[T any](ctx context.Context, c *Client, resource string, params url.Values) ([]T, error) {
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, resource, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", resource, err)
	}

	req.SetBasicAuth(c.publicKey, c.privateKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting %s: %w", resource, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{
			Body:       string(body),
			Resource:   resource,
			StatusCode: resp.StatusCode,
		}
	}

	var result response[T]
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", resource, err)
	}

	return result.Data, nil
}

// NewClient creates a Mailjet client from the public and private API keys.
func NewClient(publicKey string, privateKey string, opts ...Option) (*Client, error) {
	var errs []error
	if publicKey == "" {
		errs = append(errs, errors.New("public API key is required"))
	}
	if privateKey == "" {
		errs = append(errs, errors.New("private API key is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, fmt.Errorf("applying option: %w", err)
		}
	}

	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	return &Client{
		baseURL:    o.baseURL,
		httpClient: httpClient,
		privateKey: privateKey,
		publicKey:  publicKey,
		userAgent:  o.userAgent,
	}, nil
}
