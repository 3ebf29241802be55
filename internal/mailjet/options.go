package mailjet

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://api.mailjet.com/v3/REST"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "campaignsync"
)

// Option configures optional Client settings.
type Option func(*options) error

// options holds optional configuration for creating a Client.
type options struct {
	// baseURL is the REST root, without a trailing slash.
	baseURL string

	// httpClient replaces the default HTTP client when set.
	httpClient *http.Client

	// timeout applies to the default HTTP client.
	timeout time.Duration

	// userAgent is sent with every request.
	userAgent string
}

// WithBaseURL points the client at another REST root, such as a test server.
func WithBaseURL(baseURL string) Option {
	return func(o *options) error {
		baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
		if baseURL == "" {
			return errors.New("base URL cannot be empty")
		}
		u, err := url.Parse(baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("base URL must be absolute, got %q", baseURL)
		}
		o.baseURL = baseURL
		return nil
	}
}

// WithHTTPClient sets a custom HTTP client. Overrides WithTimeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(o *options) error {
		if httpClient == nil {
			return errors.New("HTTP client cannot be nil")
		}
		o.httpClient = httpClient
		return nil
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", timeout)
		}
		o.timeout = timeout
		return nil
	}
}

// WithUserAgent sets the User-Agent header sent to Mailjet.
func WithUserAgent(userAgent string) Option {
	return func(o *options) error {
		userAgent = strings.TrimSpace(userAgent)
		if userAgent == "" {
			return errors.New("user agent cannot be empty")
		}
		o.userAgent = userAgent
		return nil
	}
}

func defaultOptions() *options {
	return &options{
		baseURL:   defaultBaseURL,
		timeout:   defaultTimeout,
		userAgent: defaultUserAgent,
	}
}
