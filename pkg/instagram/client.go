package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"igaudit/pkg/errors"
	"igaudit/pkg/logger"
)

// DefaultUserAgent is sent when no user agent is configured
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36"

// maxBodyPreview bounds how much of an unparsable body is logged
const maxBodyPreview = 200

// Client represents an Instagram web API client
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    string
	logger     logger.Logger
}

// NewClient creates a new Instagram API client
func NewClient(timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"User-Agent":      DefaultUserAgent,
			"Accept":          "application/json",
			"Accept-Language": "en-US,en;q=0.9",
			"X-IG-App-ID":     WebAppID,
			"Sec-Fetch-Site":  "same-origin",
			"Sec-Fetch-Mode":  "cors",
		},
		baseURL: BaseURL,
		logger:  log,
	}
}

// SetHeader sets a custom header for the client
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHeaders sets multiple headers at once
func (c *Client) SetHeaders(headers map[string]string) {
	for key, value := range headers {
		c.headers[key] = value
	}
}

// SetBaseURL points the client at another host, such as a test server
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// SetSession installs the session cookies that unlock profile data
func (c *Client) SetSession(sessionID, csrfToken string) {
	var cookies []string
	if sessionID != "" {
		cookies = append(cookies, "sessionid="+sessionID)
	}
	if csrfToken != "" {
		cookies = append(cookies, "csrftoken="+csrfToken)
		c.headers["X-CSRFToken"] = csrfToken
	}
	if len(cookies) > 0 {
		c.headers["Cookie"] = strings.Join(cookies, "; ")
	}
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, fmt.Errorf("request aborted: %w", ctxErr)
		}
		return nil, errors.New(errors.ErrorTypeNetwork, 0, "network error: %v", err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// GetJSON performs a GET request and decodes the JSON response
func (c *Client) GetJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.New(errors.ErrorTypeUnknown, 0, "failed to create request: %v", err)
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.New(errors.ErrorTypeNetwork, resp.StatusCode, "failed to read response body: %v", err)
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > maxBodyPreview {
			bodyPreview = bodyPreview[:maxBodyPreview] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return errors.New(errors.ErrorTypeParsing, resp.StatusCode, "failed to parse JSON: %v", err)
	}

	return nil
}

// checkResponseStatus maps an HTTP status onto a typed error
func (c *Client) checkResponseStatus(resp *http.Response) error {
	status := resp.StatusCode
	fields := map[string]interface{}{
		"status": status,
		"url":    resp.Request.URL.String(),
	}

	switch {
	case status < 400:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", fields)
		return errors.New(errors.ErrorTypeAuth, status, "authentication required")
	case status == http.StatusNotFound:
		c.logger.WarnWithFields("resource not found", fields)
		return errors.New(errors.ErrorTypeNotFound, status, "resource not found")
	case status == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", fields)
		return errors.New(errors.ErrorTypeRateLimit, status, "rate limit exceeded")
	case status >= 500:
		c.logger.ErrorWithFields("server error", fields)
		return errors.New(errors.ErrorTypeServerError, status, "server error")
	default:
		c.logger.ErrorWithFields("unexpected API error", fields)
		return errors.New(errors.ErrorTypeUnknown, status, "unexpected status code: %d", status)
	}
}

// FetchWebProfile fetches a user's profile counters, biography and most
// recent posts. A missing account yields a not_found error.
func (c *Client) FetchWebProfile(ctx context.Context, username string) (*User, error) {
	url := GetProfileURL(c.baseURL, username)

	c.logger.DebugWithFields("fetching user profile", map[string]interface{}{
		"username": username,
		"url":      url,
	})

	var response WebProfileResponse
	if err := c.GetJSON(ctx, url, &response); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NotFound(username)
		}
		c.logger.ErrorWithFields("failed to fetch user profile", map[string]interface{}{
			"username": username,
			"error":    err.Error(),
		})
		return nil, err
	}

	if response.RequiresToLogin {
		c.logger.WarnWithFields("authentication required for profile", map[string]interface{}{
			"username": username,
		})
		return nil, errors.New(errors.ErrorTypeAuth, http.StatusUnauthorized,
			"Instagram requires authentication to view this profile")
	}

	if response.Data.User == nil {
		return nil, errors.NotFound(username)
	}

	c.logger.DebugWithFields("successfully fetched user profile", map[string]interface{}{
		"username":  username,
		"followers": response.Data.User.EdgeFollowedBy.Count,
		"posts":     response.Data.User.EdgeOwnerToTimelineMedia.Count,
	})

	return response.Data.User, nil
}
