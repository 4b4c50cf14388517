// Package client provides an HTTP client for the ort REST API.
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/ortrealty/ort/internal/appointment"
	"github.com/ortrealty/ort/internal/inquiry"
	"github.com/ortrealty/ort/internal/property"
)

// Client is an HTTP client for the ort API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new API client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError is returned when the server answers with a 4xx or 5xx.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// ListOptions controls filtering for ListProperties.
type ListOptions struct {
	PropertyType string
	City         string
	MinPrice     *float64
	MaxPrice     *float64
	Skip         int
	Limit        int
}

func (o ListOptions) query() string {
	v := url.Values{}
	if o.PropertyType != "" {
		v.Set("type", o.PropertyType)
	}
	if o.City != "" {
		v.Set("city", o.City)
	}
	if o.MinPrice != nil {
		v.Set("min_price", strconv.FormatFloat(*o.MinPrice, 'f', -1, 64))
	}
	if o.MaxPrice != nil {
		v.Set("max_price", strconv.FormatFloat(*o.MaxPrice, 'f', -1, 64))
	}
	if o.Skip > 0 {
		v.Set("skip", strconv.Itoa(o.Skip))
	}
	if o.Limit > 0 {
		v.Set("limit", strconv.Itoa(o.Limit))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// ListProperties returns one page of active listings.
func (c *Client) ListProperties(opts ListOptions) ([]*property.Property, error) {
	var props []*property.Property
	if err := c.get("/api/properties"+opts.query(), &props); err != nil {
		return nil, err
	}
	return props, nil
}

// SearchProperties runs a filtered, sorted search.
func (c *Client) SearchProperties(opts property.SearchOptions) ([]*property.Property, error) {
	var props []*property.Property
	if err := c.send("POST", "/api/properties/search", opts, &props); err != nil {
		return nil, err
	}
	return props, nil
}

// GetProperty returns a listing.
func (c *Client) GetProperty(id int64) (*property.Property, error) {
	var p property.Property
	if err := c.get(fmt.Sprintf("/api/properties/%d", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreateProperty creates a listing owned by the caller.
func (c *Client) CreateProperty(in property.CreateInput) (*property.Property, error) {
	var p property.Property
	if err := c.send("POST", "/api/properties", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProperty applies a partial update to a listing.
func (c *Client) UpdateProperty(id int64, in property.UpdateInput) (*property.Property, error) {
	var p property.Property
	if err := c.send("PUT", fmt.Sprintf("/api/properties/%d", id), in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// DeleteProperty removes a listing.
func (c *Client) DeleteProperty(id int64) error {
	return c.send("DELETE", fmt.Sprintf("/api/properties/%d", id), nil, nil)
}

// ValuateProperty asks the server to estimate a listing's market value.
func (c *Client) ValuateProperty(id int64) (*property.Valuation, error) {
	var v property.Valuation
	if err := c.get(fmt.Sprintf("/api/properties/%d/valuation", id), &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// AddInquiry sends an inquiry about a listing.
func (c *Client) AddInquiry(id int64, message string) (*inquiry.Inquiry, error) {
	body := map[string]string{"message": message}
	var q inquiry.Inquiry
	if err := c.send("POST", fmt.Sprintf("/api/properties/%d/inquiries", id), body, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// ListInquiries returns inquiries on a listing.
func (c *Client) ListInquiries(id int64) ([]*inquiry.Inquiry, error) {
	var inquiries []*inquiry.Inquiry
	if err := c.get(fmt.Sprintf("/api/properties/%d/inquiries", id), &inquiries); err != nil {
		return nil, err
	}
	return inquiries, nil
}

// AddAppointment schedules an appointment at a listing.
func (c *Client) AddAppointment(id int64, date, typ, notes string) (*appointment.Appointment, error) {
	body := map[string]string{
		"appointment_date": date,
		"appointment_type": typ,
		"notes":            notes,
	}
	var a appointment.Appointment
	if err := c.send("POST", fmt.Sprintf("/api/properties/%d/appointments", id), body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAppointments returns appointments at a listing.
func (c *Client) ListAppointments(id int64) ([]*appointment.Appointment, error) {
	var appts []*appointment.Appointment
	if err := c.get(fmt.Sprintf("/api/properties/%d/appointments", id), &appts); err != nil {
		return nil, err
	}
	return appts, nil
}

// Me describes the authenticated caller.
type Me struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
	Admin bool   `json:"admin"`
}

// Me returns the identity behind the API key.
func (c *Client) Me() (*Me, error) {
	var me Me
	if err := c.get("/api/me", &me); err != nil {
		return nil, err
	}
	return &me, nil
}

// APIKey describes one of the caller's API keys. The raw key is never
// returned after creation.
type APIKey struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	KeyPrefix  string  `json:"key_prefix"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

// ListKeys returns the caller's API keys, newest first.
func (c *Client) ListKeys() ([]APIKey, error) {
	var keys []APIKey
	if err := c.get("/api/keys", &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

// DeleteKey revokes one of the caller's API keys.
func (c *Client) DeleteKey(id int64) error {
	return c.send("DELETE", fmt.Sprintf("/api/keys/%d", id), nil, nil)
}

// RequestLogin asks the server to email a magic link.
func (c *Client) RequestLogin(email string) error {
	return c.send("POST", "/api/auth/login", map[string]string{"email": email}, nil)
}

// Health checks that the server is reachable.
func (c *Client) Health() error {
	return c.get("/health", nil)
}

// get performs a GET request and decodes the response.
func (c *Client) get(path string, result interface{}) error {
	return c.send("GET", path, nil, result)
}

// send performs a request with an optional JSON body and decodes the response.
func (c *Client) send(method, path string, body interface{}, result interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, result)
}

// do executes an HTTP request with auth header and handles errors.
func (c *Client) do(req *http.Request, result interface{}) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("closing response body", "err", cerr)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		msg := "server error: " + http.StatusText(resp.StatusCode)
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			msg = errResp.Error
		}
		return &StatusError{Code: resp.StatusCode, Message: msg}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}
