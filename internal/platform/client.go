package platform

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/azdo-tools/pipeline-migration-workbench/internal/models"
)

const apiVersion = "6.0"

// continuationHeader carries the opaque token for the next page of a
// paginated list response.
const continuationHeader = "X-MS-ContinuationToken"

// Client is the shared HTTP client for one collection. Authentication is
// basic auth with an empty username and the personal access token as the
// password.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client from a Connection.
func NewClient(conn *models.Connection) *Client {
	transport := &http.Transport{}
	if conn.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	} else if conn.CACert != "" {
		caCertPool := x509.NewCertPool()
		if caCertPool.AppendCertsFromPEM([]byte(conn.CACert)) {
			transport.TLSClientConfig = &tls.Config{RootCAs: caCertPool}
		}
	}
	return &Client{
		baseURL: conn.BaseURL(),
		token:   conn.Token,
		httpClient: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Re-apply auth on redirects
				if len(via) > 0 {
					req.SetBasicAuth("", conn.Token)
				}
				return nil
			},
		},
	}
}

// listResponse is the standard list envelope.
type listResponse struct {
	Count int               `json:"count"`
	Value []json.RawMessage `json:"value"`
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values, payload interface{}) (*http.Request, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api-version", apiVersion)
	u := c.baseURL + path + "?" + params.Encode()

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth("", c.token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request) ([]byte, *http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, resp, fmt.Errorf("%s %s: HTTP %d: %s", req.Method, req.URL.Path, resp.StatusCode, truncate(string(body), 200))
	}
	return body, resp, nil
}

// Get performs an authenticated GET request and returns the response body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, params, nil)
	if err != nil {
		return nil, err
	}
	body, _, err := c.do(req)
	return body, err
}

// GetJSON performs an authenticated GET and unmarshals the response into dest.
func (c *Client) GetJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dest)
}

// GetAll fetches every page of a paginated list endpoint, following the
// continuation token until exhausted.
func (c *Client) GetAll(ctx context.Context, path string, params url.Values) ([]json.RawMessage, error) {
	var all []json.RawMessage
	token := ""

	for {
		pageParams := url.Values{}
		for k, vs := range params {
			pageParams[k] = vs
		}
		if token != "" {
			pageParams.Set("continuationToken", token)
		}

		req, err := c.newRequest(ctx, http.MethodGet, path, pageParams, nil)
		if err != nil {
			return nil, err
		}
		body, resp, err := c.do(req)
		if err != nil {
			return nil, err
		}

		var page listResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("parsing response: %w", err)
		}
		all = append(all, page.Value...)

		token = resp.Header.Get(continuationHeader)
		if token == "" {
			return all, nil
		}
	}
}

// Post performs an authenticated POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, payload interface{}) ([]byte, int, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return nil, 0, err
	}
	body, resp, err := c.do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	return body, status, err
}

// Put performs an authenticated PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, payload interface{}) ([]byte, int, error) {
	req, err := c.newRequest(ctx, http.MethodPut, path, nil, payload)
	if err != nil {
		return nil, 0, err
	}
	body, resp, err := c.do(req)
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	return body, status, err
}

// Ping checks reachability without requiring valid credentials: any HTTP
// response, authorized or not, proves the deployment is there.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/_apis/connectionData", nil, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET /_apis/connectionData: %w", err)
	}
	resp.Body.Close()
	return nil
}

// CheckAuth verifies the personal access token is accepted.
func (c *Client) CheckAuth(ctx context.Context) error {
	_, err := c.Get(ctx, "/_apis/connectionData", nil)
	return err
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
