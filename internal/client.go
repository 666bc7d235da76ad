package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

// CookieKey is the kv entry holding the serialized session cookies. The
// identity itself is never persisted; the server cookie is the only durable
// trace of a login.
const CookieKey = "afs:cookies"

// Client is the JSON-over-HTTP client for the analytics backend. Session
// cookies are kept in a jar so authenticated calls work across requests.
//
// There is deliberately no request timeout and no cancellation: a submitted
// query runs until the server answers or the transport fails.
type Client struct {
	base *url.URL
	http *http.Client
	jar  *cookiejar.Jar
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL %q: %w", baseURL, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid server URL %q: missing http(s) scheme", baseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		base: base,
		http: &http.Client{Jar: jar},
		jar:  jar,
	}, nil
}

// BaseURL returns the configured server URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

// do sends a JSON request and returns status and raw body. A transport-level
// failure is returned as a RequestError with Status 0.
func (c *Client) do(method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.endpoint(path), reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, &RequestError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, &RequestError{Endpoint: path, Err: err}
	}

	LogDebug("%s %s -> %d (%d bytes)", method, path, resp.StatusCode, len(data))
	return resp.StatusCode, data, nil
}

// detailFrom extracts the server's {detail} message from an error body.
func detailFrom(body []byte, fallback string) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return fallback
}

// Me asks the backend who the current session belongs to. Unauthorized is
// reported as a SessionExpiredError; the caller decides what anonymous
// means.
func (c *Client) Me() (*UserInfo, error) {
	status, body, err := c.do(http.MethodGet, "/api/auth/me/", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, &SessionExpiredError{Endpoint: "/api/auth/me/"}
	}
	if status != http.StatusOK {
		return nil, &RequestError{Endpoint: "/api/auth/me/", Status: status, Body: string(body)}
	}

	var user UserInfo
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse identity response: %w", err)
	}
	return &user, nil
}

// Login authenticates the session. Failures come back as AuthError carrying
// the server's detail text or a default message.
func (c *Client) Login(username, password string) (*UserInfo, error) {
	payload := map[string]string{"username": username, "password": password}
	status, body, err := c.do(http.MethodPost, "/api/auth/login/", payload)
	if err != nil {
		return nil, &AuthError{Op: "login", Detail: "unable to reach the server"}
	}
	if status != http.StatusOK {
		return nil, &AuthError{Op: "login", Detail: detailFrom(body, "invalid username or password")}
	}

	var user UserInfo
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, &AuthError{Op: "login", Detail: "unexpected response from server"}
	}
	return &user, nil
}

// Register creates an account. It does not authenticate the session.
func (c *Client) Register(username, password string) error {
	payload := map[string]string{"username": username, "password": password}
	status, body, err := c.do(http.MethodPost, "/api/auth/register/", payload)
	if err != nil {
		return &AuthError{Op: "register", Detail: "unable to reach the server"}
	}
	if status < 200 || status >= 300 {
		return &AuthError{Op: "register", Detail: detailFrom(body, "registration failed")}
	}
	return nil
}

// Logout notifies the server. Best effort: the caller logs failures and
// resets local state regardless.
func (c *Client) Logout() error {
	status, body, err := c.do(http.MethodPost, "/api/auth/logout/", nil)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &RequestError{Endpoint: "/api/auth/logout/", Status: status, Body: string(body)}
	}
	return nil
}

// Conversations fetches the directory of the current user's conversations.
func (c *Client) Conversations() ([]ConversationSummary, error) {
	status, body, err := c.do(http.MethodGet, "/api/conversations/", nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, &SessionExpiredError{Endpoint: "/api/conversations/"}
	}
	if status != http.StatusOK {
		return nil, &RequestError{Endpoint: "/api/conversations/", Status: status, Body: string(body)}
	}

	var list []ConversationSummary
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse conversation list: %w", err)
	}
	return list, nil
}

// ConversationMessages fetches the full history of one conversation.
func (c *Client) ConversationMessages(id string) (*ConversationDetail, error) {
	path := "/api/conversations/" + url.PathEscape(id) + "/messages/"
	status, body, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return nil, &SessionExpiredError{Endpoint: path}
	}
	if status != http.StatusOK {
		return nil, &RequestError{Endpoint: path, Status: status, Body: string(body)}
	}

	var detail ConversationDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return nil, fmt.Errorf("failed to parse conversation detail: %w", err)
	}
	if detail.ID == "" {
		detail.ID = id
	}
	return &detail, nil
}

// DeleteConversation removes a conversation server-side.
func (c *Client) DeleteConversation(id string) error {
	path := "/api/conversations/" + url.PathEscape(id) + "/"
	status, body, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &SessionExpiredError{Endpoint: path}
	}
	if status < 200 || status >= 300 {
		return &RequestError{Endpoint: path, Status: status, Body: string(body)}
	}
	return nil
}

// Query submits a natural-language (or force-chart) question.
func (c *Client) Query(req *QueryRequest) (*QueryResponse, error) {
	status, body, err := c.do(http.MethodPost, "/api/query/", req)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &RequestError{Endpoint: "/api/query/", Status: status, Body: string(body)}
	}

	var resp QueryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse query response: %w", err)
	}
	return &resp, nil
}

// ExecuteSQL runs raw SQL. The backend reports SQL failures with the same
// response shape on a 500, so those decode into a response rather than an
// error; only malformed requests and transport problems become errors.
func (c *Client) ExecuteSQL(req *ExecuteSQLRequest) (*ExecuteSQLResponse, error) {
	status, body, err := c.do(http.MethodPost, "/api/execute-sql/", req)
	if err != nil {
		return nil, err
	}

	var resp ExecuteSQLResponse
	if decodeErr := json.Unmarshal(body, &resp); decodeErr == nil && (status < 300 || resp.Error != "" || resp.SQL != "") {
		return &resp, nil
	}
	return nil, &RequestError{Endpoint: "/api/execute-sql/", Status: status, Body: string(body)}
}

// LoadCookies restores persisted session cookies from the kv store.
func (c *Client) LoadCookies(kv *KVStore) error {
	raw, ok, err := kv.Get(CookieKey)
	if err != nil || !ok {
		return err
	}

	var stored []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		LogWarn("Stored cookies are malformed, ignoring: %v", err)
		return nil
	}

	cookies := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		cookies = append(cookies, &http.Cookie{Name: sc.Name, Value: sc.Value})
	}
	c.jar.SetCookies(c.base, cookies)
	return nil
}

// SaveCookies persists the current session cookies to the kv store.
func (c *Client) SaveCookies(kv *KVStore) error {
	cookies := c.jar.Cookies(c.base)
	stored := make([]map[string]string, 0, len(cookies))
	for _, ck := range cookies {
		stored = append(stored, map[string]string{"name": ck.Name, "value": ck.Value})
	}

	data, err := json.Marshal(stored)
	if err != nil {
		return &StorageError{Op: "set", Key: CookieKey, Err: err}
	}
	return kv.Set(CookieKey, string(data))
}
