package tetration

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/shaiso/tetractl/internal/telemetry"
)

const (
	apiPrefix        = "/openapi/v1"
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "tetractl"
	maxResponseBody  = 32 * 1024 * 1024 // 32 MB
)

// Config — параметры клиента.
type Config struct {
	// Endpoint — адрес кластера, например https://172.16.5.4.
	Endpoint string

	Credentials Credentials

	// Insecure отключает проверку TLS-сертификата.
	Insecure bool

	// Timeout — таймаут одного запроса. 0 — 30 секунд.
	Timeout time.Duration

	// RateLimit — максимум запросов в секунду. 0 — без ограничения.
	RateLimit float64

	UserAgent string
	Logger    *slog.Logger
	Metrics   *telemetry.Metrics
}

// Client — HTTP-клиент management API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	signer     *Signer
	limiter    *rate.Limiter
	userAgent  string
	logger     *slog.Logger
	metrics    *telemetry.Metrics
}

// NewClient создаёт клиент.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, ErrMissingEndpoint
	}
	if err := cfg.Credentials.Validate(); err != nil {
		return nil, err
	}

	base, err := url.Parse(strings.TrimRight(cfg.Endpoint, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", cfg.Endpoint, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("endpoint %q must include scheme and host", cfg.Endpoint)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.WithGroup("api")

	if cfg.Insecure {
		logger.Warn("TLS certificate verification is disabled", "endpoint", base.String())
	}

	return &Client{
		baseURL: base.String() + apiPrefix,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				Proxy:           http.ProxyFromEnvironment,
				TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.Insecure},
			},
		},
		signer:    NewSigner(cfg.Credentials),
		limiter:   rate.NewLimiter(limit, 1),
		userAgent: userAgent,
		logger:    logger,
		metrics:   cfg.Metrics,
	}, nil
}

// --- Application scopes ---

// ListScopes возвращает все scopes.
func (c *Client) ListScopes(ctx context.Context) ([]Scope, error) {
	var scopes []Scope
	err := c.get(ctx, "/app_scopes", &scopes)
	return scopes, err
}

// GetScope возвращает scope по ID.
func (c *Client) GetScope(ctx context.Context, id string) (*Scope, error) {
	var scope Scope
	if err := c.get(ctx, "/app_scopes/"+url.PathEscape(id), &scope); err != nil {
		return nil, err
	}
	return &scope, nil
}

// CreateScope создаёт scope.
func (c *Client) CreateScope(ctx context.Context, req CreateScopeRequest) (*Scope, error) {
	var scope Scope
	if err := c.post(ctx, "/app_scopes", req, &scope); err != nil {
		return nil, err
	}
	return &scope, nil
}

// CommitDirty ставит в очередь пересчёт «грязных» scopes под rootID.
// API отвечает 201 — задача принята.
func (c *Client) CommitDirty(ctx context.Context, rootID string) error {
	body := map[string]string{"root_app_scope_id": rootID}
	return c.post(ctx, "/app_scopes/commit_dirty", body, nil)
}

// --- Applications ---

// ListApplications возвращает все приложения.
func (c *Client) ListApplications(ctx context.Context) ([]Application, error) {
	var apps []Application
	err := c.get(ctx, "/applications", &apps)
	return apps, err
}

// GetApplicationDetails возвращает детальное представление приложения как есть.
func (c *Client) GetApplicationDetails(ctx context.Context, id string) (json.RawMessage, error) {
	return c.GetRaw(ctx, "/applications/"+url.PathEscape(id)+"/details")
}

// CreateApplication создаёт приложение.
func (c *Client) CreateApplication(ctx context.Context, req CreateApplicationRequest) (*Application, error) {
	var app Application
	if err := c.post(ctx, "/applications", req, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// DeleteApplication удаляет приложение.
func (c *Client) DeleteApplication(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/applications/"+url.PathEscape(id), nil)
	return err
}

// --- Users ---

// ListUsers возвращает всех пользователей.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := c.get(ctx, "/users", &users)
	return users, err
}

// CreateUser создаёт пользователя.
func (c *Client) CreateUser(ctx context.Context, req CreateUserRequest) (*User, error) {
	var user User
	if err := c.post(ctx, "/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser удаляет пользователя.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(id), nil)
	return err
}

// AddUserRole назначает роль пользователю.
func (c *Client) AddUserRole(ctx context.Context, userID, roleID string) error {
	body := map[string]string{"role_id": roleID}
	_, err := c.do(ctx, http.MethodPut, "/users/"+url.PathEscape(userID)+"/add_role", body)
	return err
}

// RemoveUserRole снимает роль с пользователя.
func (c *Client) RemoveUserRole(ctx context.Context, userID, roleID string) error {
	body := map[string]string{"role_id": roleID}
	_, err := c.do(ctx, http.MethodDelete, "/users/"+url.PathEscape(userID)+"/remove_role", body)
	return err
}

// --- Roles ---

// ListRoles возвращает все роли.
func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	var roles []Role
	err := c.get(ctx, "/roles", &roles)
	return roles, err
}

// CreateRole создаёт роль.
func (c *Client) CreateRole(ctx context.Context, req CreateRoleRequest) (*Role, error) {
	var role Role
	if err := c.post(ctx, "/roles", req, &role); err != nil {
		return nil, err
	}
	return &role, nil
}

// AddRoleCapability выдаёт роли capability в scope.
func (c *Client) AddRoleCapability(ctx context.Context, roleID string, capability Capability) error {
	return c.post(ctx, "/roles/"+url.PathEscape(roleID)+"/capabilities", capability, nil)
}

// --- Sensors ---

// ListSensors возвращает все сенсоры (поле results ответа).
func (c *Client) ListSensors(ctx context.Context) ([]Sensor, error) {
	var list sensorList
	if err := c.get(ctx, "/sensors", &list); err != nil {
		return nil, err
	}
	return list.Results, nil
}

// DeleteSensor удаляет сенсор по UUID. Успех — 204.
func (c *Client) DeleteSensor(ctx context.Context, uuid string) error {
	_, err := c.do(ctx, http.MethodDelete, "/sensors/"+url.PathEscape(uuid), nil)
	return err
}

// --- Raw ---

// GetRaw выполняет GET и возвращает тело ответа без разбора.
func (c *Client) GetRaw(ctx context.Context, path string) (json.RawMessage, error) {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !json.Valid(resp) {
		return nil, fmt.Errorf("GET %s: response is not valid JSON", path)
	}
	return json.RawMessage(resp), nil
}

// --- HTTP helpers ---

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) post(ctx context.Context, path string, body, result any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, result)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}

	if result == nil || len(bytes.TrimSpace(resp)) == 0 {
		return nil
	}

	if err := json.Unmarshal(resp, result); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// do выполняет подписанный запрос и возвращает тело ответа.
// Статус вне 2xx превращается в *APIError.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		payload = data
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	c.signer.Sign(req, payload)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveRequest(method, 0, time.Since(start))
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	elapsed := time.Since(start)
	c.metrics.ObserveRequest(method, resp.StatusCode, elapsed)
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	c.logger.Debug("api request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", elapsed,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}
	return data, nil
}
