package client

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
)

// Client is the remote authority API used by the services.
type Client interface {
	Register(ctx context.Context, p models.RegistrationPayload) (*models.RemoteUser, error)
	Login(ctx context.Context, contact, password string) (*models.RemoteUser, error)
	UpdateProfile(ctx context.Context, remoteID int64, p models.RegistrationPayload) (*models.RemoteUser, error)
	GetUser(ctx context.Context, remoteID int64) (*models.RemoteUser, error)
	Ping(ctx context.Context) error

	// Staff endpoints; they need the token set with SetAccessToken.
	ListUsers(ctx context.Context) ([]*models.RemoteUser, error)
	SetStatus(ctx context.Context, remoteID int64, status string) (*models.RemoteUser, error)
	DeleteUser(ctx context.Context, remoteID int64) error

	SetAccessToken(token string)
	Close() error
}

type HTTPClient struct {
	t Transport

	mu    sync.RWMutex
	token string
}

func NewHTTPClient(t Transport) *HTTPClient {
	return &HTTPClient{t: t}
}

func (c *HTTPClient) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *HTTPClient) SetAccessToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *HTTPClient) Register(ctx context.Context, p models.RegistrationPayload) (*models.RemoteUser, error) {
	var out models.RemoteUser
	if err := c.t.Do(ctx, Request{Method: http.MethodPost, Path: "/users/", Body: p, Out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Login(ctx context.Context, contact, password string) (*models.RemoteUser, error) {
	var out models.RemoteUser
	body := models.LoginRequest{Contact: contact, Password: password}
	if err := c.t.Do(ctx, Request{Method: http.MethodPost, Path: "/users/login", Body: body, Out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) UpdateProfile(ctx context.Context, remoteID int64, p models.RegistrationPayload) (*models.RemoteUser, error) {
	var out models.RemoteUser
	err := c.t.Do(ctx, Request{Method: http.MethodPut, Path: userPath(remoteID), Body: p, Out: &out})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, remoteID int64) (*models.RemoteUser, error) {
	var out models.RemoteUser
	if err := c.t.Do(ctx, Request{Method: http.MethodGet, Path: userPath(remoteID), Out: &out}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.t.Do(ctx, Request{Method: http.MethodGet, Path: "/ping"})
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]*models.RemoteUser, error) {
	var out []*models.RemoteUser
	err := c.t.Do(ctx, Request{Method: http.MethodGet, Path: "/users/", Out: &out, Token: c.accessToken()})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) SetStatus(ctx context.Context, remoteID int64, status string) (*models.RemoteUser, error) {
	var out models.RemoteUser
	err := c.t.Do(ctx, Request{
		Method: http.MethodPatch,
		Path:   userPath(remoteID) + "/status",
		Body:   models.StatusRequest{Status: status},
		Out:    &out,
		Token:  c.accessToken(),
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) DeleteUser(ctx context.Context, remoteID int64) error {
	return c.t.Do(ctx, Request{Method: http.MethodDelete, Path: userPath(remoteID), Token: c.accessToken()})
}

func (c *HTTPClient) Close() error {
	c.SetAccessToken("")
	return nil
}

func userPath(id int64) string {
	return fmt.Sprintf("/users/%d", id)
}
