package castleos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	basePath            = "/CastleOS/service/web/"
	authorizationHeader = "X-CastleOS-Authorization"
	methodGet           = "get"
)

// Endpoints consumed by the client.
const (
	EndpointGetDevices         = "GetDevices"
	EndpointGetAllGroups       = "GetAllGroups"
	EndpointGetAllScenes       = "GetAllScenes"
	EndpointGetDevicesForGroup = "GetDevicesForGroup"
	EndpointAuthenticate       = "AuthenticateUser_PlainText"
	EndpointToggleDevicePower  = "ToggleDevicePower"
	EndpointToggleGroupPower   = "ToggleGroupPower"
	EndpointToggleScenePower   = "ToggleScenePower"
	EndpointSetDimLevel        = "SetDeviceDimLevel"
	EndpointSetColour          = "SetDeviceColorAndBrightness"
	EndpointSetColourTemp      = "SetDeviceColorByTemp"
)

// Param is a single query parameter.
type Param struct {
	Key   string
	Value string
}

// Params is an ordered parameter list; encoding keeps the given order.
type Params []Param

// Encode renders k=v pairs joined by '&'. Values are percent-encoded, keys are not.
func (p Params) Encode() string {
	var sb strings.Builder
	for i, kv := range p {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(kv.Key)
		sb.WriteByte('=')
		sb.WriteString(url.QueryEscape(kv.Value))
	}
	return sb.String()
}

// Option configures a Client.
type Option func(*Client)

// WithExecutor replaces the default HTTP executor.
func WithExecutor(e Executor) Option {
	return func(c *Client) {
		c.exec = e
	}
}

// WithTokenHandler registers fn to receive every token GetToken obtains,
// including tokens acquired lazily before a call.
func WithTokenHandler(fn func(token string)) Option {
	return func(c *Client) {
		c.onToken = fn
	}
}

// Client talks to one CastleOS controller. It is meant for one sequential
// caller; only the session token is safe to read and replace concurrently.
type Client struct {
	session *Session
	exec    Executor
	onToken func(token string)
}

// NewClient creates a client. Without WithExecutor it uses an HTTPExecutor
// that follows redirects and skips certificate validation.
func NewClient(settings Settings, opts ...Option) *Client {
	c := &Client{session: newSession(settings)}
	for _, opt := range opts {
		opt(c)
	}
	if c.exec == nil {
		c.exec = NewHTTPExecutor(ExecutorConfig{
			FollowRedirects:    true,
			InsecureSkipVerify: true,
		})
	}
	return c
}

// Close releases executor resources when the executor supports it.
func (c *Client) Close() error {
	if closer, ok := c.exec.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Host returns the controller host.
func (c *Client) Host() string {
	return c.session.host
}

// Username returns the configured user.
func (c *Client) Username() string {
	return c.session.username
}

// Token returns the current session token.
func (c *Client) Token() string {
	return c.session.Token()
}

// HasToken reports whether a session token is present.
func (c *Client) HasToken() bool {
	return c.session.Token() != ""
}

// SetToken replaces the session token.
func (c *Client) SetToken(token string) {
	c.session.setToken(token)
}

func (c *Client) endpointURL(path string, params Params) string {
	u := "http://" + c.session.host + basePath + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	return u
}

// CallAPI calls an endpoint and returns the decoded JSON body as-is. An empty
// body yields an empty map. Only GET is supported: any method value ends up
// as a GET with params in the query string.
func (c *Client) CallAPI(ctx context.Context, path string, params Params, method string) (any, error) {
	if !strings.EqualFold(method, methodGet) && method != "" {
		log.Debug().Str("method", method).Str("path", path).Msg("Unsupported method, sending GET")
	}

	body, err := c.call(ctx, path, params)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return map[string]any{}, nil
	}

	var content any
	if err := json.Unmarshal(body, &content); err != nil {
		return nil, newError(KindDecode, path, err)
	}
	return content, nil
}

// call runs an authorized GET and returns the body bytes.
func (c *Client) call(ctx context.Context, path string, params Params) ([]byte, error) {
	if !c.HasToken() && c.session.hasCredentials() {
		if _, err := c.GetToken(ctx); err != nil {
			return nil, err
		}
	}

	header := http.Header{}
	header.Set(authorizationHeader, c.session.authorization())

	return c.execute(ctx, path, c.endpointURL(path, params), header)
}

var utf8BOM = []byte("\xef\xbb\xbf")

func (c *Client) execute(ctx context.Context, op, rawURL string, header http.Header) ([]byte, error) {
	requestID := uuid.NewString()

	resp, err := c.exec.Execute(ctx, http.MethodGet, rawURL, header)
	if err != nil {
		log.Debug().Err(err).Str("request_id", requestID).Str("path", op).Msg("CastleOS call failed")
		return nil, newError(KindTransport, op, err)
	}

	body := bytes.TrimSpace(bytes.TrimPrefix(bytes.TrimSpace(resp.Body()), utf8BOM))

	log.Debug().
		Str("request_id", requestID).
		Str("path", op).
		Int("status", resp.StatusCode).
		Int("body_bytes", len(body)).
		Msg("CastleOS call")
	log.Trace().Str("request_id", requestID).Bytes("headers", resp.Header()).Msg("CastleOS response headers")

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, newError(KindUnauthorized, op, fmt.Errorf("status %d", resp.StatusCode))
	}

	return body, nil
}

// GetToken authenticates with the configured username and password and
// stores the returned security token in the session.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	params := Params{
		{Key: "username", Value: c.session.username},
		{Key: "password", Value: c.session.password},
	}

	header := http.Header{}
	header.Set("Accept", "application/json")

	body, err := c.execute(ctx, EndpointAuthenticate, c.endpointURL(EndpointAuthenticate, params), header)
	if err != nil {
		return "", err
	}
	if len(body) == 0 {
		return "", newError(KindUnauthorized, EndpointAuthenticate, ErrNoToken)
	}

	var content struct {
		SecurityToken flexString `json:"securityToken"`
	}
	if err := json.Unmarshal(body, &content); err != nil {
		return "", newError(KindDecode, EndpointAuthenticate, err)
	}
	if content.SecurityToken == "" {
		return "", newError(KindUnauthorized, EndpointAuthenticate, ErrNoToken)
	}

	token := string(content.SecurityToken)
	c.session.setToken(token)

	log.Info().Str("host", c.session.host).Str("username", c.session.username).Msg("Obtained CastleOS security token")
	if c.onToken != nil {
		c.onToken(token)
	}
	return token, nil
}

// command issues an action call and checks the response is truthy.
func (c *Client) command(ctx context.Context, path string, params Params) error {
	content, err := c.CallAPI(ctx, path, params, methodGet)
	if err != nil {
		return err
	}
	if !truthy(content) {
		return newError(KindRejected, path, nil)
	}
	return nil
}

// Devices lists all devices.
func (c *Client) Devices(ctx context.Context) ([]*Device, error) {
	return fetchList(ctx, c, EndpointGetDevices, nil, hydrateDevice)
}

// Groups lists all groups.
func (c *Client) Groups(ctx context.Context) ([]*Group, error) {
	return fetchList(ctx, c, EndpointGetAllGroups, nil, hydrateGroup)
}

// Scenes lists all scenes.
func (c *Client) Scenes(ctx context.Context) ([]*Scene, error) {
	return fetchList(ctx, c, EndpointGetAllScenes, nil, hydrateScene)
}

// Device fetches the device list and returns the first device with the given ID.
func (c *Client) Device(ctx context.Context, id string) (*Device, error) {
	devices, err := c.Devices(ctx)
	if err != nil {
		return nil, err
	}
	return findByID(devices, id, "device", func(d *Device) string { return d.ID })
}

// Group fetches the group list and returns the first group with the given ID.
func (c *Client) Group(ctx context.Context, id string) (*Group, error) {
	groups, err := c.Groups(ctx)
	if err != nil {
		return nil, err
	}
	return findByID(groups, id, "group", func(g *Group) string { return g.ID })
}

// Scene fetches the scene list and returns the first scene with the given ID.
func (c *Client) Scene(ctx context.Context, id string) (*Scene, error) {
	scenes, err := c.Scenes(ctx)
	if err != nil {
		return nil, err
	}
	return findByID(scenes, id, "scene", func(s *Scene) string { return s.ID })
}

func findByID[T any](items []T, id, kind string, idOf func(T) string) (T, error) {
	for _, item := range items {
		if idOf(item) == id {
			return item, nil
		}
	}
	var zero T
	return zero, newError(KindNotFound, kind, fmt.Errorf("%s '%s' not found", kind, id))
}
