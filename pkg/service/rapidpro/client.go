package rapidpro

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/BlueRidgeLabs/chatpro/pkg/utils/safe"
	"github.com/cenkalti/backoff/v5"
	"github.com/m-mizutani/goerr/v2"
	"golang.org/x/time/rate"
)

const (
	contactsPath = "/api/v1/contacts.json"
	groupsPath   = "/api/v1/groups.json"

	defaultTimeout    = 30 * time.Second
	defaultRetryAfter = 5
)

// client implements Service against the RapidPro v1 JSON API
type client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	timeout    time.Duration
}

var _ Service = &client{}

type ClientOption func(*client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *client) {
		cl.httpClient = c
	}
}

// WithRateLimit limits requests per second. Zero disables throttling.
func WithRateLimit(perSecond float64) ClientOption {
	return func(cl *client) {
		if perSecond <= 0 {
			cl.limiter = nil
			return
		}
		cl.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithTimeout bounds each HTTP call
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *client) {
		cl.timeout = d
	}
}

// New creates a RapidPro client for the workspace at baseURL
func New(baseURL, token string, opts ...ClientOption) (Service, error) {
	if baseURL == "" {
		return nil, goerr.New("RapidPro API URL is required")
	}
	if token == "" {
		return nil, goerr.New("RapidPro API token is required")
	}

	c := &client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// contactData is the v1 wire shape of a contact
type contactData struct {
	UUID       string             `json:"uuid,omitempty"`
	Name       string             `json:"name"`
	URNs       []string           `json:"urns"`
	GroupUUIDs []string           `json:"group_uuids"`
	Fields     map[string]*string `json:"fields"`
}

type groupData struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
	Size int    `json:"size"`
}

type page[T any] struct {
	Count   int    `json:"count"`
	Next    string `json:"next"`
	Results []T    `json:"results"`
}

func toContactData(c *model.RemoteContact) *contactData {
	data := &contactData{
		UUID:       string(c.ExternalID),
		Name:       c.Name,
		URNs:       make([]string, len(c.URNs)),
		GroupUUIDs: make([]string, len(c.Groups)),
		Fields:     make(map[string]*string, len(c.Fields)),
	}
	for i, u := range c.URNs {
		data.URNs[i] = u.String()
	}
	for i, g := range c.Groups {
		data.GroupUUIDs[i] = string(g)
	}
	for k, v := range c.Fields {
		data.Fields[k] = &v
	}
	return data
}

// fromContactData drops null field values
func fromContactData(d *contactData) *model.RemoteContact {
	c := &model.RemoteContact{
		ExternalID: model.ExternalID(d.UUID),
		Name:       d.Name,
		Fields:     make(map[string]string, len(d.Fields)),
	}
	for _, u := range d.URNs {
		c.URNs = append(c.URNs, model.URN(u))
	}
	for _, g := range d.GroupUUIDs {
		c.Groups = append(c.Groups, model.GroupID(g))
	}
	for k, v := range d.Fields {
		if v != nil {
			c.Fields[k] = *v
		}
	}
	return c
}

func (c *client) GetContact(ctx context.Context, id model.ExternalID) (*model.RemoteContact, error) {
	q := url.Values{"uuid": {string(id)}}
	var resp page[contactData]
	if err := c.do(ctx, http.MethodGet, c.endpoint(contactsPath, q), nil, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to get contact", goerr.V("external_id", id))
	}
	if len(resp.Results) == 0 {
		return nil, goerr.Wrap(ErrNotFound, "contact not found", goerr.V("external_id", id))
	}
	return fromContactData(&resp.Results[0]), nil
}

func (c *client) GetContacts(ctx context.Context, groups []model.GroupID) ([]*model.RemoteContact, error) {
	q := url.Values{}
	for _, g := range groups {
		q.Add("group_uuids", string(g))
	}

	var contacts []*model.RemoteContact
	next := c.endpoint(contactsPath, q)
	for next != "" {
		var resp page[contactData]
		if err := c.do(ctx, http.MethodGet, next, nil, &resp); err != nil {
			return nil, goerr.Wrap(err, "failed to list contacts", goerr.V("groups", groups))
		}
		for i := range resp.Results {
			contacts = append(contacts, fromContactData(&resp.Results[i]))
		}
		next = resp.Next
	}

	return contacts, nil
}

func (c *client) CreateContact(ctx context.Context, contact *model.RemoteContact) (*model.RemoteContact, error) {
	body := toContactData(contact)
	body.UUID = ""

	var resp contactData
	if err := c.do(ctx, http.MethodPost, c.endpoint(contactsPath, nil), body, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to create contact")
	}
	if resp.UUID == "" {
		return nil, goerr.New("created contact has no uuid")
	}
	return fromContactData(&resp), nil
}

func (c *client) UpdateContact(ctx context.Context, contact *model.RemoteContact) (*model.RemoteContact, error) {
	if contact.ExternalID == "" {
		return nil, goerr.New("contact to update has no external ID")
	}

	var resp contactData
	if err := c.do(ctx, http.MethodPost, c.endpoint(contactsPath, nil), toContactData(contact), &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to update contact", goerr.V("external_id", contact.ExternalID))
	}
	return fromContactData(&resp), nil
}

func (c *client) DeleteContact(ctx context.Context, id model.ExternalID) error {
	q := url.Values{"uuid": {string(id)}}
	if err := c.do(ctx, http.MethodDelete, c.endpoint(contactsPath, q), nil, nil); err != nil {
		return goerr.Wrap(err, "failed to delete contact", goerr.V("external_id", id))
	}
	return nil
}

func (c *client) GetGroups(ctx context.Context) ([]*Group, error) {
	var groups []*Group
	next := c.endpoint(groupsPath, nil)
	for next != "" {
		var resp page[groupData]
		if err := c.do(ctx, http.MethodGet, next, nil, &resp); err != nil {
			return nil, goerr.Wrap(err, "failed to list groups")
		}
		for _, g := range resp.Results {
			groups = append(groups, &Group{ID: model.GroupID(g.UUID), Name: g.Name, Size: g.Size})
		}
		next = resp.Next
	}
	return groups, nil
}

func (c *client) GetGroup(ctx context.Context, id model.GroupID) (*Group, error) {
	q := url.Values{"uuid": {string(id)}}
	var resp page[groupData]
	if err := c.do(ctx, http.MethodGet, c.endpoint(groupsPath, q), nil, &resp); err != nil {
		return nil, goerr.Wrap(err, "failed to get group", goerr.V("group_id", id))
	}
	if len(resp.Results) == 0 {
		return nil, goerr.Wrap(ErrNotFound, "group not found", goerr.V("group_id", id))
	}
	g := resp.Results[0]
	return &Group{ID: model.GroupID(g.UUID), Name: g.Name, Size: g.Size}, nil
}

func (c *client) endpoint(path string, q url.Values) string {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// do sends one request. 404 maps to ErrNotFound, 429 to a backoff.RetryAfterError
// and other 4xx responses are permanent.
func (c *client) do(ctx context.Context, method, endpoint string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return goerr.Wrap(err, "rate limiter wait failed")
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return goerr.Wrap(err, "failed to marshal request body")
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return goerr.Wrap(err, "failed to create request", goerr.V("method", method), goerr.V("url", endpoint))
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "request to RapidPro failed", goerr.V("method", method), goerr.V("url", endpoint))
	}
	defer safe.DrainClose(ctx, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return goerr.Wrap(ErrNotFound, "RapidPro resource not found", goerr.V("url", endpoint))

	case resp.StatusCode == http.StatusTooManyRequests:
		return goerr.Wrap(backoff.RetryAfter(retryAfterSeconds(resp.Header.Get("Retry-After"))),
			"RapidPro rate limit exceeded", goerr.V("url", endpoint))

	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		err := goerr.New("RapidPro returned error status",
			goerr.V("method", method),
			goerr.V("url", endpoint),
			goerr.V("status", resp.StatusCode),
			goerr.V("body", string(msg)))
		if resp.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode RapidPro response", goerr.V("url", endpoint))
	}
	return nil
}

func retryAfterSeconds(v string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
		return n
	}
	return defaultRetryAfter
}
