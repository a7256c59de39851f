package rapidpro

import (
	"net/http"
	"sync"
	"time"

	"github.com/BlueRidgeLabs/chatpro/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

type cachedClient struct {
	apiURL  string
	token   string
	service Service
}

// ClientFactory builds and caches one client per org. A client is rebuilt
// when the org's API URL or token changes.
type ClientFactory struct {
	mu         sync.Mutex
	clients    map[model.OrgID]*cachedClient
	httpClient *http.Client
	rateLimit  float64
	timeout    time.Duration
}

var _ Factory = &ClientFactory{}

type FactoryOption func(*ClientFactory)

func WithFactoryHTTPClient(c *http.Client) FactoryOption {
	return func(f *ClientFactory) {
		f.httpClient = c
	}
}

func WithFactoryRateLimit(perSecond float64) FactoryOption {
	return func(f *ClientFactory) {
		f.rateLimit = perSecond
	}
}

func WithFactoryTimeout(d time.Duration) FactoryOption {
	return func(f *ClientFactory) {
		f.timeout = d
	}
}

func NewFactory(opts ...FactoryOption) *ClientFactory {
	f := &ClientFactory{
		clients:    make(map[model.OrgID]*cachedClient),
		httpClient: http.DefaultClient,
		timeout:    defaultTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *ClientFactory) Client(org *model.Org) (Service, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if cached, ok := f.clients[org.ID]; ok && cached.apiURL == org.APIURL && cached.token == org.APIToken {
		return cached.service, nil
	}

	svc, err := New(org.APIURL, org.APIToken,
		WithHTTPClient(f.httpClient),
		WithRateLimit(f.rateLimit),
		WithTimeout(f.timeout),
	)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create RapidPro client", goerr.V("org_id", org.ID))
	}

	f.clients[org.ID] = &cachedClient{apiURL: org.APIURL, token: org.APIToken, service: svc}
	return svc, nil
}
