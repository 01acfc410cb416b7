package patreon

import (
	"errors"
	"math"
	"net/url"
	"strings"
	"sync"
	"time"

	"goalietron/lib/campaigncache"
	"goalietron/lib/chrono"
	"goalietron/lib/goalstore"
	"goalietron/lib/restyutil"
	"goalietron/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/purell"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseUrl             = "https://www.patreon.com"
	DefaultUserAgent           = "Mozilla/5.0 (compatible; PatreonClient/1.0)"
	DefaultCacheTimeoutSeconds = 60
	DefaultFetchTimeoutSeconds = 3
)

var (
	ErrEmptyUsername     = errors.New("patreon: username is empty")
	ErrFetchFailed       = errors.New("patreon: failed to fetch page")
	ErrCreatorIdNotFound = errors.New("patreon: creator id not found")
	ErrGoalNotFound      = errors.New("patreon: goal not found")
)

type Options struct {
	BaseUrl   string
	UserAgent string

	CacheTimeoutSeconds int
	FetchTimeoutSeconds int
	Offline             bool
	CloudflareBypass    bool
	// RequestsPerSecond limits outgoing requests, 0 or less disables limiting.
	RequestsPerSecond float64

	// Cache defaults to an in-memory cache.
	Cache *campaigncache.Cache
	// Goals defaults to an empty store.
	Goals *goalstore.Store
	Clock chrono.API
	Tel   telemetry.API
	// DumpOutput receives every http exchange when set.
	DumpOutput restyutil.InstrumentOutput
}

func DefaultOptions() Options {
	return Options{
		BaseUrl:             DefaultBaseUrl,
		UserAgent:           DefaultUserAgent,
		CacheTimeoutSeconds: DefaultCacheTimeoutSeconds,
		FetchTimeoutSeconds: DefaultFetchTimeoutSeconds,
		RequestsPerSecond:   2,
	}
}

// Client fetches public campaign statistics for Patreon creators, keeping
// recent results in a cache and tracking progress against custom goals.
type Client struct {
	baseUrl *url.URL
	http    *resty.Client
	cache   *campaigncache.Cache
	goals   *goalstore.Store
	clock   chrono.API
	tel     telemetry.API

	mu           sync.RWMutex
	cacheTimeout time.Duration
	fetchTimeout time.Duration
	offline      bool
}

func NewClient(opts Options) (*Client, error) {
	if opts.BaseUrl == "" {
		opts.BaseUrl = DefaultBaseUrl
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Clock == nil {
		opts.Clock = chrono.NewStandardImpl()
	}
	if opts.Tel == nil {
		opts.Tel = telemetry.SlogAPI{}
	}
	tel := telemetry.NewScopedAPI("patreon_client", opts.Tel)

	baseUrl, err := url.Parse(strings.TrimSuffix(opts.BaseUrl, "/"))
	if err != nil {
		return nil, err
	}

	if opts.Cache == nil {
		opts.Cache, err = campaigncache.Open("", opts.Clock)
		if err != nil {
			return nil, err
		}
	}
	if opts.Goals == nil {
		opts.Goals = goalstore.NewStore(opts.Clock, opts.Tel)
	}

	httpClient := resty.New()
	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetRetryCount(0)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	if opts.RequestsPerSecond > 0 {
		burst := int(math.Max(1, math.Ceil(opts.RequestsPerSecond)))
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)
	restyutil.InstrumentClient(httpClient, tracer, opts.DumpOutput)

	c := &Client{
		baseUrl: baseUrl,
		http:    httpClient,
		cache:   opts.Cache,
		goals:   opts.Goals,
		clock:   opts.Clock,
		tel:     tel,
		offline: opts.Offline,
	}
	c.SetCacheTimeout(opts.CacheTimeoutSeconds)
	c.SetFetchTimeout(opts.FetchTimeoutSeconds)
	return c, nil
}

// SetCacheTimeout sets how long cached data is served without refetching,
// negative values are treated as 0.
func (c *Client) SetCacheTimeout(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheTimeout = time.Duration(max(0, seconds)) * time.Second
}

// SetFetchTimeout sets the timeout of a single page fetch, it is never less
// than 1 second.
func (c *Client) SetFetchTimeout(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchTimeout = time.Duration(max(1, seconds)) * time.Second
}

func (c *Client) CacheTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cacheTimeout
}

func (c *Client) FetchTimeout() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchTimeout
}

// SetOfflineMode replaces every network fetch with deterministic mock data.
func (c *Client) SetOfflineMode(offline bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offline = offline
}

func (c *Client) IsOfflineMode() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offline
}

func (c *Client) Goals() *goalstore.Store {
	return c.goals
}

func (c *Client) Close() error {
	return c.cache.Close()
}

func normalizeUsername(username string) (string, error) {
	username = strings.TrimLeft(strings.TrimSpace(username), "@")
	if username == "" {
		return "", ErrEmptyUsername
	}
	return username, nil
}

func cacheKey(username string) string {
	return "public_" + username
}

// pageUrl resolves `elems` as path segments under the base url.
func (c *Client) pageUrl(elems ...string) string {
	escaped := make([]string, len(elems))
	for i, e := range elems {
		escaped[i] = url.PathEscape(e)
	}
	full := c.baseUrl.JoinPath(escaped...)
	return purell.NormalizeURL(full, purell.FlagsSafe|purell.FlagRemoveDuplicateSlashes)
}
