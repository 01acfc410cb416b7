package configuration

import (
	"goalietron/lib/campaigncache"
	"goalietron/lib/chrono"
	"goalietron/lib/configutil"
	"goalietron/lib/goalstore"
	"goalietron/lib/patreon"
	"goalietron/lib/restyutil"
	"goalietron/lib/telemetry"
)

const DefaultGoalsFile = "patreon-goals.json"

// Patreon is the configuration shared by every binary that talks to Patreon,
// usually read from config.json5.
type Patreon struct {
	BaseUrl             string  `json:"base_url"`
	UserAgent           string  `json:"user_agent"`
	CacheTimeoutSeconds *int    `json:"cache_timeout_seconds"`
	FetchTimeoutSeconds *int    `json:"fetch_timeout_seconds"`
	Offline             bool    `json:"offline"`
	CloudflareBypass    bool    `json:"cloudflare_bypass"`
	RequestsPerSecond   float64 `json:"requests_per_second"`
	GoalsFile           string  `json:"goals_file"`
	// CacheDir keeps the campaign cache on disk, empty means in-memory.
	CacheDir     string `json:"cache_dir"`
	Verbose      bool   `json:"verbose"`
	RestyDumpDir string `json:"resty_dump_dir"`
}

func intPtr(v int) *int {
	return &v
}

func DefaultPatreon() Patreon {
	return Patreon{
		BaseUrl:             patreon.DefaultBaseUrl,
		UserAgent:           patreon.DefaultUserAgent,
		CacheTimeoutSeconds: intPtr(patreon.DefaultCacheTimeoutSeconds),
		FetchTimeoutSeconds: intPtr(patreon.DefaultFetchTimeoutSeconds),
		RequestsPerSecond:   2,
		GoalsFile:           DefaultGoalsFile,
	}
}

// ReadPatreon reads `name` (and its .local override) on top of the defaults.
func ReadPatreon(name string) (Patreon, error) {
	return configutil.ReadConfigWithDefaults(name, DefaultPatreon())
}

// OpenClient builds a patreon client from the configuration.
func (config Patreon) OpenClient(tel telemetry.API) (*patreon.Client, error) {
	clock := chrono.NewStandardImpl()

	cache, err := campaigncache.Open(config.CacheDir, clock)
	if err != nil {
		return nil, err
	}

	opts := patreon.DefaultOptions()
	opts.BaseUrl = config.BaseUrl
	opts.UserAgent = config.UserAgent
	opts.Offline = config.Offline
	opts.CloudflareBypass = config.CloudflareBypass
	opts.RequestsPerSecond = config.RequestsPerSecond
	if config.CacheTimeoutSeconds != nil {
		opts.CacheTimeoutSeconds = *config.CacheTimeoutSeconds
	}
	if config.FetchTimeoutSeconds != nil {
		opts.FetchTimeoutSeconds = *config.FetchTimeoutSeconds
	}
	opts.Cache = cache
	opts.Goals = goalstore.NewStore(clock, tel)
	opts.Clock = clock
	opts.Tel = tel

	if config.RestyDumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(config.RestyDumpDir)
		if err != nil {
			cache.Close()
			return nil, err
		}
		opts.DumpOutput = output
	}

	client, err := patreon.NewClient(opts)
	if err != nil {
		cache.Close()
		return nil, err
	}
	return client, nil
}
