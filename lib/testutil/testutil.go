package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"goalietron/lib/telemetry"
)

// SetupService prepares telemetry for a test of the named service and
// returns its cleanup.
func SetupService(t testing.TB, name string) func() {
	return telemetry.SetupForTesting(t, fmt.Sprintf("test:%s", name))
}

// AboutPage renders a minimal creator about page embedding campaign json.
func AboutPage(name string, patrons int) string {
	return fmt.Sprintf(`<html><head><meta property="og:title" content="%s"></head><body><script>
		{"campaign": {"name": "%s", "patron_count": %d, "paid_member_count": 12,
		"creation_count": 30, "pledge_sum": 150000, "currency": "USD",
		"creator_id": 4815162342
		}}
	</script></body></html>`, name, name, patrons)
}

// FakePatreon is an http server standing in for patreon.com, serving
// AboutPage for every path.
type FakePatreon struct {
	Server *httptest.Server

	// Status is the status code of every response.
	Status  atomic.Int64
	Patrons atomic.Int64

	mu        sync.Mutex
	requests  int
	lastPath  string
	userAgent string
}

func NewFakePatreon(t testing.TB) *FakePatreon {
	f := &FakePatreon{}
	f.Status.Store(http.StatusOK)
	f.Patrons.Store(42)
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Server.Close)
	return f
}

func (f *FakePatreon) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests++
	f.lastPath = r.URL.Path
	f.userAgent = r.Header.Get("user-agent")
	f.mu.Unlock()

	w.WriteHeader(int(f.Status.Load()))
	fmt.Fprint(w, AboutPage("Test Campaign", int(f.Patrons.Load())))
}

func (f *FakePatreon) URL() string {
	return f.Server.URL
}

func (f *FakePatreon) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *FakePatreon) LastPath() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPath
}

func (f *FakePatreon) LastUserAgent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.userAgent
}
