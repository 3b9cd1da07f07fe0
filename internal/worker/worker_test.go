package worker

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/matheuskafuri/bookshelf/internal/cache"
)

const origin = "http://library.test"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type route struct {
	status int
	body   string
}

// fakeNetwork serves canned responses keyed by absolute URL.
type fakeNetwork struct {
	mu     sync.Mutex
	routes map[string]route
	calls  map[string]int
	down   bool
	gate   chan struct{}
}

var errUnreachable = errors.New("network unreachable")

func newNetwork(routes map[string]string) *fakeNetwork {
	n := &fakeNetwork{routes: make(map[string]route), calls: make(map[string]int)}
	for u, body := range routes {
		n.routes[u] = route{status: http.StatusOK, body: body}
	}
	return n
}

func (n *fakeNetwork) RoundTrip(req *http.Request) (*http.Response, error) {
	u := req.URL.String()
	n.mu.Lock()
	n.calls[u]++
	gate := n.gate
	n.mu.Unlock()

	if gate != nil {
		<-gate
	}

	n.mu.Lock()
	down := n.down
	r, ok := n.routes[u]
	n.mu.Unlock()

	if down {
		return nil, errUnreachable
	}
	if !ok {
		r = route{status: http.StatusNotFound, body: "not found"}
	}
	return &http.Response{
		StatusCode: r.status,
		Header:     http.Header{"Content-Type": []string{"text/plain"}},
		Body:       io.NopCloser(strings.NewReader(r.body)),
		Request:    req,
	}, nil
}

func (n *fakeNetwork) set(u string, status int, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes[u] = route{status: status, body: body}
}

func (n *fakeNetwork) setDown(down bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.down = down
}

func (n *fakeNetwork) count(u string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[u]
}

func shellRoutes() map[string]string {
	return map[string]string{
		origin + "/":           "<html>shell</html>",
		origin + "/styles.css": "body{color:black}",
		origin + "/app.js":     "console.log('v1')",
	}
}

var shellManifest = []string{"/", "/styles.css", "/app.js"}

func newWorker(t *testing.T, store Storage, net http.RoundTripper, version string, manifest []string) *Worker {
	t.Helper()
	w, err := New(store, net, Options{Origin: origin, Version: version, Manifest: manifest})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return w
}

// activeRegistration registers a v1 worker over the shell manifest.
func activeRegistration(t *testing.T) (*Registration, *Worker, *cache.Memory, *fakeNetwork) {
	t.Helper()
	store := cache.NewMemory()
	net := newNetwork(shellRoutes())
	reg := NewRegistration(net, nil)
	w := newWorker(t, store, net, "v1", shellManifest)
	if err := reg.Register(context.Background(), w); err != nil {
		t.Fatalf("Register: %v", err)
	}
	t.Cleanup(reg.Wait)
	return reg, w, store, net
}

func get(t *testing.T, rt http.RoundTripper, u string, header ...string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	resp, err := rt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip %s: %v", u, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, string(body)
}

func TestNewRejectsBadOrigin(t *testing.T) {
	for _, o := range []string{"", "/relative", "ftp://library.test", "://bad"} {
		if _, err := New(cache.NewMemory(), nil, Options{Origin: o}); !errors.Is(err, ErrBadOrigin) {
			t.Errorf("New(%q) error = %v, want ErrBadOrigin", o, err)
		}
	}
}

func TestInstallPopulatesStatic(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	w := newWorker(t, store, newNetwork(shellRoutes()), "v1", shellManifest)

	if w.State() != Installing {
		t.Fatalf("expected installing, got %s", w.State())
	}
	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if w.State() != Waiting {
		t.Errorf("expected waiting after install, got %s", w.State())
	}

	for _, p := range shellManifest {
		if _, ok, _ := store.Match(ctx, "library-static-v1", origin+p); !ok {
			t.Errorf("expected %s in static bucket", p)
		}
	}
	got, _ := store.Buckets(ctx)
	if diff := cmp.Diff([]string{"library-static-v1", "library-dynamic-v1"}, got); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
}

func TestInstallIsAllOrNothing(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeNetwork)
	}{
		{"missing asset", func(n *fakeNetwork) { n.set(origin+"/app.js", http.StatusNotFound, "gone") }},
		{"server error", func(n *fakeNetwork) { n.set(origin+"/styles.css", http.StatusInternalServerError, "") }},
		{"network down", func(n *fakeNetwork) { n.setDown(true) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			store := cache.NewMemory()
			net := newNetwork(shellRoutes())
			tt.setup(net)
			w := newWorker(t, store, net, "v1", shellManifest)

			err := w.Install(ctx)
			if !errors.Is(err, ErrInstallFailed) {
				t.Fatalf("expected ErrInstallFailed, got %v", err)
			}
			if w.State() != Redundant {
				t.Errorf("expected redundant, got %s", w.State())
			}
			if _, ok, _ := store.MatchAny(ctx, origin+"/"); ok {
				t.Error("a failed install must not store anything")
			}
			if err := w.Activate(ctx); !errors.Is(err, ErrNotInstalled) {
				t.Errorf("expected ErrNotInstalled after failed install, got %v", err)
			}
		})
	}
}

func TestActivateRequiresInstall(t *testing.T) {
	w := newWorker(t, cache.NewMemory(), newNetwork(nil), "v1", nil)
	if err := w.Activate(context.Background()); !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("expected ErrNotInstalled, got %v", err)
	}
}

func TestActivateLeavesExactlyCurrentBuckets(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemory()
	for _, b := range []string{"library-static-v0", "library-dynamic-v0", "scratch"} {
		store.OpenBucket(ctx, b)
	}
	store.Put(ctx, "library-static-v0", cache.Entry{URL: origin + "/", Status: 200, Body: []byte("old")})

	w := newWorker(t, store, newNetwork(shellRoutes()), "v1", shellManifest)
	if err := w.Install(ctx); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if err := w.Activate(ctx); err != nil {
		t.Fatalf("Activate: %v", err)
	}
	if w.State() != Active {
		t.Errorf("expected active, got %s", w.State())
	}

	got, _ := store.Buckets(ctx)
	if diff := cmp.Diff([]string{"library-static-v1", "library-dynamic-v1"}, got); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
	e, _, _ := store.MatchAny(ctx, origin+"/")
	if string(e.Body) != "<html>shell</html>" {
		t.Errorf("expected the new shell, got %q", e.Body)
	}
}

func TestRegistrationWithoutControllerPassesThrough(t *testing.T) {
	net := newNetwork(map[string]string{origin + "/page": "live"})
	reg := NewRegistration(net, nil)

	if reg.Controller() != nil {
		t.Fatal("expected no controller")
	}
	_, body := get(t, reg, origin+"/page")
	if body != "live" {
		t.Errorf("expected live body, got %q", body)
	}

	net.setDown(true)
	req, _ := http.NewRequest(http.MethodGet, origin+"/page", nil)
	if _, err := reg.RoundTrip(req); !errors.Is(err, errUnreachable) {
		t.Errorf("expected network error to pass through, got %v", err)
	}
}

func TestRegisterReplacesController(t *testing.T) {
	ctx := context.Background()
	reg, first, store, net := activeRegistration(t)

	second := newWorker(t, store, net, "v2", shellManifest)
	if err := reg.Register(ctx, second); err != nil {
		t.Fatalf("Register v2: %v", err)
	}
	if reg.Controller() != second {
		t.Error("expected v2 to control clients")
	}
	if first.State() != Redundant {
		t.Errorf("expected v1 redundant, got %s", first.State())
	}
	got, _ := store.Buckets(ctx)
	if diff := cmp.Diff([]string{"library-static-v2", "library-dynamic-v2"}, got); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterFailureKeepsPreviousController(t *testing.T) {
	ctx := context.Background()
	reg, first, store, net := activeRegistration(t)

	broken := newWorker(t, store, net, "v2", []string{"/", "/missing.css"})
	err := reg.Register(ctx, broken)
	if !errors.Is(err, ErrInstallFailed) {
		t.Fatalf("expected ErrInstallFailed, got %v", err)
	}
	if reg.Controller() != first {
		t.Error("expected v1 to keep serving")
	}
	if first.State() != Active {
		t.Errorf("expected v1 active, got %s", first.State())
	}
	if broken.State() != Redundant {
		t.Errorf("expected v2 redundant, got %s", broken.State())
	}
	got, _ := store.Buckets(ctx)
	if diff := cmp.Diff([]string{"library-static-v1", "library-dynamic-v1"}, got); diff != "" {
		t.Errorf("buckets mismatch (-want +got):\n%s", diff)
	}
}

func TestNonGetPassesThrough(t *testing.T) {
	ctx := context.Background()
	reg, _, store, net := activeRegistration(t)
	net.set(origin+"/api/notes", http.StatusOK, "created")

	req, _ := http.NewRequest(http.MethodPost, origin+"/api/notes", strings.NewReader("{}"))
	resp, err := reg.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip: %v", err)
	}
	resp.Body.Close()
	if net.count(origin+"/api/notes") != 1 {
		t.Error("expected POST to reach the network")
	}
	if _, ok, _ := store.MatchAny(ctx, origin+"/api/notes"); ok {
		t.Error("POST responses must not be cached")
	}

	net.setDown(true)
	req, _ = http.NewRequest(http.MethodPost, origin+"/api/notes", nil)
	if _, err := reg.RoundTrip(req); !errors.Is(err, errUnreachable) {
		t.Errorf("expected POST failure to pass through, got %v", err)
	}
}

func TestDocumentNetworkFirst(t *testing.T) {
	ctx := context.Background()
	reg, w, store, net := activeRegistration(t)
	net.set(origin+"/novels/sun", http.StatusOK, "fresh page")

	resp, body := get(t, reg, origin+"/novels/sun", "Sec-Fetch-Dest", "document")
	if resp.StatusCode != http.StatusOK || body != "fresh page" {
		t.Fatalf("expected fresh page, got %d %q", resp.StatusCode, body)
	}
	if _, ok, _ := store.Match(ctx, w.DynamicBucket(), origin+"/novels/sun"); !ok {
		t.Error("expected document stored in dynamic bucket")
	}

	net.set(origin+"/novels/sun", http.StatusOK, "newer page")
	if _, body := get(t, reg, origin+"/novels/sun"); body != "newer page" {
		t.Errorf("network must win while online, got %q", body)
	}

	net.setDown(true)
	if _, body := get(t, reg, origin+"/novels/sun"); body != "newer page" {
		t.Errorf("expected cached page offline, got %q", body)
	}
	resp, body = get(t, reg, origin+"/never-visited.html")
	if resp.StatusCode != http.StatusOK || body != "<html>shell</html>" {
		t.Errorf("expected offline shell, got %d %q", resp.StatusCode, body)
	}
}

func TestDocumentWithoutShellFallsBackTo404(t *testing.T) {
	store := cache.NewMemory()
	net := newNetwork(map[string]string{origin + "/app.js": "x"})
	reg := NewRegistration(net, nil)
	if err := reg.Register(context.Background(), newWorker(t, store, net, "v1", []string{"/app.js"})); err != nil {
		t.Fatalf("Register: %v", err)
	}

	net.setDown(true)
	resp, body := get(t, reg, origin+"/about", "Sec-Fetch-Dest", "document")
	if resp.StatusCode != http.StatusNotFound || body != "" {
		t.Errorf("expected empty 404, got %d %q", resp.StatusCode, body)
	}
}

func TestScriptCacheFirstWithBackgroundRevalidation(t *testing.T) {
	_, w, _, net := activeRegistration(t)
	net.set(origin+"/app.js", http.StatusOK, "console.log('v2')")

	_, body := get(t, w, origin+"/app.js", "Sec-Fetch-Dest", "script")
	if body != "console.log('v1')" {
		t.Fatalf("expected cached v1 first, got %q", body)
	}
	w.Wait()

	_, body = get(t, w, origin+"/app.js", "Sec-Fetch-Dest", "script")
	if body != "console.log('v2')" {
		t.Errorf("expected revalidated v2, got %q", body)
	}
}

func TestCachedScriptDoesNotWaitForNetwork(t *testing.T) {
	_, w, _, net := activeRegistration(t)

	gate := make(chan struct{})
	net.mu.Lock()
	net.gate = gate
	net.mu.Unlock()

	done := make(chan string, 1)
	go func() {
		_, body := get(t, w, origin+"/styles.css")
		done <- body
	}()

	select {
	case body := <-done:
		if body != "body{color:black}" {
			t.Errorf("expected cached stylesheet, got %q", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cached response waited on the network")
	}
	close(gate)
	w.Wait()
}

func TestRevalidationErrorsAreDiscarded(t *testing.T) {
	_, w, store, net := activeRegistration(t)
	net.setDown(true)

	resp, body := get(t, w, origin+"/app.js")
	if resp.StatusCode != http.StatusOK || body != "console.log('v1')" {
		t.Fatalf("expected cached script, got %d %q", resp.StatusCode, body)
	}
	w.Wait()

	e, ok, _ := store.Match(context.Background(), w.StaticBucket(), origin+"/app.js")
	if !ok || string(e.Body) != "console.log('v1')" {
		t.Errorf("failed revalidation must leave the entry alone, got %q", e.Body)
	}
}

func TestRevalidationSkipsErrorResponses(t *testing.T) {
	_, w, store, net := activeRegistration(t)
	net.set(origin+"/app.js", http.StatusInternalServerError, "boom")

	get(t, w, origin+"/app.js")
	w.Wait()

	e, _, _ := store.Match(context.Background(), w.StaticBucket(), origin+"/app.js")
	if string(e.Body) != "console.log('v1')" {
		t.Errorf("a 500 must not replace the cached script, got %q", e.Body)
	}
}

func TestStyleMissFetchesIntoStatic(t *testing.T) {
	ctx := context.Background()
	_, w, store, net := activeRegistration(t)
	net.set(origin+"/theme.css", http.StatusOK, "h1{}")

	if _, body := get(t, w, origin+"/theme.css"); body != "h1{}" {
		t.Fatalf("expected network body, got %q", body)
	}
	if _, ok, _ := store.Match(ctx, w.StaticBucket(), origin+"/theme.css"); !ok {
		t.Error("expected stylesheet stored in static bucket")
	}

	net.setDown(true)
	resp, body := get(t, w, origin+"/print.css")
	if resp.StatusCode != http.StatusNotFound || body != "" {
		t.Errorf("expected empty 404, got %d %q", resp.StatusCode, body)
	}
}

func TestImageCacheFirst(t *testing.T) {
	ctx := context.Background()
	_, w, store, net := activeRegistration(t)
	u := origin + "/covers/sun.png"
	net.set(u, http.StatusOK, "PNG")

	get(t, w, u)
	get(t, w, u)
	if n := net.count(u); n != 1 {
		t.Errorf("expected one network fetch, got %d", n)
	}
	if _, ok, _ := store.Match(ctx, w.DynamicBucket(), u); !ok {
		t.Error("expected image stored in dynamic bucket")
	}

	net.setDown(true)
	resp, body := get(t, w, origin+"/covers/missing.png")
	if resp.StatusCode != http.StatusNotFound || body != "" {
		t.Errorf("expected empty 404, got %d %q", resp.StatusCode, body)
	}
}

func TestOtherNetworkFirstWithoutShell(t *testing.T) {
	ctx := context.Background()
	_, w, store, net := activeRegistration(t)
	u := origin + "/api/search?q=sun"
	net.set(u, http.StatusOK, `[{"id":"sun"}]`)

	_, body := get(t, w, u, "Accept", "application/json")
	if body != `[{"id":"sun"}]` {
		t.Fatalf("expected network body, got %q", body)
	}

	net.setDown(true)
	if _, body := get(t, w, u, "Accept", "application/json"); body != `[{"id":"sun"}]` {
		t.Errorf("expected exact cached match offline, got %q", body)
	}
	resp, body := get(t, w, origin+"/api/search?q=moon", "Accept", "application/json")
	if resp.StatusCode != http.StatusNotFound || body != "" {
		t.Errorf("expected empty 404 without shell fallback, got %d %q", resp.StatusCode, body)
	}
	if _, ok, _ := store.Match(ctx, w.DynamicBucket(), origin+"/api/search?q=moon"); ok {
		t.Error("nothing should be stored for a failed fetch")
	}
}

func TestOfflineAPIRequestNeverGetsShell(t *testing.T) {
	_, w, _, net := activeRegistration(t)
	net.setDown(true)

	for _, accept := range []string{"", "*/*"} {
		var header []string
		if accept != "" {
			header = []string{"Accept", accept}
		}
		resp, body := get(t, w, origin+"/api/suggest?q=su", header...)
		if resp.StatusCode != http.StatusNotFound || body != "" {
			t.Errorf("Accept %q: expected empty 404, got %d %q", accept, resp.StatusCode, body)
		}
	}
}

func TestErrorResponsesAreNotCached(t *testing.T) {
	ctx := context.Background()
	_, w, store, net := activeRegistration(t)
	u := origin + "/drafts"
	net.set(u, http.StatusInternalServerError, "boom")

	resp, body := get(t, w, u)
	if resp.StatusCode != http.StatusInternalServerError || body != "boom" {
		t.Errorf("expected the network's 500 to reach the caller, got %d %q", resp.StatusCode, body)
	}
	if _, ok, _ := store.MatchAny(ctx, u); ok {
		t.Error("a 500 must never be cached")
	}
}

func TestCrossOrigin(t *testing.T) {
	ctx := context.Background()
	_, w, store, net := activeRegistration(t)
	font := "https://fonts.example/serif.woff2"
	css := "https://fonts.example/serif.css"
	net.set(font, http.StatusOK, "FONT")
	net.set(css, http.StatusOK, "@font-face{}")

	if _, body := get(t, w, font); body != "FONT" {
		t.Fatalf("expected font body, got %q", body)
	}
	if _, ok, _ := store.Match(ctx, w.DynamicBucket(), font); !ok {
		t.Error("expected cross-origin font stored in dynamic bucket")
	}

	if _, body := get(t, w, css); body != "@font-face{}" {
		t.Fatalf("expected stylesheet body, got %q", body)
	}
	if _, ok, _ := store.MatchAny(ctx, css); ok {
		t.Error("cross-origin stylesheets must never be cached")
	}

	net.setDown(true)
	req, _ := http.NewRequest(http.MethodGet, css, nil)
	if _, err := w.RoundTrip(req); !errors.Is(err, errUnreachable) {
		t.Errorf("expected cross-origin stylesheet to pass through untouched, got %v", err)
	}
	resp, body := get(t, w, "https://images.example/cover.jpg")
	if resp.StatusCode != http.StatusNotFound || body != "" {
		t.Errorf("expected empty 404 for failed cross-origin image, got %d %q", resp.StatusCode, body)
	}
}

func TestInactiveWorkerDoesNotIntercept(t *testing.T) {
	store := cache.NewMemory()
	net := newNetwork(shellRoutes())
	w := newWorker(t, store, net, "v1", shellManifest)

	get(t, w, origin+"/app.js")
	if _, ok, _ := store.MatchAny(context.Background(), origin+"/app.js"); ok {
		t.Error("an installing worker must not cache")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		url    string
		header []string
		want   Destination
	}{
		{"/", nil, DestDocument},
		{"/index.html", nil, DestDocument},
		{"/novels/sun", nil, DestDocument},
		{"/novels/sun", []string{"Accept", "text/html,application/xhtml+xml"}, DestDocument},
		{"/api/search", []string{"Accept", "application/json"}, DestOther},
		{"/api/search", nil, DestOther},
		{"/novels/sun", []string{"Accept", "*/*"}, DestOther},
		{"/api/suggest", []string{"Accept", "*/*"}, DestOther},
		{"/styles.css", nil, DestStyle},
		{"/app.JS", nil, DestScript},
		{"/mod.mjs", nil, DestScript},
		{"/cover.webp", nil, DestImage},
		{"/font.woff2", nil, DestFont},
		{"/feed.xml", nil, DestOther},
		{"/styles.css", []string{"Sec-Fetch-Dest", "document"}, DestDocument},
		{"/anything", []string{"Sec-Fetch-Dest", "image"}, DestImage},
		{"/data", []string{"Sec-Fetch-Dest", "empty"}, DestOther},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, origin+tt.url, nil)
		for i := 0; i+1 < len(tt.header); i += 2 {
			req.Header.Set(tt.header[i], tt.header[i+1])
		}
		if got := Classify(req); got != tt.want {
			t.Errorf("Classify(%s %v) = %q, want %q", tt.url, tt.header, got, tt.want)
		}
	}
}

func TestHousekeepingSweepsStaleBuckets(t *testing.T) {
	reg, _, store, _ := activeRegistration(t)
	ctx, cancel := context.WithCancel(context.Background())

	store.OpenBucket(ctx, "library-static-v0")

	done := make(chan struct{})
	go func() {
		reg.RunHousekeeping(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		got, _ := store.Buckets(ctx)
		if len(got) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("stale bucket never swept, buckets %v", got)
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	<-done
	if store.NeedsSweep(time.Hour) {
		t.Error("expected the sweep to be recorded")
	}
}

func TestHousekeepingSweepsOverdueStoreImmediately(t *testing.T) {
	reg, _, store, _ := activeRegistration(t)
	ctx, cancel := context.WithCancel(context.Background())
	store.OpenBucket(ctx, "orphan")

	done := make(chan struct{})
	go func() {
		reg.RunHousekeeping(ctx, time.Hour)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		got, _ := store.Buckets(ctx)
		if len(got) == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("overdue sweep did not run, buckets %v", got)
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

func TestConcurrentRequests(t *testing.T) {
	_, w, _, net := activeRegistration(t)
	net.set(origin+"/covers/a.png", http.StatusOK, "A")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u := origin + "/app.js"
			if i%2 == 0 {
				u = origin + "/covers/a.png"
			}
			req, _ := http.NewRequest(http.MethodGet, u, nil)
			resp, err := w.RoundTrip(req)
			if err != nil {
				t.Errorf("RoundTrip: %v", err)
				return
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected 200 for %s, got %d", u, resp.StatusCode)
			}
		}(i)
	}
	wg.Wait()
	w.Wait()
}
