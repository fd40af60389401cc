package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/opusautomations/site/internal/analytics"
	"github.com/opusautomations/site/internal/config"
	"github.com/opusautomations/site/internal/live"
	"github.com/opusautomations/site/internal/relay"
)

type fakePDF struct {
	mu       sync.Mutex
	lastHTML string
	err      error
}

func (f *fakePDF) Render(_ context.Context, htmlDoc string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.lastHTML = htmlDoc
	return []byte("%PDF-1.4 fake"), nil
}

type webhookRecorder struct {
	mu       sync.Mutex
	payloads []map[string]any
	status   int
	reply    string
}

func (wr *webhookRecorder) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var payload map[string]any
	_ = json.Unmarshal(body, &payload)

	wr.mu.Lock()
	wr.payloads = append(wr.payloads, payload)
	status, reply := wr.status, wr.reply
	wr.mu.Unlock()

	if status == 0 {
		status = 200
	}
	w.WriteHeader(status)
	if reply != "" {
		_, _ = w.Write([]byte(reply))
	}
}

func (wr *webhookRecorder) last(t *testing.T) map[string]any {
	t.Helper()
	wr.mu.Lock()
	defer wr.mu.Unlock()
	if len(wr.payloads) == 0 {
		t.Fatal("webhook received no payloads")
	}
	return wr.payloads[len(wr.payloads)-1]
}

type testEnv struct {
	srv     *httptest.Server
	webhook *webhookRecorder
	store   *analytics.Store
	pdf     *fakePDF
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := analytics.NewStore(filepath.Join(t.TempDir(), "analytics.db"))
	if err != nil {
		t.Fatalf("open analytics store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	webDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(webDir, "index.html"),
		[]byte("<html><body>Opus Automations</body></html>"), 0o644); err != nil {
		t.Fatalf("write index: %v", err)
	}
	if err := os.WriteFile(filepath.Join(webDir, "style.css"),
		[]byte("body{margin:0}"), 0o644); err != nil {
		t.Fatalf("write css: %v", err)
	}

	wr := &webhookRecorder{}
	hook := httptest.NewServer(http.HandlerFunc(wr.handler))
	t.Cleanup(hook.Close)

	hub := live.NewHub(store, 50*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	pdf := &fakePDF{}
	handler := newServer(
		relay.NewClient(hook.URL, 5*time.Second),
		store, hub, webDir,
		config.RateLimitConfig{
			GlobalRequests:       1000,
			GlobalWindowMinutes:  15,
			ContactRequests:      1000,
			ContactWindowMinutes: 60,
		},
		pdf,
	)
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, webhook: wr, store: store, pdf: pdf}
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func validContact() map[string]any {
	return map[string]any{
		"name":       "Dana Smith",
		"email":      "dana@acme.example",
		"company":    "Acme Industrial Group",
		"revenue":    "large",
		"operations": "25-40",
		"challenge":  "Order intake is manual and error prone across three regional teams.",
		"type":       "assessment",
	}
}

func TestContactRelaysEnrichedPayload(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.srv.URL+"/api/contact", validContact())
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Fatalf("success = %v, want true", body["success"])
	}

	relayed := env.webhook.last(t)
	if relayed["source"] != "website" {
		t.Fatalf("source = %v, want website", relayed["source"])
	}
	if relayed["userAgent"] == "" || relayed["ip"] == "" || relayed["timestamp"] == "" {
		t.Fatalf("missing enrichment fields: %v", relayed)
	}
	// large revenue (80) + 25-40 ops (75) plus every bonus, clamped to 100.
	if score, _ := relayed["leadScore"].(float64); score != 100 {
		t.Fatalf("leadScore = %v, want 100", relayed["leadScore"])
	}
}

func TestContactMissingFieldRejected(t *testing.T) {
	env := newTestEnv(t)

	payload := validContact()
	delete(payload, "operations")
	resp := postJSON(t, env.srv.URL+"/api/contact", payload)
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != false {
		t.Fatalf("success = %v, want false", body["success"])
	}
}

func TestContactInvalidEmailRejected(t *testing.T) {
	env := newTestEnv(t)

	payload := validContact()
	payload["email"] = "not-an-email"
	resp := postJSON(t, env.srv.URL+"/api/contact", payload)
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestContactSucceedsWhenWebhookFails(t *testing.T) {
	env := newTestEnv(t)
	env.webhook.mu.Lock()
	env.webhook.status = 502
	env.webhook.mu.Unlock()

	resp := postJSON(t, env.srv.URL+"/api/contact", validContact())
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200 despite relay failure", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Fatalf("success = %v, want true", body["success"])
	}
	if note, _ := body["note"].(string); !strings.Contains(note, "follow-up") {
		t.Fatalf("note = %q, want follow-up notice", note)
	}
}

func TestContactPassesThroughProviderResponse(t *testing.T) {
	env := newTestEnv(t)
	env.webhook.mu.Lock()
	env.webhook.reply = `{"success":true,"message":"Queued for review","ticket":"OPS-42"}`
	env.webhook.mu.Unlock()

	resp := postJSON(t, env.srv.URL+"/api/contact", validContact())
	body := decodeBody(t, resp)
	if body["ticket"] != "OPS-42" {
		t.Fatalf("expected provider response passthrough, got %v", body)
	}
}

func TestAssessmentEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.srv.URL+"/api/assessment", map[string]any{
		"hours":   "40+",
		"revenue": "50m+",
	})
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	results, ok := body["results"].(map[string]any)
	if !ok {
		t.Fatalf("missing results: %v", body)
	}
	if results["savings"] != float64(312000) {
		t.Fatalf("savings = %v, want 312000", results["savings"])
	}
	if results["investment"] != float64(93600) {
		t.Fatalf("investment = %v, want 93600", results["investment"])
	}
	if results["roiMonths"] != float64(4) {
		t.Fatalf("roiMonths = %v, want 4", results["roiMonths"])
	}
	if results["complexity"] != "High" {
		t.Fatalf("complexity = %v, want High", results["complexity"])
	}
}

func TestAssessmentReportReturnsPDF(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.srv.URL+"/api/assessment/report", map[string]any{
		"hours":   "10-20",
		"revenue": "2m-10m",
		"company": "Acme Industrial Group",
	})
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q, want application/pdf", ct)
	}
	blob, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(blob, []byte("%PDF")) {
		t.Fatalf("body does not look like a PDF: %q", blob[:min(len(blob), 16)])
	}

	env.pdf.mu.Lock()
	html := env.pdf.lastHTML
	env.pdf.mu.Unlock()
	if !strings.Contains(html, "Acme Industrial Group") {
		t.Fatal("rendered HTML missing company name")
	}
}

func TestAssessmentReportRenderFailure(t *testing.T) {
	env := newTestEnv(t)
	env.pdf.mu.Lock()
	env.pdf.err = errors.New("chromium exploded")
	env.pdf.mu.Unlock()

	resp := postJSON(t, env.srv.URL+"/api/assessment/report", map[string]any{"hours": "5-10"})
	if resp.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAnalyticsEndpointRecordsEvent(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.srv.URL+"/api/analytics", map[string]any{
		"event": "product_interest",
		"data":  map[string]any{"product_name": "invoice-bot"},
	})
	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["success"] != true {
		t.Fatalf("success = %v, want true", body["success"])
	}

	counts, err := env.store.CountsByName()
	if err != nil {
		t.Fatalf("counts: %v", err)
	}
	if counts["product_interest"] != 1 {
		t.Fatalf("counts = %v, want product_interest:1", counts)
	}
}

func TestAnalyticsRequiresEventName(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.srv.URL+"/api/analytics", map[string]any{"data": map[string]any{}})
	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/health")
	if err != nil {
		t.Fatalf("get health: %v", err)
	}
	body := decodeBody(t, resp)
	if body["status"] != "healthy" {
		t.Fatalf("status = %v, want healthy", body["status"])
	}
	if body["webhook_configured"] != true {
		t.Fatalf("webhook_configured = %v, want true", body["webhook_configured"])
	}
}

func TestSectionRedirects(t *testing.T) {
	env := newTestEnv(t)
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}

	for path, anchor := range map[string]string{
		"/services":   "/#services",
		"/workflows/": "/#products",
		"/about":      "/#about",
	} {
		resp, err := client.Get(env.srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound {
			t.Fatalf("%s status = %d, want 302", path, resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != anchor {
			t.Fatalf("%s redirects to %q, want %q", path, loc, anchor)
		}
	}
}

func TestStaticServingAndSPAFallback(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/")
	if err != nil {
		t.Fatalf("get /: %v", err)
	}
	home, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != 200 || !strings.Contains(string(home), "Opus Automations") {
		t.Fatalf("home = %d %q", resp.StatusCode, home)
	}
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("cache-control = %q, want no-store", cc)
	}

	resp, err = http.Get(env.srv.URL + "/style.css")
	if err != nil {
		t.Fatalf("get css: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Fatalf("css status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Get(env.srv.URL + "/no-such-page")
	if err != nil {
		t.Fatalf("get fallback: %v", err)
	}
	fallback, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Fatalf("fallback status = %d, want 404", resp.StatusCode)
	}
	if !strings.Contains(string(fallback), "Opus Automations") {
		t.Fatal("fallback should serve the single page")
	}
}

func TestSitemapAndRobots(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/sitemap.xml")
	if err != nil {
		t.Fatalf("get sitemap: %v", err)
	}
	sitemap, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(sitemap), "<urlset") || !strings.Contains(string(sitemap), "#case-studies") {
		t.Fatalf("sitemap content unexpected:\n%s", sitemap)
	}

	resp, err = http.Get(env.srv.URL + "/robots.txt")
	if err != nil {
		t.Fatalf("get robots: %v", err)
	}
	robots, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(robots), "Disallow: /api/") {
		t.Fatalf("robots content unexpected:\n%s", robots)
	}
	if !strings.Contains(string(robots), "/sitemap.xml") {
		t.Fatal("robots should point at the sitemap")
	}
}

func TestDocsEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/api/docs")
	if err != nil {
		t.Fatalf("get docs: %v", err)
	}
	body := decodeBody(t, resp)
	endpoints, ok := body["endpoints"].(map[string]any)
	if !ok || endpoints["POST /api/contact"] == nil {
		t.Fatalf("docs missing endpoints: %v", body)
	}
}

func TestSecurityHeadersPresent(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("Content-Security-Policy") == "" {
		t.Fatal("missing Content-Security-Policy header")
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatal("missing nosniff header")
	}
}

func TestContactMethodGuard(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.srv.URL + "/api/contact")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
