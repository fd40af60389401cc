// Package web is the HTTP surface of the marketing site: static assets,
// the contact/assessment API, analytics intake, and the live dashboard
// socket. Handlers stay thin; all business numbers come from the
// assessment package.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/opusautomations/site/internal/analytics"
	"github.com/opusautomations/site/internal/assessment"
	"github.com/opusautomations/site/internal/config"
	"github.com/opusautomations/site/internal/live"
	"github.com/opusautomations/site/internal/relay"
	"github.com/opusautomations/site/internal/report"
)

const thankYouMessage = "Thank you! We'll respond within 48 hours."

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Old multi-page routes collapse onto the single page with anchors.
var sectionRedirects = map[string]string{
	"/services":     "/#services",
	"/products":     "/#products",
	"/workflows":    "/#products",
	"/case-studies": "/#case-studies",
	"/about":        "/#about",
	"/contact":      "/#contact",
}

// PDFRenderer prints a standalone HTML document to PDF.
type PDFRenderer interface {
	Render(ctx context.Context, htmlDoc string) ([]byte, error)
}

type Server struct {
	relay     *relay.Client
	events    *analytics.Store
	hub       *live.Hub
	pdf       PDFRenderer
	webDir    string
	startedAt time.Time
}

func NewServer(relayClient *relay.Client, events *analytics.Store, hub *live.Hub, webDir string, rl config.RateLimitConfig) http.Handler {
	return newServer(relayClient, events, hub, webDir, rl, report.NewChromiumPDFRenderer())
}

func newServer(relayClient *relay.Client, events *analytics.Store, hub *live.Hub, webDir string, rl config.RateLimitConfig, pdf PDFRenderer) http.Handler {
	s := &Server{
		relay:     relayClient,
		events:    events,
		hub:       hub,
		pdf:       pdf,
		webDir:    webDir,
		startedAt: time.Now(),
	}

	contactLimiter := newIPLimiter(
		rl.ContactRequests,
		time.Duration(rl.ContactWindowMinutes)*time.Minute,
		"Too many contact form submissions, please try again later.",
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/api/contact", contactLimiter.Wrap(http.HandlerFunc(s.handleContact)))
	mux.HandleFunc("/api/assessment", s.handleAssessment)
	mux.HandleFunc("/api/assessment/report", s.handleAssessmentReport)
	mux.HandleFunc("/api/analytics", s.handleAnalytics)
	mux.Handle("/ws/analytics", hub)
	mux.HandleFunc("/api/docs", s.handleDocs)
	mux.HandleFunc("/sitemap.xml", s.handleSitemap)
	mux.HandleFunc("/robots.txt", s.handleRobots)
	for path, anchor := range sectionRedirects {
		target := anchor
		redirect := func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, target, http.StatusFound)
		}
		mux.HandleFunc(path, redirect)
		mux.HandleFunc(path+"/", redirect)
	}
	mux.HandleFunc("/", s.handleRoot)

	globalLimiter := newIPLimiter(
		rl.GlobalRequests,
		time.Duration(rl.GlobalWindowMinutes)*time.Minute,
		"Too many requests from this IP, please try again later.",
	)
	return securityHeaders(globalLimiter.Wrap(mux))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "message": msg})
}

// handleRoot serves the static frontend. Unknown paths fall back to the
// single page with a 404 status so client-side anchors keep working.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	// Prevent stale frontend bundles from breaking the UI after deploys.
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")

	if r.URL.Path == "/" || r.URL.Path == "/index.html" {
		http.ServeFile(w, r, filepath.Join(s.webDir, "index.html"))
		return
	}

	rel := strings.TrimPrefix(filepath.Clean(r.URL.Path), "/")
	full := filepath.Join(s.webDir, rel)
	if info, err := os.Stat(full); err == nil && !info.IsDir() {
		http.ServeFile(w, r, full)
		return
	}

	blob, err := os.ReadFile(filepath.Join(s.webDir, "index.html"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write(blob)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	total, err := s.events.Total()
	if err != nil {
		log.Printf("health: analytics total failed: %v", err)
	}
	writeJSON(w, 200, map[string]any{
		"status":             "healthy",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"uptime_seconds":     int(time.Since(s.startedAt).Seconds()),
		"webhook_configured": s.relay.Configured(),
		"analytics_events":   total,
		"dashboard_clients":  s.hub.Count(),
	})
}

// handleContact validates a form submission, scores it, and relays it to
// the workflow webhook. Relay failures never fail the submission; the
// visitor already handed us their details.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 10<<20)
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeFailure(w, 400, "Invalid request body")
		return
	}

	for _, field := range []string{"name", "email", "company", "revenue", "operations"} {
		if strings.TrimSpace(stringField(payload, field)) == "" {
			writeFailure(w, 400, "All required fields must be filled")
			return
		}
	}
	email := stringField(payload, "email")
	if !emailPattern.MatchString(email) {
		writeFailure(w, 400, "Invalid email address")
		return
	}

	inq := inquiryFromPayload(payload)
	score := assessment.ComputeLeadScore(inq)

	payload["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	payload["ip"] = clientIP(r)
	payload["userAgent"] = r.UserAgent()
	payload["leadScore"] = score
	payload["source"] = "website"

	log.Printf("contact: submission company=%q type=%q leadScore=%d",
		inq.CompanyName, inq.SubmissionType, score)

	if !s.relay.Configured() {
		log.Printf("contact: webhook not configured, submission logged only")
		writeJSON(w, 200, map[string]any{"success": true, "message": thankYouMessage})
		return
	}

	body, err := s.relay.Forward(r.Context(), payload)
	if err != nil {
		log.Printf("contact: webhook relay failed: %v", err)
		writeJSON(w, 200, map[string]any{
			"success": true,
			"message": thankYouMessage,
			"note":    "Request logged for manual follow-up",
		})
		return
	}

	// Pass the provider's response through when it sent a JSON object.
	var provider map[string]any
	if json.Unmarshal(body, &provider) == nil && len(provider) > 0 {
		writeJSON(w, 200, provider)
		return
	}
	writeJSON(w, 200, map[string]any{"success": true, "message": thankYouMessage})
}

// handleAssessment is the server-side mirror of the instant preview the
// frontend computes; both run the same engine.
func (s *Server) handleAssessment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var inq assessment.Inquiry
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&inq); err != nil {
		writeFailure(w, 400, "Invalid request body")
		return
	}
	writeJSON(w, 200, map[string]any{
		"success": true,
		"results": assessment.ComputeAssessment(inq),
	})
}

func (s *Server) handleAssessmentReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var inq assessment.Inquiry
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&inq); err != nil {
		writeFailure(w, 400, "Invalid request body")
		return
	}

	res := assessment.ComputeAssessment(inq)
	htmlDoc, err := report.RenderHTML(report.BuildMarkdown(inq, res))
	if err != nil {
		log.Printf("report: build failed: %v", err)
		writeFailure(w, 500, "Report rendering failed")
		return
	}
	pdf, err := s.pdf.Render(r.Context(), htmlDoc)
	if err != nil {
		log.Printf("report: pdf render failed: %v", err)
		writeFailure(w, 500, "Report rendering failed")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="automation-assessment.pdf"`)
	w.WriteHeader(200)
	_, _ = w.Write(pdf)
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeFailure(w, 400, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Event) == "" {
		writeFailure(w, 400, "event is required")
		return
	}

	if _, err := s.events.Record(req.Event, req.Data); err != nil {
		log.Printf("analytics: record %s failed: %v", req.Event, err)
		writeJSON(w, 500, map[string]any{"success": false})
		return
	}

	// High-signal events get their own log line for quick grepping.
	switch req.Event {
	case "cta_click":
		log.Printf("analytics: cta_click button=%q section=%q",
			stringField(req.Data, "button_text"), stringField(req.Data, "section"))
	case "product_interest":
		log.Printf("analytics: product_interest product=%q",
			stringField(req.Data, "product_name"))
	}

	writeJSON(w, 200, map[string]any{"success": true})
}

func (s *Server) handleDocs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, 200, map[string]any{
		"name":    "Opus Automations API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /api/contact":           "Submit contact form (relayed to workflow webhook)",
			"POST /api/assessment":        "Compute savings and ROI estimate",
			"POST /api/assessment/report": "Download the estimate as PDF",
			"POST /api/analytics":         "Track analytics events",
			"GET /ws/analytics":           "Live analytics dashboard stream",
			"GET /health":                 "Health check",
			"GET /":                       "Main homepage",
		},
		"redirects": sectionRedirects,
		"integrations": map[string]any{
			"workflow_webhook": s.relay.Configured(),
		},
	})
}

func (s *Server) handleSitemap(w http.ResponseWriter, r *http.Request) {
	base := requestBaseURL(r)
	today := time.Now().Format("2006-01-02")

	entries := []struct {
		loc      string
		freq     string
		priority string
	}{
		{"/", "weekly", "1.0"},
		{"/#services", "monthly", "0.8"},
		{"/#products", "weekly", "0.9"},
		{"/#case-studies", "monthly", "0.7"},
		{"/#about", "monthly", "0.6"},
		{"/#contact", "monthly", "0.7"},
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">` + "\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "  <url>\n    <loc>%s%s</loc>\n    <lastmod>%s</lastmod>\n    <changefreq>%s</changefreq>\n    <priority>%s</priority>\n  </url>\n",
			base, e.loc, today, e.freq, e.priority)
	}
	b.WriteString("</urlset>\n")

	w.Header().Set("Content-Type", "text/xml")
	_, _ = w.Write([]byte(b.String()))
}

func (s *Server) handleRobots(w http.ResponseWriter, r *http.Request) {
	robots := "User-agent: *\nAllow: /\nDisallow: /api/\nDisallow: /health\n\nSitemap: " +
		requestBaseURL(r) + "/sitemap.xml\n"
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(robots))
}

func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func inquiryFromPayload(m map[string]any) assessment.Inquiry {
	return assessment.Inquiry{
		HoursBand:            stringField(m, "hours"),
		RevenueBand:          stringField(m, "revenue"),
		OperationsBand:       stringField(m, "operations"),
		CompanyName:          stringField(m, "company"),
		ChallengeDescription: stringField(m, "challenge"),
		SubmissionType:       stringField(m, "type"),
	}
}
