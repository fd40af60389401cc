// Package report turns a computed assessment into a downloadable document:
// markdown summary, HTML via goldmark, and PDF via headless Chromium.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/opusautomations/site/internal/assessment"
)

const disclaimer = "This estimate is a directional planning tool based on the ranges you " +
	"selected, not a quote. Actual savings depend on the processes chosen for " +
	"automation and are confirmed during a discovery call."

var hoursLabels = map[string]string{
	"5-10":  "5-10 hours per week",
	"10-20": "10-20 hours per week",
	"20-40": "20-40 hours per week",
	"40+":   "40+ hours per week",
}

var revenueLabels = map[string]string{
	"100k-500k": "$100K - $500K annual revenue",
	"500k-2m":   "$500K - $2M annual revenue",
	"2m-10m":    "$2M - $10M annual revenue",
	"10m-50m":   "$10M - $50M annual revenue",
	"50m+":      "$50M+ annual revenue",
}

// BuildMarkdown renders the assessment summary for one inquiry. Unknown
// bands are shown as "Not provided" rather than dropped, so the reader sees
// which inputs drove a zero estimate.
func BuildMarkdown(in assessment.Inquiry, res assessment.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Automation Assessment\n\n")
	if strings.TrimSpace(in.CompanyName) != "" {
		fmt.Fprintf(&b, "- Company: %s\n", sanitize(in.CompanyName))
	}
	fmt.Fprintf(&b, "- Date: %s\n", time.Now().Format("January 2, 2006"))
	fmt.Fprintf(&b, "- Manual work: %s\n", bandLabel(hoursLabels, in.HoursBand))
	fmt.Fprintf(&b, "- Company size: %s\n\n", bandLabel(revenueLabels, in.RevenueBand))

	fmt.Fprintf(&b, "## Your Estimate\n\n")
	fmt.Fprintf(&b, "| Metric | Estimate |\n")
	fmt.Fprintf(&b, "|--------|----------|\n")
	fmt.Fprintf(&b, "| Potential annual savings | $%s |\n", formatDollars(res.Savings))
	fmt.Fprintf(&b, "| Estimated investment | $%s |\n", formatDollars(res.Investment))
	fmt.Fprintf(&b, "| ROI timeline | %d months |\n", res.ROIMonths)
	fmt.Fprintf(&b, "| Implementation complexity | %s |\n\n", res.Complexity)

	fmt.Fprintf(&b, "## How We Calculate This\n\n")
	fmt.Fprintf(&b, "Your weekly manual hours are annualized at a blended labor rate that "+
		"scales with company size, then discounted to the 80%% of routine work "+
		"that automation typically absorbs. The investment figure is sized at "+
		"30%% of first-year savings, bounded to our engagement range.\n\n")

	if strings.TrimSpace(in.ChallengeDescription) != "" {
		fmt.Fprintf(&b, "## Your Challenge\n\n")
		fmt.Fprintf(&b, "> %s\n\n", sanitize(in.ChallengeDescription))
	}

	fmt.Fprintf(&b, "## Next Steps\n\n")
	fmt.Fprintf(&b, "1. Book a discovery call to map your highest-volume processes\n")
	fmt.Fprintf(&b, "2. We scope the first automation and confirm the numbers above\n")
	fmt.Fprintf(&b, "3. Typical first workflow ships within 2-4 weeks\n\n")

	fmt.Fprintf(&b, "---\n\n%s\n", disclaimer)
	return b.String()
}

// RenderHTML converts the report markdown to a standalone HTML document
// suitable for printing.
func RenderHTML(markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}

	return "<!doctype html><html><head><meta charset='utf-8'><title>Automation Assessment</title>" +
		"<style>" + documentCSS + "</style></head><body>" +
		"<div class='report'>" + content.String() + "</div>" +
		"</body></html>", nil
}

const documentCSS = `
body{font-family:Georgia,serif;color:#1c1917;background:#fff;margin:0;padding:1rem;}
.report{max-width:720px;margin:0 auto;}
h1{font-size:1.6rem;border-bottom:3px solid #0f766e;padding-bottom:0.4rem;}
h2{font-size:1.15rem;color:#0f766e;margin-top:1.4rem;}
table{width:100%;border-collapse:collapse;font-size:0.95rem;}
th,td{border:1px solid #a8a29e;padding:0.45rem 0.6rem;text-align:left;}
thead th{background:#f1f5f9;}
blockquote{border-left:3px solid #0f766e;margin:0;padding:0.1rem 0.8rem;color:#44403c;}
hr{border:0;border-top:1px solid #d6d3d1;margin:1.5rem 0;}
`

func bandLabel(labels map[string]string, key string) string {
	if label, ok := labels[key]; ok {
		return label
	}
	return "Not provided"
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

func formatDollars(n int) string {
	if n < 0 {
		return "-" + formatDollars(-n)
	}
	raw := fmt.Sprintf("%d", n)
	var out strings.Builder
	for i, r := range raw {
		if i > 0 && (len(raw)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}
	return out.String()
}
