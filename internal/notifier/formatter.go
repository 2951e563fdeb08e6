package notifier

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"unicode/utf8"

	"RiskSentinel/internal/model"
)

var labelIcon = map[model.RiskLabel]string{
	model.RiskLow:      "🟢",
	model.RiskMedium:   "🟡",
	model.RiskHigh:     "🟠",
	model.RiskVeryHigh: "🔴",
}

var severityIcon = map[model.AlertSeverity]string{
	model.SeverityInfo:     "ℹ️",
	model.SeverityWarning:  "⚠️",
	model.SeverityCritical: "🚨",
}

// FormatReport renders a run as a Telegram HTML summary.
func FormatReport(r *model.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 <b>RiskSentinel</b> | %s\n", r.GeneratedAt.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Horizon %dd · profile %s", r.HorizonDays, r.Profile)
	if r.Benchmark != "" {
		fmt.Fprintf(&b, " · benchmark %s", r.Benchmark)
	}
	b.WriteString("\n\n<pre>")
	fmt.Fprintf(&b, "%-5s %12s %7s %7s %6s %6s %-8s\n", "Asset", "Price", "24h", "AnnVol", "Sharpe", "Beta", "Risk")
	for _, a := range r.Assets {
		fmt.Fprintf(&b, "%-5s %12s %+6.1f%% %6.1f%% %6s %6s %-8s\n",
			a.Symbol,
			formatPrice(a.CurrentPrice),
			a.LastReturn24h*100,
			a.Volatility.AnnualizedVolatility*100,
			formatOptional(a.Performance.SharpeRatio, 2),
			formatOptional(a.Performance.Beta, 2),
			a.Label,
		)
	}
	b.WriteString("</pre>\n")

	for _, a := range r.Assets {
		fmt.Fprintf(&b, "%s <b>%s</b> %s · MaxDD %.1f%% · VaR95 %.1f%% · score %.0f\n",
			labelIcon[a.Label], html.EscapeString(a.Symbol), a.Label,
			a.Performance.MaxDrawdown*100, a.Performance.VaR95*100, a.RiskScore)
	}

	if len(r.Failures) > 0 {
		b.WriteString("\n❌ <b>Unavailable</b>\n")
		syms := make([]string, 0, len(r.Failures))
		for s := range r.Failures {
			syms = append(syms, s)
		}
		sort.Strings(syms)
		for _, s := range syms {
			fmt.Fprintf(&b, "• %s: %s\n", html.EscapeString(s), html.EscapeString(r.Failures[s]))
		}
	}

	if len(r.Alerts) > 0 {
		b.WriteString("\n")
		b.WriteString(FormatAlerts(r.Alerts))
	} else {
		b.WriteString("\n✅ No alerts")
	}
	return b.String()
}

// FormatAlerts renders alerts grouped by kind in their given order.
func FormatAlerts(alerts []model.Alert) string {
	if len(alerts) == 0 {
		return "✅ No alerts"
	}
	var b strings.Builder
	current := model.AlertKind(-1)
	for _, a := range alerts {
		if a.Kind != current {
			if current >= 0 {
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "<b>%s</b>\n", kindTitle(a.Kind))
			current = a.Kind
		}
		fmt.Fprintf(&b, "%s %s\n", severityIcon[a.Severity], html.EscapeString(a.Message))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Available commands:\n" +
		"/risk - run an analysis now\n" +
		"/alerts - alerts from the latest analysis\n" +
		"/help - this message"
}

func kindTitle(k model.AlertKind) string {
	switch k {
	case model.AlertHighRisk:
		return "🔥 High risk"
	case model.AlertVolatilitySpike:
		return "📈 Volatility spikes"
	case model.AlertPerformanceWarning:
		return "⚠️ Performance warnings"
	default:
		return k.String()
	}
}

func formatPrice(p float64) string {
	switch {
	case p >= 1000:
		return fmt.Sprintf("%.0f", p)
	case p >= 1:
		return fmt.Sprintf("%.2f", p)
	default:
		return fmt.Sprintf("%.4f", p)
	}
}

func formatOptional(o model.Optional, prec int) string {
	if !o.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.*f", prec, o.Value)
}

const (
	preOpen  = "<pre>"
	preClose = "</pre>"
)

// splitMessage cuts text into chunks of at most limit bytes, preferring
// newline boundaries. A <pre> block spanning a cut is closed at the end of
// one chunk and reopened at the start of the next, and hard cuts never land
// inside a tag or an entity.
func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	budget, minCut := limit, 1
	if strings.Contains(text, preOpen) && limit > 2*(len(preOpen)+len(preClose)) {
		budget -= len(preClose)
		minCut = len(preOpen) + 1
	}
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:budget], "\n")
		if cut < minCut {
			cut = hardCut(text, budget, minCut)
		}
		chunk, rest := text[:cut], strings.TrimPrefix(text[cut:], "\n")
		if minCut > 1 && strings.Count(chunk, preOpen) > strings.Count(chunk, preClose) {
			chunk += preClose
			rest = preOpen + rest
		}
		chunks = append(chunks, chunk)
		text = rest
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

// hardCut picks a cut at or before n that is on a rune start and outside
// any markup, but never before floor.
func hardCut(text string, n, floor int) int {
	cut := n
	for cut > floor && !utf8.RuneStart(text[cut]) {
		cut--
	}
	head := text[:cut]
	if lt := strings.LastIndexByte(head, '<'); lt >= floor && lt > strings.LastIndexByte(head, '>') {
		cut = lt
	}
	head = text[:cut]
	if amp := strings.LastIndexByte(head, '&'); amp >= floor && amp > strings.LastIndexByte(head, ';') {
		cut = amp
	}
	return cut
}
