package menu

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/loveeatcandy/cliproxy-quota/internal/quota"
)

const (
	colorWhite  = "#ffffff"
	colorDim    = "#888888"
	colorGreen  = "#4caf50"
	colorOrange = "#ff9800"
	colorRed    = "#f44336"

	monoFont = "Menlo"
)

// ProviderDisplay is the per-provider presentation config: the status bar
// token is Icon+Letter, the dropdown header uses Icon+Label.
type ProviderDisplay struct {
	Name   string
	Icon   string
	Letter string
	Label  string
}

type Options struct {
	Providers     []ProviderDisplay
	ManagementURL string
	WarnThreshold float64
}

// Render turns a snapshot into the full SwiftBar document: status bar title,
// dropdown sections, footer. Output is deterministic for a given snapshot.
func Render(snap quota.Snapshot, opts Options) string {
	if snap.FetchErr != "" {
		return RenderError(snap.FetchErr)
	}

	total := lo.SumBy(snap.Providers, func(p quota.ProviderSummary) int { return p.AccountCount })
	if total == 0 {
		return renderEmpty(opts)
	}

	var lines []string
	lines = append(lines, renderTitle(snap, opts))
	lines = append(lines, separator)
	for _, display := range opts.Providers {
		records := snap.Accounts[display.Name]
		if len(records) == 0 {
			continue
		}
		lines = append(lines, renderProviderSection(display, records, snap.FetchedAt, opts.WarnThreshold)...)
	}
	lines = append(lines, renderFooter(snap.FetchedAt, opts.ManagementURL)...)
	return strings.Join(lines, "\n") + "\n"
}

// RenderError is the degraded document used whenever the cycle cannot produce
// a snapshot. It must still be a valid menu so the host keeps the widget.
func RenderError(message string) string {
	lines := []string{
		NewLine("⚠️ Quota").Color("red").String(),
		separator,
		NewLine("Error: " + message).Color("red").String(),
		separator,
		NewLine("🔄 Retry").Refresh().String(),
	}
	return strings.Join(lines, "\n") + "\n"
}

func renderEmpty(opts Options) string {
	labels := lo.Map(opts.Providers, func(p ProviderDisplay, _ int) string { return p.Label })
	lines := []string{
		NewLine("📊 No accounts").Size(13).String(),
		separator,
		NewLine("No " + strings.Join(labels, " or ") + " accounts found").Color(colorDim).String(),
		separator,
		NewLine("⚙️ Management Center").Href(opts.ManagementURL).String(),
	}
	return strings.Join(lines, "\n") + "\n"
}

func renderTitle(snap quota.Snapshot, opts Options) string {
	summaries := lo.KeyBy(snap.Providers, func(p quota.ProviderSummary) string { return p.Provider })

	var parts []string
	for _, display := range opts.Providers {
		summary, ok := summaries[display.Name]
		if !ok || summary.AccountCount == 0 {
			continue
		}
		parts = append(parts, statusToken(display, summary, snap.Accounts[display.Name]))
	}
	title := "📊 Quota"
	if len(parts) > 0 {
		title = strings.Join(parts, " ")
	}
	return NewLine(title).Size(13).String()
}

func statusToken(display ProviderDisplay, summary quota.ProviderSummary, records []quota.AccountRecord) string {
	icon := display.Icon
	if len(records) > 0 && lo.EveryBy(records, func(r quota.AccountRecord) bool { return r.RateLimited }) {
		icon = "🔴"
	}

	value := "—"
	if summary.AggregatePercent != nil {
		value = fmt.Sprintf("%d%%", *summary.AggregatePercent)
	} else if len(records) > 0 && lo.EveryBy(records, func(r quota.AccountRecord) bool { return r.Err != "" }) {
		value = "⚠️"
	}
	return icon + display.Letter + ":" + value
}

func renderProviderSection(display ProviderDisplay, records []quota.AccountRecord, now time.Time, warnThreshold float64) []string {
	header := fmt.Sprintf("%s %s (%d accounts)", display.Icon, display.Label, len(records))
	lines := []string{NewLine(header).Size(14).Color(colorWhite).String()}

	for _, rec := range records {
		if rec.Err != "" {
			lines = append(lines,
				NewLine(fmt.Sprintf("❌ %s — %s", rec.AccountID, rec.Err)).Nest(1).Font(monoFont).Size(12).String())
			continue
		}

		state := quota.Classify(rec, warnThreshold)
		lines = append(lines,
			NewLine(accountText(rec, state)).Nest(1).Font(monoFont).Size(12).String())

		if len(rec.Details) == 0 {
			lines = append(lines,
				NewLine("No quota data").Nest(2).Font(monoFont).Size(11).Color(colorDim).String())
			continue
		}
		for _, detail := range rec.Details {
			lines = append(lines, renderDetail(detail, now, warnThreshold))
		}
	}
	return lines
}

func accountText(rec quota.AccountRecord, state quota.HealthState) string {
	text := state.Icon() + " " + rec.AccountID
	if rec.PlanType != "" {
		text += " [" + strings.ToUpper(rec.PlanType) + "]"
	}
	return text
}

func renderDetail(detail quota.DetailLine, now time.Time, warnThreshold float64) string {
	if detail.RemainingPercent == nil {
		return NewLine(detail.Label + ": N/A").Nest(2).Font(monoFont).Size(11).Color(colorDim).String()
	}

	pct := *detail.RemainingPercent
	text := fmt.Sprintf("%s: %d%%", detail.Label, pct)
	if reset := formatResetAt(detail.ResetAt, now); reset != "" {
		text += " 🔄" + reset
	}
	return NewLine(text).Nest(2).Font(monoFont).Size(11).Color(percentColor(pct, warnThreshold)).String()
}

func percentColor(pct int, warnThreshold float64) string {
	warnPct := int(warnThreshold * 100)
	switch {
	case pct > 50:
		return colorGreen
	case pct > warnPct:
		return colorOrange
	default:
		return colorRed
	}
}

func formatResetAt(resetAt *time.Time, now time.Time) string {
	if resetAt == nil {
		return ""
	}
	if !resetAt.After(now) {
		return "now"
	}
	t := *resetAt
	return fmt.Sprintf("%d月%d日 %02d:%02d", int(t.Month()), t.Day(), t.Hour(), t.Minute())
}

func renderFooter(fetchedAt time.Time, managementURL string) []string {
	return []string{
		separator,
		NewLine("🕐 Updated: " + fetchedAt.Format("15:04:05")).Size(11).Color(colorDim).String(),
		separator,
		NewLine("🔄 Refresh").Refresh().String(),
		NewLine("⚙️ Management Center").Href(managementURL).Size(12).String(),
	}
}
