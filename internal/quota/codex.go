package quota

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	codexProvider  = "codex"
	codexUsageURL  = "https://chatgpt.com/backend-api/wham/usage"
	codexUserAgent = "codex_cli_rs/0.76.0 (Debian 13.0.0; x86_64) WindowsTerminal"
)

// CodexAdapter probes ChatGPT subscription usage through the api-call proxy.
type CodexAdapter struct{}

func (a *CodexAdapter) Provider() string {
	return codexProvider
}

func (a *CodexAdapter) Probe(ctx context.Context, client *Client, file AuthFile, now time.Time) AccountRecord {
	rec := baseRecord(file)

	if file.AuthIndex == "" {
		rec.Err = "missing auth_index"
		return rec
	}
	if file.ChatGPTAccountID == "" {
		rec.Err = "missing chatgpt_account_id"
		return rec
	}

	res, err := client.APICall(ctx, APICallRequest{
		AuthIndex: file.AuthIndex,
		Method:    http.MethodGet,
		URL:       codexUsageURL,
		Header: map[string]string{
			"Authorization":      "Bearer $TOKEN$",
			"Content-Type":       "application/json",
			"User-Agent":         codexUserAgent,
			"Chatgpt-Account-Id": file.ChatGPTAccountID,
		},
	})
	if err != nil {
		rec.Err = err.Error()
		return rec
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		rec.Err = fmt.Sprintf("HTTP %d", res.StatusCode)
		return rec
	}

	var usage codexUsageRaw
	if err := res.DecodeBody(&usage); err != nil {
		rec.Err = err.Error()
		return rec
	}
	if v := strings.TrimSpace(usage.PlanType); v != "" {
		rec.PlanType = v
	}
	if usage.RateLimit == nil {
		rec.Err = "response missing rate_limit"
		return rec
	}

	rec.RateLimited = usage.RateLimit.LimitReached
	if win := usage.RateLimit.PrimaryWindow; win != nil && win.UsedPercent != nil {
		frac := clampFraction(float64(100-*win.UsedPercent) / 100)
		rec.RemainingFraction = &frac
		rec.Details = append(rec.Details, windowDetail("5h window", win, now))
	}
	if win := usage.RateLimit.SecondaryWindow; win != nil && win.UsedPercent != nil {
		rec.Details = append(rec.Details, windowDetail("Weekly", win, now))
	}
	return rec
}

func windowDetail(label string, win *codexWindowRaw, now time.Time) DetailLine {
	remaining := 100 - *win.UsedPercent
	out := DetailLine{Label: label, RemainingPercent: &remaining}
	if win.ResetAfterSeconds != nil && *win.ResetAfterSeconds > 0 {
		reset := now.Add(time.Duration(*win.ResetAfterSeconds) * time.Second)
		out.ResetAt = &reset
	}
	return out
}
