package quota

import (
	"bytes"
	"encoding/json"
	"strings"
)

// flexString tolerates management servers that encode auth_index as either a
// JSON string or a number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*f = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type authFilesResponseRaw struct {
	Files []authFileRaw `json:"files"`
}

type authFileRaw struct {
	Name          string      `json:"name"`
	Provider      string      `json:"provider"`
	AuthIndex     flexString  `json:"auth_index"`
	AuthIndexAlt  flexString  `json:"authIndex"`
	Email         string      `json:"email"`
	Status        string      `json:"status"`
	StatusMessage string      `json:"status_message"`
	Disabled      bool        `json:"disabled"`
	Unavailable   bool        `json:"unavailable"`
	Label         string      `json:"label"`
	AccountType   string      `json:"account_type"`
	ProjectID     string      `json:"project_id"`
	IDToken       *idTokenRaw `json:"id_token"`
}

type idTokenRaw struct {
	ChatGPTAccountID string `json:"chatgpt_account_id"`
	PlanType         string `json:"plan_type"`
}

type apiCallResultRaw struct {
	StatusCode int             `json:"status_code"`
	Header     map[string]any  `json:"header"`
	Body       json.RawMessage `json:"body"`
}

// decodeProxyBody unwraps an api-call body, which arrives either as a JSON
// value or as a JSON string containing the upstream body.
func decodeProxyBody(body json.RawMessage, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return err
		}
		return json.Unmarshal([]byte(inner), out)
	}
	return json.Unmarshal(trimmed, out)
}

type codexUsageRaw struct {
	PlanType  string             `json:"plan_type"`
	RateLimit *codexRateLimitRaw `json:"rate_limit"`
}

type codexRateLimitRaw struct {
	LimitReached    bool            `json:"limit_reached"`
	PrimaryWindow   *codexWindowRaw `json:"primary_window"`
	SecondaryWindow *codexWindowRaw `json:"secondary_window"`
}

type codexWindowRaw struct {
	UsedPercent       *int `json:"used_percent"`
	ResetAfterSeconds *int `json:"reset_after_seconds"`
}

type antigravityModelsRaw struct {
	Models map[string]antigravityModelRaw `json:"models"`
}

type antigravityModelRaw struct {
	QuotaInfo *antigravityQuotaInfoRaw `json:"quotaInfo"`
	// Flattened fallbacks for servers that skip the quotaInfo nesting.
	RemainingFraction    *float64 `json:"remainingFraction"`
	RemainingFractionAlt *float64 `json:"remaining_fraction"`
	ResetTime            string   `json:"resetTime"`
	ResetTimeAlt         string   `json:"reset_time"`
}

type antigravityQuotaInfoRaw struct {
	RemainingFraction    *float64 `json:"remainingFraction"`
	RemainingFractionAlt *float64 `json:"remaining_fraction"`
	ResetTime            string   `json:"resetTime"`
	ResetTimeAlt         string   `json:"reset_time"`
}

func (m antigravityModelRaw) remaining() *float64 {
	if m.QuotaInfo != nil {
		if m.QuotaInfo.RemainingFraction != nil {
			return m.QuotaInfo.RemainingFraction
		}
		if m.QuotaInfo.RemainingFractionAlt != nil {
			return m.QuotaInfo.RemainingFractionAlt
		}
	}
	if m.RemainingFraction != nil {
		return m.RemainingFraction
	}
	return m.RemainingFractionAlt
}

func (m antigravityModelRaw) resetTime() string {
	if m.QuotaInfo != nil {
		if m.QuotaInfo.ResetTime != "" {
			return m.QuotaInfo.ResetTime
		}
		if m.QuotaInfo.ResetTimeAlt != "" {
			return m.QuotaInfo.ResetTimeAlt
		}
	}
	if m.ResetTime != "" {
		return m.ResetTime
	}
	return m.ResetTimeAlt
}
