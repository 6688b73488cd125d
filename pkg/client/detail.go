package client

import (
	"bytes"
	"encoding/json"
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

const maxDetailLength = 512

var (
	detailPolicyOnce sync.Once
	detailPolicy     *bluemonday.Policy
)

// ExtractDetail pulls the user-facing message out of an error body. It
// understands {"detail": "..."}, FastAPI validation arrays
// ({"detail": [{"msg": "..."}]}) and {"message": "..."}; anything else that is
// not JSON is used verbatim. The result is reduced to plain text.
func ExtractDetail(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}

	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		if json.Valid(trimmed) {
			return ""
		}
		return sanitize(string(trimmed))
	}

	if msg := detailText(envelope.Detail); msg != "" {
		return sanitize(msg)
	}
	return sanitize(envelope.Message)
}

func detailText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, item := range items {
			if m := strings.TrimSpace(item.Msg); m != "" {
				msgs = append(msgs, m)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}

func sanitize(raw string) string {
	detailPolicyOnce.Do(func() {
		detailPolicy = bluemonday.StrictPolicy()
	})
	cleaned := html.UnescapeString(detailPolicy.Sanitize(raw))
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if runes := []rune(cleaned); len(runes) > maxDetailLength {
		cleaned = string(runes[:maxDetailLength])
	}
	return cleaned
}
