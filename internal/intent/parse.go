package intent

import (
	"encoding/json"
	"strings"

	"github.com/tmoura/safepilot/internal/models"
)

// ParseAction decodes the model's reply into a typed action. The model is not
// a guaranteed-schema system, so anything that is not valid JSON with a known
// action tag becomes a plain reply carrying the text unchanged (minus any
// code fence).
func ParseAction(raw string) *models.ClassifiedAction {
	text := StripCodeFences(raw)

	var action models.ClassifiedAction
	if err := json.Unmarshal([]byte(text), &action); err != nil {
		return &models.ClassifiedAction{Action: models.ActionReply, Content: text}
	}

	switch action.Action {
	case models.ActionNewsSearch, models.ActionHistoricalData, models.ActionTransfer:
		return &action
	case models.ActionReply:
		if action.Content == "" {
			action.Content = text
		}
		return &action
	default:
		return &models.ClassifiedAction{Action: models.ActionReply, Content: text}
	}
}

// StripCodeFences removes a surrounding markdown code fence, with or without
// a language marker, leaving other text untouched.
func StripCodeFences(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if i := strings.IndexByte(t, '\n'); i >= 0 {
		t = t[i+1:]
	} else {
		t = strings.TrimPrefix(t, "json")
	}
	t = strings.TrimSpace(t)
	t = strings.TrimSuffix(t, "```")
	return strings.TrimSpace(t)
}
