package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"salaatflow/internal/core"
	"salaatflow/internal/logging"
)

const slotSystemPrompt = `You extract structured slots from a user utterance for a spiritual-task assistant.
The utterance may be English, Urdu, or Romanized Urdu.

You must output ONLY a JSON object of this exact shape, with no prose:
{
  "slots": [
    {"kind": "<slot kind>", "value": "<string value>", "confidence": 0.0-1.0}
  ]
}

Slot kinds and value formats:
- "title": short task title, e.g. "pray fajr"
- "description": longer free-text detail
- "category": one of Farz, Sunnah, Nafl, Deed, Other
- "masjid_ref": masjid name mentioned, e.g. "masjid al-huda"
- "area": neighborhood or area name
- "due_datetime": "2006-01-02 15:04" 24h local format
- "recurrence_rule": "daily" or "weekly"
- "task_ref": title words or numeric id of an existing task
- "priority": one of Urgent, High, Medium, Low

Only include slots genuinely present in the utterance. Never invent a
datetime, category, or masjid that is not stated.`

// SlotOracle adapts an LLMClient to the extractor's advisory Oracle
// interface. Responses that fail to parse yield an error; the extractor
// treats any oracle error as "no advisory slots".
type SlotOracle struct {
	client LLMClient
}

// NewSlotOracle wraps an LLM client.
func NewSlotOracle(client LLMClient) *SlotOracle {
	return &SlotOracle{client: client}
}

type slotEnvelope struct {
	Slots []struct {
		Kind       string  `json:"kind"`
		Value      string  `json:"value"`
		Confidence float64 `json:"confidence"`
	} `json:"slots"`
}

// ExtractSlots asks the LLM for best-effort slots over the canonical
// text. Unknown kinds and malformed values are dropped rather than
// propagated.
func (o *SlotOracle) ExtractSlots(ctx context.Context, text string, expected []core.SlotKind) ([]core.Slot, error) {
	kinds := make([]string, len(expected))
	for i, k := range expected {
		kinds[i] = string(k)
	}
	prompt := fmt.Sprintf("Expected slot kinds: %s\n\nUtterance: %q", strings.Join(kinds, ", "), text)

	resp, err := o.client.CompleteWithSystem(ctx, slotSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	raw := extractJSON(resp)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in oracle response")
	}
	var envelope slotEnvelope
	if err := json.Unmarshal([]byte(raw), &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse oracle slots: %w", err)
	}

	allowed := make(map[core.SlotKind]bool, len(expected))
	for _, k := range expected {
		allowed[k] = true
	}

	var out []core.Slot
	for _, s := range envelope.Slots {
		kind := core.SlotKind(s.Kind)
		if !allowed[kind] || s.Value == "" {
			continue
		}
		slot := core.Slot{Kind: kind, Value: s.Value, Confidence: clamp01(s.Confidence)}
		switch kind {
		case core.SlotDueDatetime:
			t, err := time.ParseInLocation("2006-01-02 15:04", s.Value, time.Local)
			if err != nil {
				continue
			}
			slot.Time = &t
		case core.SlotRecurrence:
			freq := core.Frequency(strings.ToLower(s.Value))
			if freq != core.FreqDaily && freq != core.FreqWeekly {
				continue
			}
			slot.Rule = &core.RecurrenceRule{Freq: freq}
		case core.SlotCategory:
			if !core.ValidCategory(s.Value) {
				continue
			}
		}
		out = append(out, slot)
	}
	logging.APIDebug("oracle produced %d slots for %q", len(out), text)
	return out, nil
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// extractJSON pulls the first balanced JSON object out of a possibly
// chatty LLM response, respecting string literals and escapes.
func extractJSON(resp string) string {
	start := strings.Index(resp, "{")
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(resp); i++ {
		ch := resp[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return resp[start : i+1]
				}
			}
		}
	}
	return ""
}
