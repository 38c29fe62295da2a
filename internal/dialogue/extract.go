package dialogue

import (
	"encoding/json"
	"strconv"
	"strings"
)

// CallSummary is the structured record the agent emits at the end of a call,
// plus the timing fields the orchestrator merges in before persisting.
type CallSummary struct {
	AgentName           string  `json:"agent_name"`
	ClientName          string  `json:"client_name"`
	TransactionID       string  `json:"transaction_id"`
	ProblemDescription  string  `json:"problem_description"`
	UserRating          string  `json:"user_rating"`
	EndCall             bool    `json:"end_call"`
	SessionID           string  `json:"session_id,omitempty"`
	CallStartTime       string  `json:"call_start_time,omitempty"`
	CallEndTime         string  `json:"call_end_time,omitempty"`
	CallDurationSeconds float64 `json:"call_duration_seconds,omitempty"`
}

// ExtractPayload splits a generated reply into its spoken text and an
// optional embedded structured record. The generation upstream is not
// schema-constrained, so recovery is lenient: any malformed candidate
// degrades to "the whole reply is spoken text", never to an error.
//
// The scan takes the substring from the first '{' through the last '}'. If
// either brace is missing, or the closing brace precedes the opening one,
// the reply carries no payload. If the candidate fails to parse, the split
// is discarded and the entire original reply (braces included) is returned
// as spoken text.
func ExtractPayload(reply string) (string, *CallSummary) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < 0 || end < start {
		return reply, nil
	}

	candidate := strings.TrimSpace(reply[start : end+1])
	prefix := strings.TrimSpace(reply[:start])

	var raw map[string]any
	if err := json.Unmarshal([]byte(candidate), &raw); err != nil {
		return reply, nil
	}

	summary := &CallSummary{
		AgentName:          asString(raw["agent_name"]),
		ClientName:         asString(raw["client_name"]),
		TransactionID:      asString(raw["transaction_id"]),
		ProblemDescription: asString(raw["problem_description"]),
		UserRating:         asString(raw["user_rating"]),
		EndCall:            asBool(raw["end_call"]),
	}
	return prefix, summary
}

// asString tolerates models emitting numbers where the script asks for
// strings (ratings in particular).
func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

func asBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}
