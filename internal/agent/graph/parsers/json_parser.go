package parsers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/poolbot/server/internal/agent/model"
	errx "github.com/poolbot/server/internal/core/error"
	logx "github.com/poolbot/server/pkg/logger"
)

const fence = "```"

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 64 * 1024 // 64KB
	maxErrSnippet = 200       // limit error snippet size
)

// ErrMalformedResponse marks LLM output that cannot be used as structured data.
var ErrMalformedResponse = errors.New("malformed llm response")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}

// StripCodeFence removes a leading ``` marker (with an optional language tag
// such as "json") and a trailing ``` marker.
func StripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if strings.HasPrefix(s, fence) {
		s = s[len(fence):]
		// a language tag runs until the first newline or opening brace
		if end := strings.IndexAny(s, "\n{["); end > 0 {
			tag := strings.TrimSpace(s[:end])
			if tag != "" && !strings.ContainsAny(tag, " \t\"") {
				s = s[end:]
			}
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, fence)
	return strings.TrimSpace(s)
}

func prepare(content string) (string, error) {
	if len(content) > maxContentLen {
		logx.Warn().
			Str("component", "json_parser").
			Int("max_len", maxContentLen).
			Int("orig_len", len(content)).
			Msg("content rejected due to size limit")
		return "", malformed("content too large")
	}
	if !utf8.ValidString(content) {
		return "", malformed("content invalid utf8")
	}
	s := StripCodeFence(content)
	if s == "" {
		return "", malformed("empty content")
	}
	return s, nil
}

// ParsePlannerDecision parses the planning model's JSON answer. Missing intent
// or parameters, an unknown intent key, or invalid JSON yield ErrMalformedResponse.
func ParsePlannerDecision(content string) (decision *model.PlannerDecision, err error) {
	// panic safety
	defer func() {
		if r := recover(); r != nil {
			logx.Error().Str("component", "planner_parser").Msgf("panic recovered: %v", r)
			err = errx.New(fmt.Errorf("planner parser panic"), http.StatusInternalServerError, errx.SystemErrorMessage)
			decision = nil
		}
	}()

	s, err := prepare(content)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return nil, malformed("invalid json: %v (%s)", err, safeSnippet(s))
	}

	rawIntent, ok := raw["intent"]
	if !ok {
		return nil, malformed("missing intent")
	}
	rawParams, ok := raw["parameters"]
	if !ok {
		return nil, malformed("missing parameters")
	}

	var out model.PlannerDecision
	if err := json.Unmarshal(rawIntent, &out.Intent); err != nil {
		return nil, malformed("intent is not a string")
	}
	if _, known := model.ParseIntentKey(out.Intent); !known {
		return nil, malformed("unknown intent %q", out.Intent)
	}
	if err := json.Unmarshal(rawParams, &out.Parameters); err != nil {
		return nil, malformed("parameters is not an object")
	}
	if out.Parameters == nil {
		return nil, malformed("parameters is null")
	}
	if v, ok := raw["api_endpoint"]; ok {
		_ = json.Unmarshal(v, &out.APIEndpoint)
	}
	if v, ok := raw["reasoning"]; ok {
		_ = json.Unmarshal(v, &out.Reasoning)
	}
	return &out, nil
}

// ParseExtraction parses the extractor model's JSON answer and fills the
// search query from brand and model, then from query, when it is blank.
func ParseExtraction(content, query string) (model.Extraction, error) {
	s, err := prepare(content)
	if err != nil {
		return model.Extraction{}, err
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(s), &raw); err != nil {
		return model.Extraction{}, malformed("invalid json: %v (%s)", err, safeSnippet(s))
	}

	out := model.Extraction{
		Brand:       StringValue(raw["brand"]),
		Model:       StringValue(raw["model"]),
		SearchQuery: StringValue(raw["search_query"]),
	}
	if out.SearchQuery == "" {
		out.SearchQuery = JoinNonEmpty(out.Brand, out.Model)
	}
	if out.SearchQuery == "" {
		out.SearchQuery = query
	}
	return out, nil
}

// StringValue renders a decoded JSON value as trimmed text; null becomes "".
func StringValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// JoinNonEmpty joins the non-blank parts with a single space.
func JoinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}

// --- helpers ---

func safeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxErrSnippet {
		return s
	}
	return s[:maxErrSnippet]
}
