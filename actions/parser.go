package actions

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when the model produced nothing to parse.
// A response that is prose without directives is not an error; it simply
// yields zero actions.
var ErrEmptyResponse = errors.New("empty model response")

// envelope is the wire shape the system prompt asks the model for:
// {"tools":[...]} for actions, {"response":"..."} for chat. Items are kept
// raw so one malformed directive doesn't poison its siblings.
type envelope struct {
	Tools    []json.RawMessage `json:"tools"`
	Response string            `json:"response"`
	// Some models flatten a single directive to the top level.
	Action json.RawMessage `json:"action"`
}

// Parse extracts an ordered sequence of actions from one model response.
// It tolerates prose around directives, recovers directives embedded in
// surrounding text, and falls back to markdown conventions when the model
// ignored the JSON contract. Malformed directives are reported as Skipped,
// preserving the well-formed ones.
func Parse(text string) (*Result, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyResponse
	}

	// First try the whole response as a single JSON document.
	if res, ok := parseDocument(trimmed); ok {
		return res, nil
	}

	// Then scan for JSON objects or arrays embedded in prose. Directives are
	// collected in the order the candidates appear in the text.
	res := &Result{}
	for _, candidate := range jsonCandidates(trimmed) {
		if sub, ok := parseDocument(candidate); ok {
			res.Actions = append(res.Actions, sub.Actions...)
			res.Skipped = append(res.Skipped, sub.Skipped...)
			if res.Reply == "" {
				res.Reply = sub.Reply
			}
		}
	}
	if res.HasActions() || len(res.Skipped) > 0 {
		return res, nil
	}

	// No JSON at all: look for the markdown "**filename**" + fenced block
	// convention some models fall into despite the prompt.
	if md := parseMarkdownFiles(trimmed); len(md) > 0 {
		return &Result{Actions: md}, nil
	}

	// Plain prose. Zero actions is a valid outcome.
	return &Result{Reply: trimmed}, nil
}

// parseDocument attempts to interpret one JSON document as a directive
// envelope, a bare directive object, or a bare directive array. The second
// return is false when the text is not valid JSON or carries nothing usable.
func parseDocument(text string) (*Result, bool) {
	dec := json.NewDecoder(strings.NewReader(text))
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}

	switch v.(type) {
	case map[string]interface{}:
		var env envelope
		if err := json.Unmarshal([]byte(text), &env); err != nil {
			return nil, false
		}
		if len(env.Tools) > 0 {
			res := &Result{Reply: env.Response}
			for _, raw := range env.Tools {
				appendDirective(res, raw)
			}
			if res.HasActions() || len(res.Skipped) > 0 {
				return res, true
			}
			return nil, false
		}
		if env.Action != nil {
			// The top-level object itself is a single directive.
			res := &Result{}
			appendDirective(res, json.RawMessage(text))
			return res, res.HasActions() || len(res.Skipped) > 0
		}
		if strings.TrimSpace(env.Response) != "" {
			return &Result{Reply: env.Response}, true
		}
		return nil, false
	case []interface{}:
		var items []json.RawMessage
		if err := json.Unmarshal([]byte(text), &items); err != nil {
			return nil, false
		}
		res := &Result{}
		for _, raw := range items {
			appendDirective(res, raw)
		}
		return res, res.HasActions() || len(res.Skipped) > 0
	default:
		return nil, false
	}
}

// appendDirective validates one raw directive and appends it to the result,
// either as an Action or as a Skipped annotation.
func appendDirective(res *Result, raw json.RawMessage) {
	var a Action
	if err := json.Unmarshal(raw, &a); err != nil {
		res.Skipped = append(res.Skipped, Skipped{Raw: compact(raw), Reason: "not a valid directive object"})
		return
	}
	if reason := validate(a); reason != "" {
		res.Skipped = append(res.Skipped, Skipped{Raw: compact(raw), Reason: reason})
		return
	}
	res.Actions = append(res.Actions, a)
}

// validate returns a human-readable reason when the directive cannot be
// executed, or "" when it is well-formed.
func validate(a Action) string {
	if a.Kind == "" {
		return "missing action name"
	}
	if !knownKinds[a.Kind] {
		return "unsupported action " + string(a.Kind)
	}
	switch a.Kind {
	case KindListDir:
		// list_dir defaults to the sandbox root when path is omitted.
		return ""
	case KindEditFile:
		if a.Path == "" {
			return "edit_file requires a path"
		}
		if a.Content == "" && a.Find == "" {
			return "edit_file requires content or a find/replace patch"
		}
		return ""
	default:
		if a.Path == "" {
			return string(a.Kind) + " requires a path"
		}
		return ""
	}
}

func compact(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}
