package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeMode reports which path produced a decoded response.
type DecodeMode int

const (
	// DecodeJSON means the body parsed as a single JSON document.
	DecodeJSON DecodeMode = iota
	// DecodeSSE means the body was an event-stream and the payload was
	// recovered from its data lines.
	DecodeSSE
	// DecodeUnparseable means neither path yielded a response envelope.
	DecodeUnparseable
)

// String returns the mode name for logging.
func (m DecodeMode) String() string {
	switch m {
	case DecodeJSON:
		return "json"
	case DecodeSSE:
		return "sse"
	default:
		return "unparseable"
	}
}

// dataMarker prefixes SSE payload lines. Other framing lines (event:,
// id:, retry:, comments) are ignored.
const dataMarker = "data:"

// DecodeBody parses a raw response body in either representation.
//
// The fast path is a strict parse as a single JSON document, the common
// case when the server buffers the response. When that fails the body is
// treated as an event-stream and the embedded JSON payload is recovered
// from its data lines. The returned mode says which path won; on error
// it is DecodeUnparseable.
func DecodeBody(raw string) (*Response, DecodeMode, error) {
	var resp Response
	if err := json.Unmarshal([]byte(raw), &resp); err == nil {
		return &resp, DecodeJSON, nil
	}

	payload, err := streamPayload(raw)
	if err != nil {
		return nil, DecodeUnparseable, err
	}

	if err := json.Unmarshal([]byte(payload), &resp); err != nil {
		// The best-effort payload did not form an envelope either.
		// Surface it as a parse failure rather than swallowing it.
		return nil, DecodeUnparseable, fmt.Errorf("parse event-stream payload: %w", err)
	}

	return &resp, DecodeSSE, nil
}

// streamPayload recovers the JSON payload from an event-stream body.
//
// Every line beginning with "data:" (marker and one following space
// stripped) is a candidate, in stream order. Candidates are scanned from
// last to first and the first syntactically valid JSON one wins; later
// events supersede earlier partial events, so the last parseable
// candidate is the final result even when trailing noise follows it. If
// no candidate parses, all candidates are concatenated in original order
// as a best-effort payload for the caller to reject.
func streamPayload(raw string) (string, error) {
	var candidates []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if !strings.HasPrefix(line, dataMarker) {
			continue
		}
		payload := strings.TrimPrefix(line, dataMarker)
		payload = strings.TrimPrefix(payload, " ")
		candidates = append(candidates, payload)
	}

	if len(candidates) == 0 {
		return "", ErrNoData
	}

	for i := len(candidates) - 1; i >= 0; i-- {
		if json.Valid([]byte(candidates[i])) {
			return candidates[i], nil
		}
	}

	return strings.Join(candidates, ""), nil
}
