package extract

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Status tells whether the model reply could be decoded.
type Status string

const (
	StatusDecoded      Status = "decoded"
	StatusDecodeFailed Status = "decode_failed"
)

// Result is the outcome of decoding one model reply. Exactly one of Record
// (StatusDecoded) or Raw plus Error (StatusDecodeFailed) is set.
type Result struct {
	Status Status  `json:"status"`
	Record *Record `json:"record,omitempty"`
	Raw    string  `json:"raw,omitempty"`
	Error  string  `json:"error,omitempty"`
}

// OK reports whether the reply decoded into a record.
func (r Result) OK() bool {
	return r.Status == StatusDecoded && r.Record != nil
}

// Failed builds a decode failure that keeps the raw reply.
func Failed(raw string, err error) Result {
	return Result{Status: StatusDecodeFailed, Raw: raw, Error: err.Error()}
}

// Decoded wraps a record that is already normalized.
func Decoded(rec Record) Result {
	return Result{Status: StatusDecoded, Record: &rec}
}

// Clone returns a copy whose Record, if any, is not shared with r.
func (r Result) Clone() Result {
	if r.Record != nil {
		rec := r.Record.Clone()
		r.Record = &rec
	}
	return r
}

// Decode parses a model reply into a normalized Record. Markdown fences are
// stripped; if the reply still is not a JSON object, the outermost {...}
// span is tried before giving up.
func Decode(raw string) Result {
	text := stripCodeBlock(raw)
	rec, err := decodeObject(text)
	if err != nil {
		if obj := outermostObject(raw); obj != "" && obj != text {
			if fallback, ferr := decodeObject(obj); ferr == nil {
				rec, err = fallback, nil
			}
		}
	}
	if err != nil {
		return Failed(raw, err)
	}
	NormalizeRecord(&rec)
	return Decoded(rec)
}

var errNotObject = errors.New("reply is not a JSON object")

func decodeObject(text string) (Record, error) {
	var rec Record
	text = strings.TrimSpace(text)
	if text == "" {
		return rec, errors.New("empty reply")
	}
	if text[0] != '{' {
		return rec, errNotObject
	}
	if err := json.Unmarshal([]byte(text), &rec); err != nil {
		return rec, fmt.Errorf("parse record json: %w", err)
	}
	return rec, nil
}

var codeBlockRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")

// stripCodeBlock returns the body of the first fenced block, or s trimmed.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func outermostObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
