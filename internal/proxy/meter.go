package proxy

import (
	"bytes"
	"strings"

	"github.com/tidwall/gjson"
)

// maxBufferedBody caps how much of a non-streaming response is kept for
// usage extraction.
const maxBufferedBody = 8 << 20

// Usage is the token usage reported by an upstream response.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	Found        bool
}

var (
	inputPaths = []string{
		"usage.prompt_tokens",
		"usage.input_tokens",
		"message.usage.input_tokens",
		"prompt_eval_count",
		"usageMetadata.promptTokenCount",
	}
	outputPaths = []string{
		"usage.completion_tokens",
		"usage.output_tokens",
		"message.usage.output_tokens",
		"eval_count",
		"usageMetadata.candidatesTokenCount",
	}
	totalPaths = []string{
		"usage.total_tokens",
		"usageMetadata.totalTokenCount",
	}
)

// merge overwrites every field res reports. Streams report usage
// cumulatively, so the last chunk carrying a field wins.
func (u *Usage) merge(res gjson.Result) {
	set := func(dst *int64, paths []string) {
		for _, p := range paths {
			if v := res.Get(p); v.Exists() && v.Type == gjson.Number {
				*dst = v.Int()
				u.Found = true
				return
			}
		}
	}
	set(&u.InputTokens, inputPaths)
	set(&u.OutputTokens, outputPaths)
	set(&u.TotalTokens, totalPaths)
}

// meter watches a response body as it is copied to the client and extracts
// usage from it. Streams (SSE or NDJSON) are inspected line by line; any
// other body is buffered and inspected as one JSON document.
type meter struct {
	body     bytes.Buffer
	pending  []byte
	model    string
	usage    Usage
	stream   bool
	overflow bool
}

func newMeter(contentType string) *meter {
	return &meter{stream: isStream(contentType)}
}

func isStream(contentType string) bool {
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/event-stream") ||
		strings.Contains(ct, "ndjson") ||
		strings.Contains(ct, "jsonl")
}

func (m *meter) Write(p []byte) (int, error) {
	if !m.stream {
		if m.body.Len()+len(p) > maxBufferedBody {
			m.overflow = true
			m.body.Reset()
		}
		if !m.overflow {
			m.body.Write(p)
		}
		return len(p), nil
	}

	m.pending = append(m.pending, p...)
	for {
		i := bytes.IndexByte(m.pending, '\n')
		if i < 0 {
			break
		}
		m.line(m.pending[:i])
		m.pending = m.pending[i+1:]
	}
	if len(m.pending) > maxBufferedBody {
		m.pending = nil
	}
	return len(p), nil
}

// finish flushes what is left and returns the usage found.
func (m *meter) finish() (Usage, string) {
	if m.stream {
		if len(m.pending) > 0 {
			m.line(m.pending)
			m.pending = nil
		}
	} else if !m.overflow {
		m.observe(m.body.Bytes())
	}
	return m.usage, m.model
}

func (m *meter) line(b []byte) {
	b = bytes.TrimSpace(b)
	if data, ok := bytes.CutPrefix(b, []byte("data:")); ok {
		b = bytes.TrimSpace(data)
	}
	if len(b) == 0 || b[0] != '{' {
		return
	}
	m.observe(b)
}

func (m *meter) observe(b []byte) {
	if !gjson.ValidBytes(b) {
		return
	}
	res := gjson.ParseBytes(b)
	m.usage.merge(res)
	if model := res.Get("model").String(); model != "" {
		m.model = model
	} else if model := res.Get("message.model").String(); model != "" {
		m.model = model
	}
}

// ParseUsage extracts usage and the reported model from a complete response
// body.
func ParseUsage(contentType string, body []byte) (Usage, string) {
	m := newMeter(contentType)
	_, _ = m.Write(body)
	return m.finish()
}
