package proxy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseUsage_OpenAIJSON(t *testing.T) {
	body := `{
  "id": "chatcmpl-1",
  "model": "gpt-4o-2024-08-06",
  "choices": [{"message": {"role": "assistant", "content": "hi"}}],
  "usage": {"prompt_tokens": 12, "completion_tokens": 3, "total_tokens": 15}
}`
	u, model := ParseUsage("application/json", []byte(body))

	assert.True(t, u.Found)
	assert.Equal(t, Usage{InputTokens: 12, OutputTokens: 3, TotalTokens: 15, Found: true}, u)
	assert.Equal(t, "gpt-4o-2024-08-06", model)
}

func TestParseUsage_AnthropicJSON(t *testing.T) {
	body := `{"type":"message","model":"claude-3-5-sonnet","usage":{"input_tokens":40,"output_tokens":9}}`
	u, _ := ParseUsage("application/json", []byte(body))

	assert.Equal(t, int64(40), u.InputTokens)
	assert.Equal(t, int64(9), u.OutputTokens)
	assert.Zero(t, u.TotalTokens)
}

func TestParseUsage_OpenAIStream(t *testing.T) {
	body := strings.Join([]string{
		`data: {"model":"llama3","choices":[{"delta":{"content":"he"}}],"usage":null}`,
		``,
		`data: {"model":"llama3","choices":[{"delta":{"content":"llo"}}],"usage":null}`,
		``,
		`data: {"model":"llama3","choices":[],"usage":{"prompt_tokens":7,"completion_tokens":2,"total_tokens":9}}`,
		``,
		`data: [DONE]`,
		``,
	}, "\n")
	u, model := ParseUsage("text/event-stream; charset=utf-8", []byte(body))

	assert.Equal(t, Usage{InputTokens: 7, OutputTokens: 2, TotalTokens: 9, Found: true}, u)
	assert.Equal(t, "llama3", model)
}

func TestParseUsage_AnthropicStream(t *testing.T) {
	body := strings.Join([]string{
		`event: message_start`,
		`data: {"type":"message_start","message":{"model":"claude-3","usage":{"input_tokens":25,"output_tokens":1}}}`,
		``,
		`event: content_block_delta`,
		`data: {"type":"content_block_delta","delta":{"text":"Hi"}}`,
		``,
		`event: message_delta`,
		`data: {"type":"message_delta","usage":{"output_tokens":15}}`,
		``,
	}, "\n")
	u, model := ParseUsage("text/event-stream", []byte(body))

	assert.Equal(t, int64(25), u.InputTokens)
	assert.Equal(t, int64(15), u.OutputTokens)
	assert.Equal(t, "claude-3", model)
}

func TestParseUsage_OllamaNDJSON(t *testing.T) {
	body := `{"model":"llama3","message":{"content":"a"},"done":false}
{"model":"llama3","message":{"content":"b"},"done":false}
{"model":"llama3","done":true,"prompt_eval_count":26,"eval_count":290}`
	u, _ := ParseUsage("application/x-ndjson", []byte(body))

	assert.Equal(t, int64(26), u.InputTokens)
	assert.Equal(t, int64(290), u.OutputTokens)
}

func TestParseUsage_NoUsage(t *testing.T) {
	u, _ := ParseUsage("application/json", []byte(`{"error":{"message":"bad"}}`))
	assert.False(t, u.Found)

	u, _ = ParseUsage("application/json", []byte(`not json`))
	assert.False(t, u.Found)
}

func TestMeter_StreamSplitAcrossWrites(t *testing.T) {
	m := newMeter("text/event-stream")
	chunk := `data: {"usage":{"prompt_tokens":3,"completion_tokens":4,"total_tokens":7}}` + "\n\n"

	for i := 0; i < len(chunk); i += 5 {
		end := min(i+5, len(chunk))
		_, _ = m.Write([]byte(chunk[i:end]))
	}
	u, _ := m.finish()

	assert.Equal(t, int64(7), u.TotalTokens)
}

func TestMeter_OverflowSkipsBody(t *testing.T) {
	m := newMeter("application/json")
	_, _ = m.Write([]byte(`{"usage":{"prompt_tokens":1},"pad":"`))
	_, _ = m.Write(make([]byte, maxBufferedBody))
	_, _ = m.Write([]byte(`"}`))
	u, _ := m.finish()

	assert.False(t, u.Found)
}
