package openai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/techmart/store-assistant/internal/core/ports"
)

type chatStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// CompleteStream consumes the server-sent chat-completions stream, forwarding
// each content delta through emit and returning the accumulated text.
// The call is issued exactly once: tokens already handed to emit cannot be
// retried, so the resilience executor does not wrap it.
func (c *Client) CompleteStream(ctx context.Context, systemPrompt, userPrompt string, opts ports.GenerationOptions, emit func(token string) error) (string, error) {
	resp, err := c.post(ctx, "/v1/chat/completions", c.chatRequestBody(systemPrompt, userPrompt, opts, true), "chat stream")
	if err != nil {
		return "", wrapTemporaryIfNeeded("chat stream", err)
	}
	defer resp.Body.Close()

	var full strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			return full.String(), nil
		}

		var chunk chatStreamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return "", fmt.Errorf("decode stream chunk: %w", err)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			full.WriteString(content)
			if err := emit(content); err != nil {
				return "", err
			}
		}
		if chunk.Choices[0].FinishReason != nil {
			return full.String(), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", wrapTemporaryIfNeeded("chat stream", fmt.Errorf("read stream: %w", err))
	}
	return "", fmt.Errorf("stream ended without completion marker")
}
