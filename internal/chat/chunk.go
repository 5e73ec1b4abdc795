package chat

import "strings"

const (
	// MessageLimit is the longest reply sent as a single message.
	MessageLimit = 2000
	// ChunkSize bounds each piece of a split reply.
	ChunkSize = 1900
)

// Chunk splits text longer than limit into pieces of at most size runes,
// breaking on the last newline of a window when one falls in its second half.
func Chunk(text string, limit, size int) []string {
	runes := []rune(text)
	if len(runes) <= limit || size <= 0 {
		return []string{text}
	}

	chunks := make([]string, 0, len(runes)/size+1)
	for len(runes) > 0 {
		if len(runes) <= size {
			chunks = append(chunks, string(runes))
			break
		}

		cut := size
		window := string(runes[:size])
		if idx := strings.LastIndex(window, "\n"); idx >= 0 {
			if at := len([]rune(window[:idx])); at >= size/2 {
				cut = at + 1
			}
		}

		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}

// Split applies the default message limits.
func Split(text string) []string {
	return Chunk(text, MessageLimit, ChunkSize)
}
