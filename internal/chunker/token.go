package chunker

import "strings"

// EstimateTokens gives a rough token count from the word count. Chunk
// boundaries never depend on it; it is reported alongside each chunk so
// callers can see how a character budget maps onto model tokens.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := len(strings.Fields(text))
	// Roughly 1.33 tokens per English word.
	tokens := int(float64(words) * 1.33)
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}
