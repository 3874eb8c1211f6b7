package chunker

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Config controls chunking behavior. Sizes are measured in characters (runes).
type Config struct {
	ChunkSize    int `json:"chunk_size"` // Maximum chunk length in characters.
	ChunkOverlap int `json:"overlap"`    // Maximum overlap between consecutive chunks in characters.
}

// DefaultConfig returns the sizes used for résumé extraction.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1000,
		ChunkOverlap: 100,
	}
}

// ErrInvalidConfig is wrapped by every ConfigurationError.
var ErrInvalidConfig = errors.New("invalid chunk configuration")

// ConfigurationError reports an unusable size/overlap pair. The caller has to
// fix its configuration; retrying with the same values fails the same way.
type ConfigurationError struct {
	ChunkSize    int
	ChunkOverlap int
	Reason       string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("chunker: %s (chunk_size=%d, overlap=%d)", e.Reason, e.ChunkSize, e.ChunkOverlap)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfig
}

// Validate checks that ChunkSize > 0 and 0 <= ChunkOverlap < ChunkSize.
func (c Config) Validate() error {
	var reason string
	switch {
	case c.ChunkSize <= 0:
		reason = "chunk size must be positive"
	case c.ChunkOverlap < 0:
		reason = "overlap must not be negative"
	case c.ChunkOverlap >= c.ChunkSize:
		reason = "overlap must be smaller than chunk size"
	default:
		return nil
	}
	return &ConfigurationError{ChunkSize: c.ChunkSize, ChunkOverlap: c.ChunkOverlap, Reason: reason}
}

// Chunk is a contiguous piece of the source text. Start and End are
// character offsets into the source, End exclusive.
type Chunk struct {
	Index  int    `json:"index"`
	Text   string `json:"text"`
	Start  int    `json:"start"`
	End    int    `json:"end"`
	Tokens int    `json:"tokens_estimate"`
}

// Len returns the chunk length in characters.
func (c Chunk) Len() int {
	return c.End - c.Start
}

// Split breaks text into chunks of at most maxSize characters, each sharing
// up to overlap characters with its predecessor.
func Split(text string, maxSize, overlap int) ([]string, error) {
	chunks, err := SplitChunks(text, Config{ChunkSize: maxSize, ChunkOverlap: overlap})
	if err != nil {
		return nil, err
	}
	out := make([]string, len(chunks))
	for i, c := range chunks {
		out[i] = c.Text
	}
	return out, nil
}

// SplitChunks is Split with offsets. Empty text yields no chunks; text that
// fits in one window yields a single chunk equal to the text.
func SplitChunks(text string, cfg Config) ([]Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src := index(text)
	n := src.len()
	chunks := make([]Chunk, 0, n/cfg.ChunkSize+1)

	start := 0
	for start < n {
		end, hard := n, false
		if n-start > cfg.ChunkSize {
			end, hard = breakPoint(src.runes, start, cfg)
		}

		part := src.slice(start, end)
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Text:   part,
			Start:  start,
			End:    end,
			Tokens: EstimateTokens(part),
		})
		if end == n {
			break
		}
		start = nextStart(src.runes, end, cfg.ChunkOverlap, hard)
	}

	return chunks, nil
}

// Rejoin reverses SplitChunks by dropping the overlapping prefix of every
// chunk after the first.
func Rejoin(chunks []Chunk) string {
	var sb strings.Builder
	prevEnd := 0
	for i, c := range chunks {
		text := c.Text
		if i > 0 && c.Start < prevEnd {
			text = dropRunes(text, prevEnd-c.Start)
		}
		sb.WriteString(text)
		prevEnd = c.End
	}
	return sb.String()
}

// source maps character offsets to byte offsets so chunks are cut from the
// original string. Invalid UTF-8 bytes count as one character each.
type source struct {
	text   string
	runes  []rune
	byteAt []int // byteAt[i] is the byte offset of character i; the last entry is len(text).
}

func index(text string) source {
	s := source{
		text:   text,
		runes:  make([]rune, 0, len(text)),
		byteAt: make([]int, 0, len(text)+1),
	}
	for i := 0; i < len(text); {
		r, w := utf8.DecodeRuneInString(text[i:])
		s.runes = append(s.runes, r)
		s.byteAt = append(s.byteAt, i)
		i += w
	}
	s.byteAt = append(s.byteAt, len(text))
	return s
}

func (s source) len() int {
	return len(s.runes)
}

func (s source) slice(start, end int) string {
	return s.text[s.byteAt[start]:s.byteAt[end]]
}

// breakPoint picks the end of the chunk starting at start. The result lies in
// (start+overlap, start+size]; hard reports a raw character cut.
func breakPoint(rs []rune, start int, cfg Config) (int, bool) {
	limit := start + cfg.ChunkSize
	floor := start + cfg.ChunkOverlap
	half := start + cfg.ChunkSize/2
	if half < floor {
		half = floor
	}

	for _, isBreak := range []func([]rune, int) bool{paragraphBreak, lineBreak, sentenceBreak} {
		if end, ok := lastBreak(rs, half, limit, isBreak); ok {
			return end, false
		}
	}
	if end, ok := lastBreak(rs, floor, limit, wordBreak); ok {
		return end, false
	}
	return limit, true
}

// lastBreak returns the largest end in (lo, hi] where isBreak holds.
func lastBreak(rs []rune, lo, hi int, isBreak func([]rune, int) bool) (int, bool) {
	for end := hi; end > lo; end-- {
		if isBreak(rs, end) {
			return end, true
		}
	}
	return 0, false
}

// Break predicates look at the characters just before end; the separator
// stays with the chunk it closes.

func paragraphBreak(rs []rune, end int) bool {
	if end < 2 || rs[end-1] != '\n' {
		return false
	}
	if rs[end-2] == '\n' {
		return true
	}
	return end >= 3 && rs[end-2] == '\r' && rs[end-3] == '\n'
}

func lineBreak(rs []rune, end int) bool {
	return end >= 1 && rs[end-1] == '\n'
}

func sentenceBreak(rs []rune, end int) bool {
	if end < 2 || !unicode.IsSpace(rs[end-1]) {
		return false
	}
	switch rs[end-2] {
	case '.', '!', '?':
		return true
	}
	return false
}

func wordBreak(rs []rune, end int) bool {
	return end >= 1 && unicode.IsSpace(rs[end-1])
}

// nextStart places the start of the following chunk. After a hard cut the
// overlap is exactly overlap characters. After a natural break it snaps
// forward to the first word start inside the overlap window, or to end when
// the window holds no word start.
func nextStart(rs []rune, end, overlap int, hard bool) int {
	from := end - overlap
	if hard {
		return from
	}
	for p := from; p < end; p++ {
		if isWordStart(rs, p) {
			return p
		}
	}
	return end
}

func isWordStart(rs []rune, p int) bool {
	if unicode.IsSpace(rs[p]) {
		return false
	}
	return p == 0 || unicode.IsSpace(rs[p-1])
}

func dropRunes(s string, n int) string {
	i := 0
	for ; n > 0 && i < len(s); n-- {
		_, w := utf8.DecodeRuneInString(s[i:])
		i += w
	}
	return s[i:]
}
