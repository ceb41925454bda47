// Package chunker splits extracted document text into sentence-aligned chunks.
package chunker

import (
	"strings"
	"unicode"
)

const (
	// MaxChunkRunes is the upper bound of a chunk.
	MaxChunkRunes = 800
	// MinChunkRunes is the smallest chunk worth sending; shorter buffers are noise.
	MinChunkRunes = 120
)

// Chunk is a bounded slice of one artifact's text.
type Chunk struct {
	ArtifactID string `json:"artifactId"`
	Text       string `json:"text"`
}

// Split truncates text to maxChars runes and packs its sentences greedily into
// chunks of at most MaxChunkRunes, keeping at most maxChunks of them.
// A non-positive maxChars means no truncation.
func Split(text, artifactID string, maxChunks, maxChars int) []Chunk {
	if maxChunks <= 0 {
		return nil
	}

	runes := []rune(strings.TrimSpace(text))
	if maxChars > 0 && len(runes) > maxChars {
		runes = runes[:maxChars]
	}
	if len(runes) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, maxChunks)
	var buf []rune

	flush := func() {
		if len(buf) >= MinChunkRunes && len(chunks) < maxChunks {
			chunks = append(chunks, Chunk{ArtifactID: artifactID, Text: string(buf)})
		}
		buf = buf[:0]
	}

	for _, sentence := range sentences(runes) {
		for _, piece := range bound(sentence, MaxChunkRunes) {
			if len(chunks) >= maxChunks {
				return chunks
			}

			size := len(buf) + len(piece)
			if len(buf) > 0 {
				size++
			}
			if size > MaxChunkRunes {
				flush()
			}

			if len(buf) > 0 {
				buf = append(buf, ' ')
			}
			buf = append(buf, piece...)
		}
	}
	flush()

	return chunks
}

// sentences cuts at whitespace preceded by '.', '!' or '?', dropping the whitespace.
func sentences(runes []rune) [][]rune {
	var out [][]rune
	start := 0
	for i := 1; i < len(runes); i++ {
		if !unicode.IsSpace(runes[i]) || !isTerminal(runes[i-1]) {
			continue
		}
		if s := trim(runes[start:i]); len(s) > 0 {
			out = append(out, s)
		}
		for i < len(runes) && unicode.IsSpace(runes[i]) {
			i++
		}
		start = i
	}
	if start < len(runes) {
		if s := trim(runes[start:]); len(s) > 0 {
			out = append(out, s)
		}
	}
	return out
}

// bound splits a sentence longer than limit at the last whitespace before the limit,
// or hard at the limit when there is none.
func bound(sentence []rune, limit int) [][]rune {
	var out [][]rune
	for len(sentence) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if unicode.IsSpace(sentence[i]) {
				cut = i
				break
			}
		}
		out = append(out, trim(sentence[:cut]))
		sentence = trim(sentence[cut:])
	}
	if len(sentence) > 0 {
		out = append(out, sentence)
	}
	return out
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func trim(runes []rune) []rune {
	start, end := 0, len(runes)
	for start < end && unicode.IsSpace(runes[start]) {
		start++
	}
	for end > start && unicode.IsSpace(runes[end-1]) {
		end--
	}
	return runes[start:end]
}

// Config bounds the chunks produced for one artifact.
type Config struct {
	MaxChunks int `mapstructure:"max-chunks"`
	MaxChars  int `mapstructure:"max-chars"`
}

// DefaultResumeConfig is used for the primary document.
func DefaultResumeConfig() Config {
	return Config{MaxChunks: 12, MaxChars: 12000}
}

// DefaultPaperConfig is used for secondary documents.
func DefaultPaperConfig() Config {
	return Config{MaxChunks: 10, MaxChars: 9000}
}

// WithDefaults fills unset limits from def.
func (c Config) WithDefaults(def Config) Config {
	if c.MaxChunks <= 0 {
		c.MaxChunks = def.MaxChunks
	}
	if c.MaxChars <= 0 {
		c.MaxChars = def.MaxChars
	}
	return c
}

// Split applies the configured limits.
func (c Config) Split(text, artifactID string) []Chunk {
	return Split(text, artifactID, c.MaxChunks, c.MaxChars)
}
