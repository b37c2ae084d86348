package textsplit

// Chunk is a single window of the source text. Start/End are rune
// offsets into the original input so callers can verify coverage.
type Chunk struct {
	Content string
	Index   int
	Start   int
	End     int
}

// Config controls window sizing. Sizes are in runes, not bytes.
type Config struct {
	MaxChunkChars int
	OverlapChars  int
}

// DefaultConfig mirrors the ingestion defaults: 1500 chars (approx 375
// tokens) with 200 chars of overlap to preserve context at boundaries.
func DefaultConfig() Config {
	return Config{
		MaxChunkChars: 1500,
		OverlapChars:  200,
	}
}

// Split cuts text into overlapping windows covering the whole input.
// The same input and config always produce the same boundaries, which
// keeps re-ingestion idempotent. Input shorter than MaxChunkChars
// yields exactly one chunk.
func Split(text string, cfg Config) []Chunk {
	if cfg.MaxChunkChars <= 0 {
		cfg = DefaultConfig()
	}

	runes := []rune(text)
	totalLen := len(runes)

	if totalLen <= cfg.MaxChunkChars {
		return []Chunk{{Content: text, Index: 0, Start: 0, End: totalLen}}
	}

	step := cfg.MaxChunkChars - cfg.OverlapChars
	if step <= 0 {
		step = cfg.MaxChunkChars // fallback if overlap >= chunk size
	}

	var chunks []Chunk
	for i := 0; i < totalLen; i += step {
		end := i + cfg.MaxChunkChars
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, Chunk{
			Content: string(runes[i:end]),
			Index:   len(chunks),
			Start:   i,
			End:     end,
		})

		if end == totalLen {
			break
		}
	}

	return chunks
}
