package ingest

import "strings"

// ChunkText splits text into overlapping windows of whitespace tokens.
// Each chunk holds chunkSize tokens and consecutive chunks share overlap
// tokens. An overlap at or above the chunk size is corrected down to
// half the chunk size so the window always advances.
func ChunkText(text string, chunkSize, overlap int) []string {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 1
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 2
	}
	step := chunkSize - overlap
	if step < 1 {
		step = 1
	}

	var chunks []string
	for i := 0; i < len(tokens); i += step {
		end := i + chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, strings.Join(tokens[i:end], " "))
	}
	return chunks
}
