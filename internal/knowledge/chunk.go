// Package knowledge holds the offline-built knowledge base consumed by
// semantic retrieval: a flat vector index plus a parallel metadata array.
package knowledge

import (
	"encoding/json"
	"fmt"
	"os"
)

// Chunk is one knowledge-base entry. Chunks are produced offline and stored
// at the ordinal position matching their vector in the index; position i in
// the index and position i in the metadata array always refer to the same
// logical chunk.
type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// LoadChunks reads the metadata array from a JSON file.
func LoadChunks(path string) ([]Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("knowledge: read metadata: %w", err)
	}
	var chunks []Chunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("knowledge: decode metadata: %w", err)
	}
	return chunks, nil
}

// SaveChunks writes the metadata array as JSON.
func SaveChunks(path string, chunks []Chunk) error {
	data, err := json.MarshalIndent(chunks, "", "  ")
	if err != nil {
		return fmt.Errorf("knowledge: encode metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("knowledge: write metadata: %w", err)
	}
	return nil
}
