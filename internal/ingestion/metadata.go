package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/jonathan/candidate-intel/internal/types"
)

// newMetadata describes a successful parse
func newMetadata(format, parser string, data []byte, text string, pages int, fallback bool) types.DocumentMetadata {
	if pages < 1 {
		pages = 1
	}
	return types.DocumentMetadata{
		Format:       format,
		Parser:       parser,
		PageCount:    pages,
		WordCount:    len(strings.Fields(text)),
		FallbackUsed: fallback,
		SHA256:       computeHash(data),
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
