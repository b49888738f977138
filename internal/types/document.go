package types

// BlockKind tags a layout block by its likely content
type BlockKind string

// Layout block kinds
const (
	BlockContact    BlockKind = "contact"
	BlockExperience BlockKind = "experience"
	BlockEducation  BlockKind = "education"
	BlockText       BlockKind = "text"
)

// LayoutBlock is a blank-line delimited region of parsed text
type LayoutBlock struct {
	Kind BlockKind `json:"kind"`
	Text string    `json:"text"`
}

// DocumentMetadata describes how a document was parsed
type DocumentMetadata struct {
	Format       string `json:"format"`
	Parser       string `json:"parser"`
	PageCount    int    `json:"page_count"`
	WordCount    int    `json:"word_count"`
	FallbackUsed bool   `json:"fallback_used,omitempty"`
	// SHA256 is the hex digest of the uploaded bytes
	SHA256 string `json:"sha256"`
}

// ParsedDocument is the plain-text rendition of an uploaded document
type ParsedDocument struct {
	RawText      string           `json:"raw_text"`
	LayoutBlocks []LayoutBlock    `json:"layout_blocks"`
	Metadata     DocumentMetadata `json:"metadata"`
}
