package types

// EntityType names a primitive entity kind recognized in document text
type EntityType string

// Entity types in priority order for overlapping spans
const (
	EntityEmail    EntityType = "EMAIL"
	EntityPhone    EntityType = "PHONE"
	EntityLinkedIn EntityType = "LINKEDIN"
	EntityDate     EntityType = "DATE"
	EntityPerson   EntityType = "PERSON"
)

// Entity is an offset-tagged span of document text. Offsets are byte offsets, end exclusive.
type Entity struct {
	Type          EntityType `json:"type"`
	Value         string     `json:"value"`
	StartOffset   int        `json:"start_offset"`
	EndOffset     int        `json:"end_offset"`
	ContextWindow string     `json:"context_window"`
	Confidence    float64    `json:"confidence"`
}

// Evidence ties a profile field to the text span it was derived from
type Evidence struct {
	Value         string  `json:"value"`
	StartOffset   int     `json:"start_offset"`
	EndOffset     int     `json:"end_offset"`
	ContextWindow string  `json:"context_window"`
	Confidence    float64 `json:"confidence"`
}

// EvidenceMap maps a profile field name to its evidence.
// Fields without a matching entity have no entry.
type EvidenceMap map[string]Evidence
