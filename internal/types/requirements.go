// Package types provides type definitions for structured data used throughout the candidate-intel pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

// RequirementSet is the structured requirement profile extracted from a job description.
// It is produced once per batch and treated as immutable afterward.
type RequirementSet struct {
	Skills     []string `json:"skills"`
	MustHave   []string `json:"must_have"`
	Experience []string `json:"experience"`
	Education  []string `json:"education"`
}

// AllSkills returns skills followed by must-have entries, with case-insensitive
// duplicates collapsed to their first spelling.
func (r *RequirementSet) AllSkills() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.Skills)+len(r.MustHave))
	out := make([]string, 0, len(r.Skills)+len(r.MustHave))
	for _, list := range [][]string{r.Skills, r.MustHave} {
		for _, s := range list {
			key := FoldKey(s)
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
