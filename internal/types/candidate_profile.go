package types

// CandidateProfile is the structured profile extracted from a single résumé
type CandidateProfile struct {
	Personal       PersonalInfo    `json:"personal"`
	Summary        string          `json:"summary"`
	Experience     []Experience    `json:"experience"`
	Education      []Education     `json:"education"`
	Skills         []string        `json:"skills"`
	Certifications []Certification `json:"certifications"`
	// Fallback is set when the profile was built locally without the extraction service.
	// Such profiles are lower fidelity and must be labeled as such downstream.
	Fallback bool `json:"fallback,omitempty"`
}

// PersonalInfo holds contact details. Every field is nil when absent, never a placeholder.
type PersonalInfo struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Location *string `json:"location"`
	LinkedIn *string `json:"linkedin"`
}

// Experience is a single employment entry
type Experience struct {
	Company      string   `json:"company"`
	Role         string   `json:"role"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	Achievements []string `json:"achievements"`
	Technologies []string `json:"technologies"`
}

// Education is a single education entry
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Year        string `json:"year"`
}

// Certification is a certification with an explicit marker in the source text
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Year   string `json:"year,omitempty"`
}

// PersonalFields returns the non-nil personal fields keyed by their JSON name.
func (p *PersonalInfo) PersonalFields() map[string]string {
	out := make(map[string]string, 5)
	for name, v := range map[string]*string{
		"name":     p.Name,
		"email":    p.Email,
		"phone":    p.Phone,
		"location": p.Location,
		"linkedin": p.LinkedIn,
	} {
		if v != nil && *v != "" {
			out[name] = *v
		}
	}
	return out
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
