package parsing

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jonathan/candidate-intel/internal/entities"
	"github.com/jonathan/candidate-intel/internal/types"
)

// FallbackSummary marks profiles built without the extraction service
const FallbackSummary = "Profile derived locally from the résumé text; the extraction service was unavailable."

const (
	maxFallbackSkills     = 10
	maxFallbackExperience = 3
	maxFallbackEducation  = 2
	maxFallbackRoleLength = 50
)

// commonSkills is scanned case-insensitively when the extraction service is unavailable
var commonSkills = []string{
	"JavaScript", "Python", "Java", "React", "Node.js", "HTML", "CSS", "SQL",
	"MongoDB", "PostgreSQL", "Git", "Docker", "AWS", "Azure", "TypeScript",
	"Angular", "Vue.js", "Express", "Django", "Flask", "Spring", "Laravel",
	"PHP", "C++", "C#", ".NET", "Ruby", "Go", "Rust", "Swift", "Kotlin",
	"Machine Learning", "Data Science", "AI", "DevOps", "Kubernetes",
	"Jenkins", "CI/CD", "Agile", "Scrum", "Project Management",
}

var (
	roleLineRegex    = regexp.MustCompile(`(?i)\b(developer|engineer|manager|analyst|designer|consultant)\b`)
	fallbackDegrees  = []string{"bachelor", "master", "phd", "diploma", "certificate"}
	fallbackFields   = []string{"computer science", "engineering", "business", "mathematics", "physics"}
	nameSeparatorsRe = regexp.MustCompile(`[._]+`)
)

// FallbackProfile builds a low-fidelity profile from entities and keyword scans.
// Missing personal fields stay nil.
func FallbackProfile(text string, ents []types.Entity) *types.CandidateProfile {
	title := cases.Title(language.English)

	var personal types.PersonalInfo
	if person, ok := entities.First(ents, types.EntityPerson); ok {
		personal.Name = types.StringPtr(title.String(person.Value))
	}
	if email, ok := entities.First(ents, types.EntityEmail); ok {
		personal.Email = types.StringPtr(email.Value)
		if personal.Name == nil {
			local, _, _ := strings.Cut(email.Value, "@")
			name := strings.TrimSpace(nameSeparatorsRe.ReplaceAllString(local, " "))
			personal.Name = types.StringPtr(title.String(name))
		}
	}
	if phone, ok := entities.First(ents, types.EntityPhone); ok {
		personal.Phone = types.StringPtr(phone.Value)
	}
	if linkedin, ok := entities.First(ents, types.EntityLinkedIn); ok {
		personal.LinkedIn = types.StringPtr(linkedin.Value)
	}

	return &types.CandidateProfile{
		Personal:       personal,
		Summary:        FallbackSummary,
		Experience:     fallbackExperience(text),
		Education:      fallbackEducation(text, title),
		Skills:         fallbackSkills(text),
		Certifications: []types.Certification{},
		Fallback:       true,
	}
}

func fallbackSkills(text string) []string {
	lower := strings.ToLower(text)
	found := make([]string, 0, maxFallbackSkills)
	for _, skill := range commonSkills {
		if len(found) == maxFallbackSkills {
			break
		}
		if strings.Contains(lower, strings.ToLower(skill)) {
			found = append(found, skill)
		}
	}
	return found
}

func fallbackExperience(text string) []types.Experience {
	out := make([]types.Experience, 0, maxFallbackExperience)
	for _, line := range strings.Split(text, "\n") {
		if len(out) == maxFallbackExperience {
			break
		}
		if !roleLineRegex.MatchString(line) {
			continue
		}
		out = append(out, types.Experience{
			Role:         truncateRunes(strings.TrimSpace(line), maxFallbackRoleLength),
			Achievements: []string{},
			Technologies: []string{},
		})
	}
	return out
}

// fallbackEducation emits one entry per degree keyword, preferring a field named on the same line
func fallbackEducation(text string, title cases.Caser) []types.Education {
	lower := strings.ToLower(text)
	lines := strings.Split(lower, "\n")

	out := make([]types.Education, 0, maxFallbackEducation)
	for _, degree := range fallbackDegrees {
		if len(out) == maxFallbackEducation {
			break
		}
		if !strings.Contains(lower, degree) {
			continue
		}

		field := ""
		for _, line := range lines {
			if strings.Contains(line, degree) {
				field = firstContained(line, fallbackFields)
				break
			}
		}
		if field == "" {
			field = firstContained(lower, fallbackFields)
		}

		degreeName := title.String(degree)
		if degree == "phd" {
			degreeName = "PhD"
		}
		out = append(out, types.Education{Degree: degreeName, Field: title.String(field)})
	}
	return out
}

func firstContained(s string, candidates []string) string {
	for _, c := range candidates {
		if strings.Contains(s, c) {
			return c
		}
	}
	return ""
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return strings.TrimSpace(string(runes[:limit]))
}
