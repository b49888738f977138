package fetch

import (
	"net/url"
	"strings"
)

// Board is a job board or applicant tracking system hosting a posting
type Board string

// Boards with dedicated selectors
const (
	BoardGreenhouse Board = "greenhouse"
	BoardLever      Board = "lever"
	BoardWorkday    Board = "workday"
	BoardAshby      Board = "ashby"
	BoardUnknown    Board = "unknown"
)

var boardHosts = []struct {
	suffix string
	board  Board
}{
	{"greenhouse.io", BoardGreenhouse},
	{"lever.co", BoardLever},
	{"myworkdayjobs.com", BoardWorkday},
	{"workday.com", BoardWorkday},
	{"ashbyhq.com", BoardAshby},
}

// DetectBoard identifies the job board from the URL host
func DetectBoard(rawURL string) Board {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return BoardUnknown
	}
	host := strings.ToLower(parsed.Hostname())
	for _, h := range boardHosts {
		if host == h.suffix || strings.HasSuffix(host, "."+h.suffix) {
			return h.board
		}
	}
	return BoardUnknown
}

// genericSelectors match the posting body on most career pages
var genericSelectors = []string{
	".job-description",
	"#job-description",
	".job-content",
	".posting-content",
	".job-details",
	"[data-testid='job-description']",
	"main",
	"article",
	"#content",
}

// ContentSelectors returns the selectors tried in order for the posting body
func (b Board) ContentSelectors() []string {
	switch b {
	case BoardGreenhouse:
		return []string{".job__description.body", ".job__description", ".job-post-container", "#content"}
	case BoardLever:
		return []string{".posting-page", ".section-wrapper.page-full-width", ".posting-description", ".content"}
	case BoardWorkday:
		return []string{"[data-automation-id='jobDescription']", ".job-description"}
	case BoardAshby:
		return []string{"._descriptionText", "[class*='descriptionText']", "main"}
	default:
		return genericSelectors
	}
}

// NoiseSelectors returns application forms, EEO statements and other page parts
// that never belong to the posting text
func (b Board) NoiseSelectors() []string {
	common := []string{
		"form",
		".application-form",
		"#application-form",
		".apply-button-container",
		".eeo-statement",
		".eeo-section",
		".voluntary-disclosure",
		".social-share",
		".cookie-consent",
	}
	switch b {
	case BoardGreenhouse:
		return append(common, ".application--wrapper", ".voluntary-self-id", "#usa_self_id_section")
	case BoardLever:
		return append(common, ".apply-section", ".posting-apply")
	case BoardWorkday:
		return append(common, "[data-automation-id='applyButton']")
	default:
		return common
	}
}
