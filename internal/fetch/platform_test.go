package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectBoard(t *testing.T) {
	tests := []struct {
		url      string
		expected Board
	}{
		{"https://job-boards.greenhouse.io/doordashusa/jobs/7063751", BoardGreenhouse},
		{"https://boards.greenhouse.io/company/jobs/123", BoardGreenhouse},
		{"https://jobs.lever.co/company/job-id", BoardLever},
		{"https://acme.wd5.myworkdayjobs.com/en-US/careers/job/123", BoardWorkday},
		{"https://jobs.ashbyhq.com/acme/123", BoardAshby},
		{"https://notgreenhouse.io/jobs", BoardUnknown},
		{"https://example.com/careers", BoardUnknown},
		{"::", BoardUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.expected, DetectBoard(tt.url))
		})
	}
}

func TestBoardSelectors(t *testing.T) {
	for _, b := range []Board{BoardGreenhouse, BoardLever, BoardWorkday, BoardAshby, BoardUnknown} {
		assert.NotEmpty(t, b.ContentSelectors(), b)
		assert.Contains(t, b.NoiseSelectors(), "form", b)
	}
	assert.Contains(t, BoardGreenhouse.NoiseSelectors(), "#usa_self_id_section")
	assert.Equal(t, genericSelectors, BoardUnknown.ContentSelectors())
}
