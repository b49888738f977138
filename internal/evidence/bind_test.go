package evidence

import (
	"testing"

	"github.com/jonathan/candidate-intel/internal/entities"
	"github.com/jonathan/candidate-intel/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resume = `Jane Doe
JANE@ACME.COM | (415) 555-0100 | linkedin.com/in/janedoe
Berlin`

func profileWith(p types.PersonalInfo) *types.CandidateProfile {
	return &types.CandidateProfile{Personal: p}
}

func TestBind(t *testing.T) {
	ents := entities.Extract(resume)
	profile := profileWith(types.PersonalInfo{
		Name:     types.StringPtr("Jane Doe"),
		Email:    types.StringPtr("jane@acme.com"),
		Phone:    types.StringPtr("+1 415-555-0100"),
		Location: types.StringPtr("Berlin"),
		LinkedIn: types.StringPtr("https://www.linkedin.com/in/janedoe"),
	})

	ev := Bind(profile, ents, resume)

	require.Contains(t, ev, "name")
	assert.Equal(t, "Jane Doe", ev["name"].Value)
	assert.Equal(t, 0, ev["name"].StartOffset)

	require.Contains(t, ev, "email")
	assert.Equal(t, "JANE@ACME.COM", ev["email"].Value, "case-insensitive match")
	assert.Equal(t, resume[ev["email"].StartOffset:ev["email"].EndOffset], ev["email"].Value)
	assert.InDelta(t, 0.95, ev["email"].Confidence, 1e-9)

	require.Contains(t, ev, "phone", "digit-only comparison")
	assert.Contains(t, ev["phone"].Value, "555-0100")

	require.Contains(t, ev, "linkedin", "entity contained in field value")
	assert.Equal(t, "linkedin.com/in/janedoe", ev["linkedin"].Value)

	assert.NotContains(t, ev, "location", "no entity for location")
}

func TestBind_NilAndMissingFields(t *testing.T) {
	ents := entities.Extract(resume)

	assert.Empty(t, Bind(nil, ents, resume))
	assert.Empty(t, Bind(profileWith(types.PersonalInfo{}), ents, resume))

	ev := Bind(profileWith(types.PersonalInfo{Email: types.StringPtr("other@example.com")}), ents, resume)
	assert.NotContains(t, ev, "email")
}

func TestBind_IgnoresMisanchoredEntities(t *testing.T) {
	ents := []types.Entity{{Type: types.EntityEmail, Value: "jane@acme.com", StartOffset: 0, EndOffset: 13}}
	ev := Bind(profileWith(types.PersonalInfo{Email: types.StringPtr("jane@acme.com")}), ents, "something else entirely")
	assert.Empty(t, ev)
}

func TestBind_PrefersTypedEntity(t *testing.T) {
	text := "2020 Jane Doe"
	ents := []types.Entity{
		{Type: types.EntityDate, Value: "Jane", StartOffset: 5, EndOffset: 9},
		{Type: types.EntityPerson, Value: "Jane Doe", StartOffset: 5, EndOffset: 13},
	}
	ev := Bind(profileWith(types.PersonalInfo{Name: types.StringPtr("Jane Doe")}), ents, text)
	assert.Equal(t, types.EntityPerson, entityTypeAt(ents, ev["name"]))
}

func entityTypeAt(ents []types.Entity, ev types.Evidence) types.EntityType {
	for _, e := range ents {
		if e.StartOffset == ev.StartOffset && e.EndOffset == ev.EndOffset {
			return e.Type
		}
	}
	return ""
}
