package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prospectai/prospect-cli/internal/model"
)

func TestMerge_FillsGapsFromSecondary(t *testing.T) {
	primary := []model.TeamMember{
		{Name: "John Doe", Role: "CEO", Company: "Acme"},
	}
	secondary := []model.TeamMember{
		{Name: "John Doe", Role: "Chief Executive", Company: "Acme", LinkedInURL: "https://linkedin.com/in/johndoe"},
	}

	merged := NewMerger(nil).Merge(primary, secondary)
	require.Len(t, merged, 1)
	// Primary values win; secondary only fills what primary lacks.
	assert.Equal(t, "CEO", merged[0].Role)
	assert.Equal(t, "https://linkedin.com/in/johndoe", merged[0].LinkedInURL)
}

func TestMerge_AppendsUnmatchedSecondary(t *testing.T) {
	primary := []model.TeamMember{
		{Name: "John Doe", Role: "CEO", Company: "Acme"},
	}
	secondary := []model.TeamMember{
		{Name: "john doe", Role: "Founder", Company: "Acme"},
		{Name: "Bob Smith", Role: "CTO", Company: "Acme"},
	}

	merged := NewMerger(nil).Merge(primary, secondary)
	require.Len(t, merged, 2)
	assert.Equal(t, "John Doe", merged[0].Name)
	assert.Equal(t, "CEO", merged[0].Role)
	assert.Equal(t, "Bob Smith", merged[1].Name)
}

func TestMerge_FuzzyPairing(t *testing.T) {
	primary := []model.TeamMember{
		{Name: "José García", Role: "CTO", Company: "Acme"},
	}
	secondary := []model.TeamMember{
		{Name: "jose garcia", Company: "Acme", LinkedInURL: "https://linkedin.com/in/josegarcia"},
	}

	merged := NewMerger(nil).Merge(primary, secondary)
	require.Len(t, merged, 1)
	assert.Equal(t, "José García", merged[0].Name)
	assert.Equal(t, "https://linkedin.com/in/josegarcia", merged[0].LinkedInURL)
}

func TestMerge_EmptyPrimaryTakesSecondary(t *testing.T) {
	secondary := []model.TeamMember{
		{Name: "Bob Smith", Role: "CTO", Company: "Acme"},
	}
	merged := NewMerger(nil).Merge(nil, secondary)
	require.Len(t, merged, 1)
	assert.Equal(t, "Bob Smith", merged[0].Name)
}

func TestMerge_DoesNotMutatePrimary(t *testing.T) {
	primary := []model.TeamMember{
		{Name: "John Doe", Role: "CEO", Company: "Acme"},
	}
	secondary := []model.TeamMember{
		{Name: "John Doe", LinkedInURL: "https://linkedin.com/in/johndoe"},
	}

	_ = NewMerger(nil).Merge(primary, secondary)
	assert.Empty(t, primary[0].LinkedInURL)
}

func TestPair_ReportsMatchMethods(t *testing.T) {
	g := NewMerger(nil)
	primary := []model.TeamMember{
		{Name: "Jane Smith"},
		{Name: "Jane Marie Smith"},
	}

	cands := g.pair(primary, []model.TeamMember{
		{Name: "Jane Smith"},
		{Name: "Unrelated Person"},
	})
	require.Len(t, cands, 2)
	assert.Equal(t, 0, cands[0].PrimaryIndex)
	assert.Equal(t, MatchExact, cands[0].Method)
	assert.Equal(t, -1, cands[1].PrimaryIndex)
	assert.Equal(t, MatchNone, cands[1].Method)
}

func TestClassifyMatch(t *testing.T) {
	cases := []struct {
		a, b string
		want MatchMethod
	}{
		{"Jane Smith", "jane smith", MatchExact},
		{"J. Smith", "Jane J. Smith", MatchSubstring},
		{"Smith", "Jane Smith", MatchSubstring},
		{"Jane Marie Smith", "Jane Smith", MatchSurname},
		{"Cher", "Cher Sarkisian", MatchSubstring},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classifyMatch(tc.a, tc.b), "classifyMatch(%q, %q)", tc.a, tc.b)
	}
}
