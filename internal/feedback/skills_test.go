package feedback

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalize-ai/sales-coach/internal/model"
)

func emptyProfile() model.SkillProfile {
	return model.SkillProfile{Scores: model.NewSkillScores()}
}

func TestApply_StrengthBumpsEveryMatchingGroup(t *testing.T) {
	got := Apply(emptyProfile(), Sections{Strengths: []string{"Great rapport and closing technique"}})

	assert.Equal(t, model.SkillScores{
		model.SkillRapportBuilding:   5,
		model.SkillNeedsDiscovery:    0,
		model.SkillObjectionHandling: 0,
		model.SkillClosing:           5,
		model.SkillProductKnowledge:  0,
	}, got.Scores)
}

func TestApply_StrengthCeiling(t *testing.T) {
	p := emptyProfile()
	p.Scores[model.SkillRapportBuilding] = 98
	p.Scores[model.SkillClosing] = 100

	got := Apply(p, Sections{Strengths: []string{"Great rapport and closing technique"}})

	assert.Equal(t, 100, got.Scores[model.SkillRapportBuilding])
	assert.Equal(t, 100, got.Scores[model.SkillClosing])
}

func TestApply_WeaknessIncrementsWithFloor(t *testing.T) {
	got := Apply(emptyProfile(), Sections{Weaknesses: []string{"Needs more product knowledge"}})
	assert.Equal(t, 2, got.Scores[model.SkillProductKnowledge])

	p := emptyProfile()
	p.Scores[model.SkillProductKnowledge] = 40
	got = Apply(p, Sections{Weaknesses: []string{"Needs more product knowledge"}})
	assert.Equal(t, 42, got.Scores[model.SkillProductKnowledge])
}

func TestApply_CaseInsensitive(t *testing.T) {
	got := Apply(emptyProfile(), Sections{Strengths: []string{"HANDLED the OBJECTION well"}})
	assert.Equal(t, 5, got.Scores[model.SkillObjectionHandling])
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	p := emptyProfile()
	p.Strengths = []string{"old"}

	_ = Apply(p, Sections{Strengths: []string{"Great rapport"}})

	assert.Equal(t, 0, p.Scores[model.SkillRapportBuilding])
	assert.Equal(t, []string{"old"}, p.Strengths)
}

func TestApply_NilScoresInitialised(t *testing.T) {
	got := Apply(model.SkillProfile{}, Sections{Strengths: []string{"rapport"}})

	require.Len(t, got.Scores, len(model.Skills))
	assert.Equal(t, 5, got.Scores[model.SkillRapportBuilding])
}

func TestApply_ListsBoundedAcrossRounds(t *testing.T) {
	p := emptyProfile()
	for round := 0; round < 6; round++ {
		p = Apply(p, Sections{
			Strengths:  []string{fmt.Sprintf("s%d-a", round), fmt.Sprintf("s%d-b", round), "repeated"},
			Weaknesses: []string{fmt.Sprintf("w%d", round)},
		})
		assert.LessOrEqual(t, len(p.Strengths), 10)
		assert.LessOrEqual(t, len(p.Weaknesses), 10)
	}

	assert.Len(t, p.Strengths, 10)
	assert.Equal(t, "s5-b", p.Strengths[len(p.Strengths)-1])
	assert.NotContains(t, p.Strengths, "s0-a")
	assert.Equal(t, []string{"w0", "w1", "w2", "w3", "w4", "w5"}, p.Weaknesses)
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		added    []string
		want     []string
	}{
		{name: "append new", existing: []string{"a"}, added: []string{"b"}, want: []string{"a", "b"}},
		{name: "skip verbatim duplicate", existing: []string{"a", "b"}, added: []string{"b", "c"}, want: []string{"a", "b", "c"}},
		{name: "case differs is not a duplicate", existing: []string{"a"}, added: []string{"A"}, want: []string{"a", "A"}},
		{name: "duplicate within added", existing: nil, added: []string{"x", "x"}, want: []string{"x"}},
		{name: "oldest evicted", existing: []string{"1", "2", "3"}, added: []string{"4", "5"}, want: []string{"2", "3", "4", "5"}},
		{name: "empty", existing: nil, added: nil, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit := 10
			if tt.name == "oldest evicted" {
				limit = 4
			}
			assert.Equal(t, tt.want, Merge(tt.existing, tt.added, limit))
		})
	}
}
