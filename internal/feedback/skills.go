package feedback

import (
	"strings"

	"github.com/capitalize-ai/sales-coach/internal/model"
)

const (
	strengthStep  = 5
	weaknessStep  = 2
	scoreCeiling  = 100
	scoreFloor    = 1
	maxListLength = 10
)

type keywordGroup struct {
	skill    model.Skill
	keywords []string
}

var keywordGroups = []keywordGroup{
	{model.SkillRapportBuilding, []string{"rapport"}},
	{model.SkillNeedsDiscovery, []string{"discovery", "question", "listen", "understanding"}},
	{model.SkillObjectionHandling, []string{"objection", "concern", "handle", "address"}},
	{model.SkillClosing, []string{"close", "closing", "commitment", "decision"}},
	{model.SkillProductKnowledge, []string{"product", "knowledge", "feature", "benefit"}},
}

// Apply scores the sections against the profile and merges the items into
// its strength and weakness lists. Every keyword group an item matches is
// credited, so one item can raise several skills. Weaknesses also raise the
// score, by a smaller step. The profile is not modified; the updated copy is
// returned.
func Apply(profile model.SkillProfile, s Sections) model.SkillProfile {
	scores := model.NewSkillScores()
	for k, v := range profile.Scores {
		scores[k] = v
	}

	for _, item := range s.Strengths {
		for _, skill := range matchedSkills(item) {
			scores[skill] = min(scoreCeiling, scores[skill]+strengthStep)
		}
	}
	for _, item := range s.Weaknesses {
		for _, skill := range matchedSkills(item) {
			scores[skill] = max(scoreFloor, scores[skill]+weaknessStep)
		}
	}

	return model.SkillProfile{
		Scores:     scores,
		Strengths:  Merge(profile.Strengths, s.Strengths, maxListLength),
		Weaknesses: Merge(profile.Weaknesses, s.Weaknesses, maxListLength),
	}
}

func matchedSkills(item string) []model.Skill {
	lower := strings.ToLower(item)
	var out []model.Skill
	for _, g := range keywordGroups {
		for _, kw := range g.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, g.skill)
				break
			}
		}
	}
	return out
}

// Merge appends the items not already present verbatim and keeps the newest
// limit entries.
func Merge(existing, added []string, limit int) []string {
	seen := make(map[string]struct{}, len(existing)+len(added))
	out := make([]string, 0, len(existing)+len(added))
	for _, s := range existing {
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range added {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}
