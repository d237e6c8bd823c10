// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package stage

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/article-engine/internal/draft"
	"github.com/pdiddy/article-engine/internal/gateway"
	"github.com/pdiddy/article-engine/internal/platform"
	"github.com/pdiddy/article-engine/internal/progress"
	"github.com/pdiddy/article-engine/pkg/types"
)

// fakeGen answers with fn, or the offline generator when fn is nil.
type fakeGen struct {
	mu      sync.Mutex
	prompts []string
	fn      func(prompt string) string
}

func (g *fakeGen) Generate(_ context.Context, prompt string) string {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.fn != nil {
		return g.fn(prompt)
	}
	return gateway.Fallback(prompt)
}

func (g *fakeGen) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

func newState() types.ArticleState {
	return types.NewArticleState("Quantum Computing", "for beginners", types.StyleProfessional, types.PlatformNone)
}

func outlineOf(n int) types.Outline {
	o := types.Outline{Title: "Numbered"}
	for i := range n {
		o.Sections = append(o.Sections, types.Section{
			ID:      draft.SectionID(i),
			Heading: fmt.Sprintf("Part %d", i+1),
		})
	}
	return o
}

func TestPlanner_ParsesOutline(t *testing.T) {
	gen := &fakeGen{fn: func(string) string {
		return "Sure! Here it is:\n```json\n" +
			`{"title": "Qubits Explained", "sections": [` +
			`{"heading": "## Intro", "bullet_points": ["why"]},` +
			`{"heading": "Gates", "bullet_points": ["how"]},` +
			`{"heading": "Wrap-up"}]}` + "\n```"
	}}
	pl := &Planner{Gen: gen}

	s, err := pl.Run(context.Background(), newState(), Params{Style: types.StyleProfessional})
	require.NoError(t, err)

	assert.Equal(t, "Qubits Explained", s.Outline.Title)
	assert.Equal(t, []string{"s01", "s02", "s03"}, s.Outline.IDs())
	assert.Equal(t, "Intro", s.Outline.Sections[0].Heading)
	assert.Equal(t, []string{"how"}, s.Outline.Sections[1].BulletPoints)
}

func TestPlanner_FallsBackToDefaultOutline(t *testing.T) {
	tooMany := `{"title":"T","sections":[` + strings.TrimSuffix(strings.Repeat(`{"heading":"h"},`, 11), ",") + `]}`
	tests := []struct {
		name     string
		response string
	}{
		{"not json", "I cannot help with that."},
		{"truncated json", `{"title": "x", "sections": [`},
		{"no sections", `{"title": "x", "sections": []}`},
		{"too many sections", tooMany},
		{"blank heading", `{"title":"x","sections":[{"heading":"  "}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pl := &Planner{Gen: &fakeGen{fn: func(string) string { return tt.response }}}
			s, err := pl.Run(context.Background(), newState(), Params{})
			require.NoError(t, err)
			assert.Equal(t, draft.DefaultOutline("Quantum Computing"), s.Outline)
		})
	}
}

func TestPlanner_UserOutlineSkipsGeneration(t *testing.T) {
	gen := &fakeGen{}
	user := &types.Outline{Sections: []types.Section{{Heading: "Only"}, {Heading: "Two"}}}
	pl := &Planner{Gen: gen, Outline: user}

	s, err := pl.Run(context.Background(), newState(), Params{})
	require.NoError(t, err)

	assert.Empty(t, gen.Prompts())
	assert.Equal(t, "Quantum Computing", s.Outline.Title)
	assert.Equal(t, []string{"s01", "s02"}, s.Outline.IDs())
	assert.Empty(t, user.Sections[0].ID, "caller's outline is not modified")
}

func TestPlanner_UserOutlineInvalid(t *testing.T) {
	pl := &Planner{Gen: &fakeGen{}, Outline: &types.Outline{Title: "x"}}
	_, err := pl.Run(context.Background(), newState(), Params{})
	assert.ErrorIs(t, err, types.ErrEmptyOutline)

	dup := &types.Outline{Title: "x", Sections: []types.Section{{ID: "a", Heading: "A"}, {ID: "a", Heading: "B"}}}
	_, err = (&Planner{Gen: &fakeGen{}, Outline: dup}).Run(context.Background(), newState(), Params{})
	assert.ErrorIs(t, err, types.ErrDuplicateSection)
}

func TestPlanner_PromptCarriesPlatformProfile(t *testing.T) {
	gen := &fakeGen{}
	s := newState()
	s.Research = &types.ResearchBundle{Summary: "Qubits are fragile."}
	p := Params{Style: types.StyleStorytelling, PlatformStyle: platform.Profile(types.PlatformSubstack)}

	_, err := (&Planner{Gen: gen}).Run(context.Background(), s, p)
	require.NoError(t, err)

	prompt := gen.Prompts()[0]
	assert.True(t, strings.HasPrefix(prompt, "Create a detailed outline"))
	assert.Contains(t, prompt, "Topic: Quantum Computing")
	assert.Contains(t, prompt, "Description: for beginners")
	assert.Contains(t, prompt, "about 1500 words in 4 main sections")
	assert.Contains(t, prompt, "Tone: personal and authoritative")
	assert.Contains(t, prompt, "- Direct address to subscribers")
	assert.Contains(t, prompt, "Qubits are fragile.")
	assert.Contains(t, prompt, "storytelling (Narrative-driven")
}

// jitterGen answers each section prompt with its heading after a delay
// derived from the prompt, so parallel sections finish out of order.
func jitterGen() *fakeGen {
	return &fakeGen{fn: func(prompt string) string {
		h := fnv.New32a()
		h.Write([]byte(prompt))
		time.Sleep(time.Duration(h.Sum32()%5) * time.Millisecond)
		for line := range strings.Lines(prompt) {
			if v, ok := strings.CutPrefix(line, gateway.HeadingLabel+" "); ok {
				return "Body of " + strings.TrimSpace(v)
			}
		}
		return "?"
	}}
}

func TestWriter_PreservesOutlineOrder(t *testing.T) {
	for n := 1; n <= draft.MaxSections; n++ {
		t.Run(fmt.Sprintf("%d sections", n), func(t *testing.T) {
			s := newState()
			s.Outline = outlineOf(n)
			rec := &progress.Recorder{}

			got, err := (&Writer{Gen: jitterGen()}).Run(context.Background(), s, Params{Observer: rec, Concurrency: 4})
			require.NoError(t, err)

			_, blocks := draft.Split(got.Draft)
			require.Len(t, blocks, n)
			for i, b := range blocks {
				want := fmt.Sprintf("Part %d", i+1)
				assert.Equal(t, want, b.Heading)
				assert.Equal(t, "Body of "+want, b.Body)
				assert.Equal(t, "Body of "+want, got.SectionContent[draft.SectionID(i)])
				assert.Equal(t, "Body of "+want, got.Outline.Sections[i].GeneratedContent)
			}
			assert.Equal(t, "Numbered", draft.Title(got.Draft))

			events := rec.Events()
			require.Len(t, events, n)
			for i, e := range events {
				assert.Equal(t, types.PhaseWriting, e.Phase)
				assert.Equal(t, i+1, e.Current)
				assert.Equal(t, n, e.Total)
			}
			assert.Empty(t, s.SectionContent, "input state is not modified")
		})
	}
}

func TestWriter_UsesMatchingResearch(t *testing.T) {
	gen := &fakeGen{fn: func(string) string { return "text" }}
	s := newState()
	s.Outline = types.Outline{Title: "T", Sections: []types.Section{
		{ID: "s01", Heading: "Introduction"},
		{ID: "s02", Heading: "Quantum Error Correction Today", BulletPoints: []string{"surface codes"}},
	}}
	s.Research = &types.ResearchBundle{
		Summary:           "OVERALL",
		Subtopics:         []string{"error correction", "quantum"},
		SubtopicSummaries: map[string]string{"error correction": "ERROR NOTES", "quantum": "QUANTUM NOTES"},
	}

	_, err := (&Writer{Gen: gen}).Run(context.Background(), s, Params{})
	require.NoError(t, err)

	prompts := gen.Prompts()
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "OVERALL")
	assert.Contains(t, prompts[1], "ERROR NOTES", "first matching subtopic wins")
	assert.Contains(t, prompts[1], "- surface codes")
	assert.Contains(t, prompts[1], "Section heading: Quantum Error Correction Today")
}

func TestWriter_StripsRepeatedHeading(t *testing.T) {
	gen := &fakeGen{fn: func(string) string { return "## Part 1\n\nActual body." }}
	s := newState()
	s.Outline = outlineOf(1)

	got, err := (&Writer{Gen: gen}).Run(context.Background(), s, Params{})
	require.NoError(t, err)
	assert.Equal(t, 1, draft.CountHeadings(got.Draft))
	assert.Equal(t, "Actual body.", got.SectionContent["s01"])
}

func TestWriter_RejectsInvalidOutline(t *testing.T) {
	_, err := (&Writer{Gen: &fakeGen{}}).Run(context.Background(), newState(), Params{})
	assert.ErrorIs(t, err, types.ErrEmptyOutline)
}

const sampleDraft = `# Quantum Computing Today

## Introduction

This is very important in order to learn.

## Body

Qubits are really strange.

## Conclusion

Go build something.
`

func TestReviewer_PreservesSections(t *testing.T) {
	gen := &fakeGen{}
	s := newState()
	s.Draft = sampleDraft

	got, err := (&Reviewer{Gen: gen}).Run(context.Background(), s, Params{Concurrency: 2})
	require.NoError(t, err)

	pre, blocks := draft.Split(got.Reviewed)
	assert.Equal(t, "# Quantum Computing Today", strings.TrimSpace(pre))
	require.Len(t, blocks, 3)
	assert.Equal(t, []string{"Introduction", "Body", "Conclusion"}, []string{blocks[0].Heading, blocks[1].Heading, blocks[2].Heading})
	assert.Equal(t, "This is important to learn.", blocks[0].Body)
	assert.Equal(t, "Qubits are strange.", blocks[1].Body)

	require.NotNil(t, got.ReviewNotes)
	assert.Equal(t, "Generated offline", got.ReviewNotes.Other)
	assert.Len(t, gen.Prompts(), 4, "one call per section plus the change summary")
}

func TestReviewer_RevisionCannotAddSections(t *testing.T) {
	gen := &fakeGen{fn: func(p string) string {
		if strings.HasPrefix(p, "Provide a summary of changes") {
			return `{"readability":"r"}`
		}
		return "Revised body.\n\n## Key Takeaways\n\nExtra.\n\n# New Title\n\nMore."
	}}
	s := newState()
	s.Draft = sampleDraft

	got, err := (&Reviewer{Gen: gen}).Run(context.Background(), s, Params{})
	require.NoError(t, err)

	assert.Equal(t, draft.CountHeadings(sampleDraft), draft.CountHeadings(got.Reviewed))
	assert.Equal(t, "Quantum Computing Today", draft.Title(got.Reviewed))
	_, blocks := draft.Split(got.Reviewed)
	require.Len(t, blocks, 3)
	assert.Equal(t, "Revised body.\n\n### Key Takeaways\n\nExtra.\n\n### New Title\n\nMore.", blocks[0].Body)
}

func TestStripHeading(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Plain body.", "Plain body."},
		{"## Repeated\n\nBody.", "Body."},
		{"Body.\n## Sub\nMore.", "Body.\n### Sub\nMore."},
		{"Body.\n### Already deep", "Body.\n### Already deep"},
		{"Body.\n#hashtag stays", "Body.\n#hashtag stays"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripHeading(tt.in), tt.in)
	}
}

func TestReviewer_EmptyRevisionKeepsOriginal(t *testing.T) {
	gen := &fakeGen{fn: func(p string) string {
		if strings.HasPrefix(p, "Provide a summary of changes") {
			return `{"readability":"r","engagement":"e","coherence":"c"}`
		}
		return "  "
	}}
	s := newState()
	s.Draft = sampleDraft

	got, err := (&Reviewer{Gen: gen}).Run(context.Background(), s, Params{})
	require.NoError(t, err)

	_, before := draft.Split(sampleDraft)
	_, after := draft.Split(got.Reviewed)
	assert.Equal(t, before, after)
	assert.Equal(t, types.ReviewNotes{Readability: "r", Engagement: "e", Coherence: "c"}, *got.ReviewNotes)
}

func TestReviewer_MalformedNotesFallBack(t *testing.T) {
	gen := &fakeGen{fn: func(p string) string {
		if strings.HasPrefix(p, "Provide a summary of changes") {
			return "I made it better."
		}
		return "revised"
	}}
	s := newState()
	s.Draft = sampleDraft

	got, err := (&Reviewer{Gen: gen}).Run(context.Background(), s, Params{})
	require.NoError(t, err)

	assert.Equal(t, defaultReviewNotes.Readability, got.ReviewNotes.Readability)
	assert.Equal(t, "I made it better.", got.ReviewNotes.Other)
	assert.Equal(t, 3, draft.CountHeadings(got.Reviewed))
}

func TestReviewer_EmptyDraft(t *testing.T) {
	_, err := (&Reviewer{Gen: &fakeGen{}}).Run(context.Background(), newState(), Params{})
	assert.ErrorIs(t, err, ErrEmptyDraft)
}

func TestHumanizer_Passes(t *testing.T) {
	tests := []struct {
		style     types.WritingStyle
		wantCalls int
	}{
		{types.StyleConversational, 2},
		{types.StyleStorytelling, 2},
		{types.StyleProfessional, 1},
		{types.StyleInstructional, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.style), func(t *testing.T) {
			gen := &fakeGen{}
			s := newState()
			s.Reviewed = sampleDraft

			got, err := (&Humanizer{Gen: gen}).Run(context.Background(), s, Params{Style: tt.style})
			require.NoError(t, err)
			assert.Len(t, gen.Prompts(), tt.wantCalls)
			assert.True(t, strings.HasPrefix(got.Final, "# Quantum Computing Today\n"))
			assert.Equal(t, 3, draft.CountHeadings(got.Final))
		})
	}
}

func TestHumanizer_RestoresTitle(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"dropped", "## Introduction\n\nHi.\n\n## Body\n\nB.\n\n## Conclusion\n\nC."},
		{"changed", "# A Catchier Title\n\n## Introduction\n\nHi.\n\n## Body\n\nB.\n\n## Conclusion\n\nC."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGen{fn: func(string) string { return tt.response }}
			s := newState()
			s.Reviewed = sampleDraft

			got, err := (&Humanizer{Gen: gen}).Run(context.Background(), s, Params{Style: types.StyleProfessional})
			require.NoError(t, err)

			line, ok := draft.TitleLine(got.Final)
			require.True(t, ok)
			assert.Equal(t, "# Quantum Computing Today", line)
			assert.Contains(t, got.Final, "Hi.")
			assert.NotContains(t, got.Final, "Catchier")
			assert.Equal(t, 3, draft.CountHeadings(got.Final))
		})
	}
}

func TestHumanizer_DiscardsPassThatLosesSections(t *testing.T) {
	gen := &fakeGen{fn: func(string) string { return "# Quantum Computing Today\n\nEverything in one paragraph." }}
	s := newState()
	s.Reviewed = sampleDraft

	got, err := (&Humanizer{Gen: gen}).Run(context.Background(), s, Params{Style: types.StyleProfessional})
	require.NoError(t, err)
	assert.Equal(t, sampleDraft, got.Final)
}

func TestHumanizer_UsesDraftWithoutReview(t *testing.T) {
	s := newState()
	s.Draft = sampleDraft
	got, err := (&Humanizer{Gen: &fakeGen{}}).Run(context.Background(), s, Params{Style: types.StyleProfessional})
	require.NoError(t, err)
	assert.NotEmpty(t, got.Final)

	_, err = (&Humanizer{Gen: &fakeGen{}}).Run(context.Background(), newState(), Params{})
	assert.ErrorIs(t, err, ErrEmptyDraft)
}

func TestStages_Phases(t *testing.T) {
	stages := []Stage{&Planner{}, &Writer{}, &Reviewer{}, &Humanizer{}}
	want := []types.Phase{types.PhasePlanning, types.PhaseWriting, types.PhaseReviewing, types.PhaseHumanizing}
	for i, st := range stages {
		assert.Equal(t, want[i], st.Phase())
	}
}
