package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_EmbeddedDefaults(t *testing.T) {
	lib, err := Load("")
	require.NoError(t, err)

	p, err := lib.Render(NameOutline, CategoryDefault, Input{
		ChunkIndex: 0,
		StartTime:  "00:00:00,000",
		EndTime:    "00:00:05,000",
		ChunkText:  "hello world",
	})
	require.NoError(t, err)
	require.Contains(t, p.User, "hello world")
	require.NotEmpty(t, p.System)
	require.Equal(t, CategoryDefault, p.Category)
}

func TestRender_FallsBackToDefaultCategory(t *testing.T) {
	lib, err := Load("")
	require.NoError(t, err)

	// "speech" has no dedicated scoring override; Render must fall back
	// to the default category's template rather than erroring.
	p, err := lib.Render(NameScoring, CategorySpeech, Input{ChunkText: "x"})
	require.NoError(t, err)
	require.Equal(t, CategoryDefault, p.Category)
}

func TestRender_UsesCategoryOverrideWhenPresent(t *testing.T) {
	lib, err := Load("")
	require.NoError(t, err)

	p, err := lib.Render(NameScoring, CategoryKnowledge, Input{ChunkText: "x"})
	require.NoError(t, err)
	require.Equal(t, CategoryKnowledge, p.Category)
	require.True(t, strings.Contains(p.System, "educational") || strings.Contains(p.System, "teach"))
}

func TestRender_UnknownStageErrors(t *testing.T) {
	lib, err := Load("")
	require.NoError(t, err)

	_, err = lib.Render(Name("not-a-stage"), CategoryDefault, Input{})
	require.Error(t, err)
}

func TestPrompt_FingerprintIsStable(t *testing.T) {
	lib, err := Load("")
	require.NoError(t, err)

	in := Input{ChunkText: "same input"}
	p1, err := lib.Render(NameTitle, CategoryDefault, in)
	require.NoError(t, err)
	p2, err := lib.Render(NameTitle, CategoryDefault, in)
	require.NoError(t, err)
	require.Equal(t, p1.Fingerprint(), p2.Fingerprint())
}
