package smart_conversation

import (
	"context"
	"errors"
	"testing"

	"github.com/meysamhadeli/gitai/smart_conversation/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selectWith(t *testing.T, reply string, paths ...string) ([]models.FileCandidate, *fakeProvider) {
	t.Helper()
	provider := &fakeProvider{answer: reply}
	selector := NewAISelector(provider, nil, 0, nil)

	shortlist, err := selector.SelectFiles(context.Background(), models.SelectionRequest{
		ProjectPath: "/work/demo",
		Query:       "how is the ai manager wired?",
		Tree:        buildTree(paths...),
	})
	require.NoError(t, err)
	return shortlist, provider
}

func TestAISelector_ParsesFencedJSON(t *testing.T) {
	reply := "Here you go:\n```json\n[\n  {\"file_path\": \"./app/core/ai_manager.py\", \"reason\": \"defines the manager\"},\n  {\"file_path\": \"requirements.txt\", \"reason\": \"dependencies\"}\n]\n```"

	shortlist, provider := selectWith(t, reply, "app/core/ai_manager.py", "requirements.txt", "README.md")

	assert.Equal(t, []models.FileCandidate{
		{FilePath: "app/core/ai_manager.py", Reason: "defines the manager", Priority: models.PriorityModelSelection},
		{FilePath: "requirements.txt", Reason: "dependencies", Priority: models.PriorityModelSelection},
	}, shortlist)

	requests := provider.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, 0.3, requests[0].Temperature)
	assert.Equal(t, 500, requests[0].MaxTokens)
	assert.Contains(t, requests[0].Messages[1].Content, "User question: how is the ai manager wired?")
	assert.Contains(t, requests[0].Messages[1].Content, "app/core/ai_manager.py\n")
}

func TestAISelector_DropsUnknownPathsAndResolvesBareNames(t *testing.T) {
	reply := `[{"file_path": "does/not/exist.py", "reason": "guess"}, {"file_path": "ai_manager.py"}]`

	shortlist, _ := selectWith(t, reply, "app/core/ai_manager.py")

	assert.Equal(t, []models.FileCandidate{
		{FilePath: "app/core/ai_manager.py", Reason: "selected by model", Priority: models.PriorityModelSelection},
	}, shortlist)
}

func TestAISelector_StringArray(t *testing.T) {
	shortlist, _ := selectWith(t, `["README.md"]`, "README.md")

	require.Len(t, shortlist, 1)
	assert.Equal(t, "README.md", shortlist[0].FilePath)
}

func TestAISelector_FallbackOnMalformedAnswer(t *testing.T) {
	for _, reply := range []string{"I think you should read the README.", "[not json]", `[{"file_path": "nope.txt"}]`} {
		shortlist, _ := selectWith(t, reply, "main.py")
		assert.Equal(t, FallbackShortlist(), shortlist, reply)
	}
}

func TestAISelector_ProviderErrors(t *testing.T) {
	boom := errors.New("rate limited")
	selector := NewAISelector(&fakeProvider{err: boom}, nil, 0, nil)

	_, err := selector.SelectFiles(context.Background(), models.SelectionRequest{Tree: buildTree("main.py")})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, SelectorAI, selector.Name())
}

func TestAISelector_IgnoresBracketsInSurroundingProse(t *testing.T) {
	reply := "Based on the tree [1] the relevant files are:\n[{\"file_path\": \"requirements.txt\", \"reason\": \"dependencies\"}]\nSee [docs] for more."

	shortlist, _ := selectWith(t, reply, "requirements.txt", "main.py")

	assert.Equal(t, []models.FileCandidate{
		{FilePath: "requirements.txt", Reason: "dependencies", Priority: models.PriorityModelSelection},
	}, shortlist)
}

func TestParseSelection(t *testing.T) {
	files, err := parseSelection(`note [a] then ["main.py", "README.md"] and [2]`)
	require.NoError(t, err)
	assert.Equal(t, []selectedFile{{FilePath: "main.py"}, {FilePath: "README.md"}}, files)

	files, err = parseSelection("[]")
	require.NoError(t, err)
	assert.Empty(t, files)

	_, err = parseSelection("no array here")
	assert.Error(t, err)
}
