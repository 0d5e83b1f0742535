package smart_conversation

import (
	"fmt"
	"testing"

	"github.com/meysamhadeli/gitai/smart_conversation/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priorities(candidates []models.FileCandidate) map[string]int {
	best := make(map[string]int)
	for _, c := range candidates {
		if c.Priority > best[c.FilePath] {
			best[c.FilePath] = c.Priority
		}
	}
	return best
}

func TestFindFilesInTree(t *testing.T) {
	tree := buildTree("config/app.yaml", "docs/guide.md", "src/main.go", "config", "README.md")

	assert.Equal(t, []string{"config/app.yaml"}, FindFilesInTree(tree, []string{"config/"}))
	assert.Equal(t, []string{"docs/guide.md", "README.md"}, FindFilesInTree(tree, []string{".MD"}))
	assert.Equal(t, []string{"src/main.go"}, FindFilesInTree(tree, []string{"main"}))
	assert.Empty(t, FindFilesInTree(tree, []string{"tests/"}))
	assert.Empty(t, FindFilesInTree(nil, []string{".md"}))
}

func TestMatchFiles_DependencyQuery(t *testing.T) {
	tree := buildTree("requirements.txt", "main.py")
	keywords := ExtractKeywords("what dependencies does this project use")

	candidates := MatchFiles(tree, keywords, IdentifyFileTypes(keywords), "what dependencies does this project use")
	best := priorities(candidates)

	assert.Equal(t, models.PriorityDependencyIntent, best["requirements.txt"])
	assert.Equal(t, models.PriorityFileTypeCategory, best["main.py"])
}

func TestMatchFiles_AIModuleIntent(t *testing.T) {
	tree := buildTree("app/core/ai_manager.py", "app/core/db.py", "README.md")
	query := "explain the ai.py module"
	keywords := ExtractKeywords(query)

	best := priorities(MatchFiles(tree, keywords, IdentifyFileTypes(keywords), query))

	assert.Equal(t, models.PriorityAIModuleIntent, best["app/core/ai_manager.py"])
	assert.Equal(t, models.PriorityKeywordMapping, best["app/core/db.py"])
	assert.Equal(t, models.PriorityDefaultConfig, best["README.md"])
}

func TestMatchFiles_AIModuleIntentNeedsWholeWords(t *testing.T) {
	tree := buildTree("app/ai_manager.py")
	keywords := []string{"ai", "python"}

	best := priorities(MatchFiles(tree, keywords, []string{"documentation"}, "ai python"))

	assert.NotContains(t, best, "app/ai_manager.py")
}

func TestMatchFiles_ExactFilenameFromRawQuery(t *testing.T) {
	tree := buildTree("src/server.go", "src/client.go")
	query := "what does src/server.go do?"
	keywords := ExtractKeywords(query)

	candidates := MatchFiles(tree, keywords, IdentifyFileTypes(keywords), query)

	require.NotEmpty(t, candidates)
	assert.Equal(t, models.FileCandidate{
		FilePath: "src/server.go",
		Reason:   "exact filename match 'server.go'",
		Priority: models.PriorityExactFilename,
	}, candidates[0])
	assert.NotContains(t, priorities(candidates), "src/client.go")
}

func TestMatchFiles_ChineseKeywords(t *testing.T) {
	tree := buildTree("package.json", "src/index.js", "tests/app.test.js")
	keywords := []string{"项目", "测试"}

	best := priorities(MatchFiles(tree, keywords, IdentifyFileTypes(keywords), "项目 测试"))

	assert.Equal(t, models.PriorityKeywordMapping, best["package.json"])
	assert.Equal(t, models.PriorityKeywordMapping, best["tests/app.test.js"])
	assert.Equal(t, models.PriorityFileTypeCategory, best["src/index.js"])
}

func TestMatchFiles_DependencyIntentChinese(t *testing.T) {
	tree := buildTree("pyproject.toml")

	best := priorities(MatchFiles(tree, []string{"这个项目用了哪些依赖"}, []string{"build"}, "这个项目用了哪些依赖"))

	assert.Equal(t, models.PriorityDependencyIntent, best["pyproject.toml"])
}

func TestMatchFiles_EmptyProject(t *testing.T) {
	assert.Empty(t, MatchFiles(buildTree(), []string{"anything"}, DefaultFileTypes, "anything"))
	assert.Empty(t, MatchFiles(nil, []string{"anything"}, DefaultFileTypes, "anything"))
}

func TestHeuristicShortlistIsCapped(t *testing.T) {
	var paths []string
	for i := 0; i < 30; i++ {
		paths = append(paths, fmt.Sprintf("pkg/module_%02d.py", i))
	}
	tree := buildTree(paths...)
	keywords := []string{"module", "python"}

	shortlist := RankCandidates(MatchFiles(tree, keywords, IdentifyFileTypes(keywords), "module python"), 0)

	assert.Len(t, shortlist, models.MaxShortlist)
	assert.Equal(t, "pkg/module_00.py", shortlist[0].FilePath)
}
