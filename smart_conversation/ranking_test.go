package smart_conversation

import (
	"fmt"
	"testing"

	"github.com/meysamhadeli/gitai/smart_conversation/models"
	"github.com/stretchr/testify/assert"
)

func TestRankCandidates_StableByPriority(t *testing.T) {
	candidates := []models.FileCandidate{
		{FilePath: "a", Priority: 5},
		{FilePath: "b", Priority: 20},
		{FilePath: "c", Priority: 10},
		{FilePath: "d", Priority: 20},
	}

	ranked := RankCandidates(candidates, 8)

	var order []string
	for _, c := range ranked {
		order = append(order, c.FilePath)
	}
	assert.Equal(t, []string{"b", "d", "c", "a"}, order)
}

func TestRankCandidates_DeduplicatesKeepingHighestPriority(t *testing.T) {
	candidates := []models.FileCandidate{
		{FilePath: "main.py", Reason: "file type 'python' match", Priority: 10},
		{FilePath: "README.md", Reason: "common project file", Priority: 5},
		{FilePath: "main.py", Reason: "keyword 'module' match", Priority: 15},
		{FilePath: "main.py", Reason: "common project file", Priority: 5},
	}

	ranked := RankCandidates(candidates, 8)

	assert.Equal(t, []models.FileCandidate{
		{FilePath: "main.py", Reason: "keyword 'module' match", Priority: 15},
		{FilePath: "README.md", Reason: "common project file", Priority: 5},
	}, ranked)
}

func TestRankCandidates_TiesKeepFirstSeenReason(t *testing.T) {
	ranked := RankCandidates([]models.FileCandidate{
		{FilePath: "x", Reason: "first", Priority: 10},
		{FilePath: "x", Reason: "second", Priority: 10},
	}, 8)

	assert.Equal(t, []models.FileCandidate{{FilePath: "x", Reason: "first", Priority: 10}}, ranked)
}

func TestRankCandidates_Limit(t *testing.T) {
	var candidates []models.FileCandidate
	for i := 0; i < 50; i++ {
		candidates = append(candidates, models.FileCandidate{FilePath: fmt.Sprintf("f%d", i), Priority: i % 7})
	}

	assert.Len(t, RankCandidates(candidates, 0), models.MaxShortlist)
	assert.Len(t, RankCandidates(candidates, 100), models.MaxShortlist)
	assert.Len(t, RankCandidates(candidates, 3), 3)
	assert.Empty(t, RankCandidates(nil, 8))
}
