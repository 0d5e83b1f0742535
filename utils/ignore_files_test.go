package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsDefaultIgnored(t *testing.T) {
	assert.True(t, IsDefaultIgnored("node_modules/react/index.js"))
	assert.True(t, IsDefaultIgnored("backend/__pycache__"))
	assert.True(t, IsDefaultIgnored(".git"))
	assert.True(t, IsDefaultIgnored("assets/logo.PNG"))
	assert.True(t, IsDefaultIgnored("venv/lib/site.py"))

	assert.False(t, IsDefaultIgnored("app/build_utils.py"))
	assert.False(t, IsDefaultIgnored("src/distance.py"))
	assert.False(t, IsDefaultIgnored(".env"))
	assert.False(t, IsDefaultIgnored("requirements.txt"))
}

func TestGetGitignorePatterns(t *testing.T) {
	ClearGitignoreCache()
	root := t.TempDir()

	patterns, err := GetGitignorePatterns(root)
	require.NoError(t, err)
	assert.Empty(t, patterns)

	require.NoError(t, os.WriteFile(filepath.Join(root, IgnoreFileName), []byte("# comment\n\n*.lock\nfixtures/\n"), 0644))

	patterns, err = GetGitignorePatterns(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"*.lock", "fixtures/"}, patterns)
}

func TestIsGitIgnored(t *testing.T) {
	patterns := []string{"*.lock", "fixtures/", "docs/generated.md"}

	assert.True(t, IsGitIgnored("frontend/yarn.lock", patterns))
	assert.True(t, IsGitIgnored("fixtures/data.json", patterns))
	assert.True(t, IsGitIgnored("fixtures", patterns))
	assert.True(t, IsGitIgnored("docs/generated.md", patterns))

	assert.False(t, IsGitIgnored("docs/index.md", patterns))
	assert.False(t, IsGitIgnored("package.json", patterns))
}
