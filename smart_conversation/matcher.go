package smart_conversation

import (
	"fmt"
	"strings"

	file_models "github.com/meysamhadeli/gitai/project_files/models"
	"github.com/meysamhadeli/gitai/smart_conversation/models"
)

// filenameExtensions mark a token as naming a concrete file.
var filenameExtensions = []string{".py", ".js", ".ts", ".json", ".md", ".txt", ".yaml", ".yml", ".toml", ".go"}

var (
	manifestPatterns    = []string{"requirements.txt", "package.json", "pyproject.toml", "setup.py"}
	dependencyPatterns  = []string{"requirements.txt", "package.json", "pyproject.toml"}
	configPatterns      = []string{".env", "config/", "settings/", ".json", ".yaml", ".yml", ".toml"}
	docPatterns         = []string{"README.md", "docs/", ".md"}
	sourcePatterns      = []string{".py", ".js", ".ts"}
	testPatterns        = []string{"test/", "tests/", ".test.", ".spec.", "test_"}
	architecturePattern = []string{"README.md", "docs/", "architecture.md"}
	projectPatterns     = []string{"README.md", "package.json", "pyproject.toml"}
)

// keywordMappings maps a keyword found verbatim in the query to filename patterns.
var keywordMappings = map[string][]string{
	"库":  manifestPatterns,
	"导入": sourcePatterns,
	"依赖": dependencyPatterns,
	"配置": {".env", "config/", "settings/", ".json", ".yaml"},
	"文档": docPatterns,
	"函数": sourcePatterns,
	"类":  sourcePatterns,
	"模块": sourcePatterns,
	"包":  {"requirements.txt", "package.json"},
	"安装": {"requirements.txt", "package.json", "setup.py"},
	"代码": {".py", ".js", ".ts", ".java", ".cpp", ".c"},
	"项目": projectPatterns,
	"架构": architecturePattern,
	"测试": testPatterns,

	"dependency":    manifestPatterns,
	"dependencies":  manifestPatterns,
	"library":       manifestPatterns,
	"libraries":     manifestPatterns,
	"package":       {"requirements.txt", "package.json"},
	"packages":      {"requirements.txt", "package.json"},
	"install":       {"requirements.txt", "package.json", "setup.py"},
	"config":        configPatterns,
	"configuration": configPatterns,
	"settings":      configPatterns,
	"doc":           docPatterns,
	"docs":          docPatterns,
	"documentation": docPatterns,
	"readme":        docPatterns,
	"function":      sourcePatterns,
	"functions":     sourcePatterns,
	"class":         sourcePatterns,
	"classes":       sourcePatterns,
	"module":        sourcePatterns,
	"modules":       sourcePatterns,
	"import":        sourcePatterns,
	"imports":       sourcePatterns,
	"code":          {".py", ".js", ".ts", ".go", ".java", ".cpp", ".c"},
	"test":          testPatterns,
	"tests":         testPatterns,
	"testing":       testPatterns,
	"architecture":  architecturePattern,
	"project":       projectPatterns,
}

var (
	aiModuleTerms      = []string{"ai.py", "ai py", "ai文件", "ai模块", "ai module", "ai file"}
	aiModulePatterns   = []string{"ai.py", "ai_", "_ai"}
	dependencyTerms    = []string{"依赖", "库", "package", "requirement", "depend", "librar"}
	commonConfigFiles  = []string{"README.md", "package.json", "requirements.txt", "pyproject.toml", "setup.py"}
	filenameTrimCutset = "\"'`,;:!?()[]{}<>"
)

// FindFilesInTree returns the relative path of every file whose name contains one of the
// patterns, case-insensitively. A pattern ending in "/" matches a directory of the path instead.
func FindFilesInTree(tree *file_models.FileTreeNode, patterns []string) []string {
	var files []string
	tree.Walk(func(node *file_models.FileTreeNode) {
		if node.IsFile() && matchesAny(node, patterns) {
			files = append(files, node.Path)
		}
	})
	return files
}

func matchesAny(node *file_models.FileTreeNode, patterns []string) bool {
	name := strings.ToLower(node.Name)
	for _, pattern := range patterns {
		pattern = strings.ToLower(pattern)
		if dir, ok := strings.CutSuffix(pattern, "/"); ok {
			if hasDirSegment(strings.ToLower(node.Path), dir) {
				return true
			}
			continue
		}
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}

func hasDirSegment(relativePath string, dir string) bool {
	segments := strings.Split(relativePath, "/")
	for _, segment := range segments[:len(segments)-1] {
		if segment == dir {
			return true
		}
	}
	return false
}

func looksLikeFilename(token string) bool {
	for _, ext := range filenameExtensions {
		if strings.Contains(token, ext) {
			return true
		}
	}
	return false
}

// filenameTokens returns the distinct keywords and raw query tokens that carry a known extension.
func filenameTokens(keywords []string, rawQuery string) []string {
	seen := make(map[string]struct{})
	var tokens []string
	add := func(token string) {
		if _, ok := seen[token]; ok || !looksLikeFilename(token) {
			return
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}

	for _, keyword := range keywords {
		add(strings.ToLower(keyword))
	}
	for _, field := range strings.Fields(strings.ToLower(rawQuery)) {
		token := strings.TrimRight(strings.Trim(field, filenameTrimCutset), ".")
		// only the base name is searched, the tree matches on file names
		if i := strings.LastIndexAny(token, `/\`); i >= 0 {
			token = token[i+1:]
		}
		add(token)
	}
	return tokens
}

// containsTerm matches multi-word ASCII terms on word boundaries and everything else as a substring.
func containsTerm(joined string, term string) bool {
	if strings.Contains(term, " ") {
		return strings.Contains(" "+joined+" ", " "+term+" ")
	}
	return strings.Contains(joined, term)
}

func containsAnyTerm(joined string, terms []string) bool {
	for _, term := range terms {
		if containsTerm(joined, term) {
			return true
		}
	}
	return false
}

// MatchFiles runs the relevance passes over the tree. Candidates may repeat across passes;
// RankCandidates merges them.
func MatchFiles(tree *file_models.FileTreeNode, keywords []string, fileTypes []string, rawQuery string) []models.FileCandidate {
	var candidates []models.FileCandidate
	add := func(paths []string, reason string, priority int) {
		for _, path := range paths {
			candidates = append(candidates, models.FileCandidate{FilePath: path, Reason: reason, Priority: priority})
		}
	}

	if tree == nil {
		return candidates
	}

	// 1. exact file names
	for _, token := range filenameTokens(keywords, rawQuery) {
		add(FindFilesInTree(tree, []string{token}), fmt.Sprintf("exact filename match '%s'", token), models.PriorityExactFilename)
	}

	// 2. curated keyword mapping
	for _, keyword := range keywords {
		if patterns, ok := keywordMappings[keyword]; ok {
			add(FindFilesInTree(tree, patterns), fmt.Sprintf("keyword '%s' match", keyword), models.PriorityKeywordMapping)
		}
	}

	// 3. query intent
	joined := strings.ToLower(strings.Join(keywords, " "))
	if containsAnyTerm(joined, aiModuleTerms) {
		add(FindFilesInTree(tree, aiModulePatterns), "ai related file", models.PriorityAIModuleIntent)
	}
	if containsAnyTerm(joined, dependencyTerms) {
		add(FindFilesInTree(tree, dependencyPatterns), "dependency manifest", models.PriorityDependencyIntent)
	}

	// 4. file type categories
	for _, fileType := range fileTypes {
		add(FindFilesInTree(tree, CategoryPatterns(fileType)), fmt.Sprintf("file type '%s' match", fileType), models.PriorityFileTypeCategory)
	}

	// 5. common project files
	for _, name := range commonConfigFiles {
		add(FindFilesInTree(tree, []string{name}), "common project file", models.PriorityDefaultConfig)
	}

	return candidates
}
