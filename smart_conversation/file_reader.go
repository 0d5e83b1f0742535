package smart_conversation

import (
	"context"
	"errors"
	"path"
	"strings"

	"github.com/meysamhadeli/gitai/metrics"
	"github.com/meysamhadeli/gitai/project_files/contracts"
	"github.com/meysamhadeli/gitai/smart_conversation/models"
	"go.uber.org/zap"
)

var errEmptyContent = errors.New("file is empty")

// alternateNames are tried, in the same directory, after the case and prefix corrections fail.
// Keys are exact base names; a file outside this set gets no alternates.
var alternateNames = map[string][]string{
	"requirements.txt": {"requirements.txt", "reqs.txt"},
	"package.json":     {"package.json", "package-lock.json"},
	"README.md":        {"README.md", "readme.md", "Readme.md"},
	"pyproject.toml":   {"pyproject.toml"},
	"setup.py":         {"setup.py"},
}

// AutoFileReader reads a shortlist through IFileAccess, correcting paths that do not resolve.
type AutoFileReader struct {
	fileAccess contracts.IFileAccess
	logger     *zap.Logger
}

func NewAutoFileReader(fileAccess contracts.IFileAccess, logger *zap.Logger) *AutoFileReader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AutoFileReader{fileAccess: fileAccess, logger: logger.Named("file_reader")}
}

// PathCorrections lists the paths tried for filePath, in order, starting with filePath itself.
func PathCorrections(filePath string) []string {
	trimmed := filePath
	for strings.HasPrefix(trimmed, "./") {
		trimmed = strings.TrimPrefix(trimmed, "./")
	}

	attempts := []string{
		filePath,
		strings.ToLower(filePath),
		strings.ToUpper(filePath),
		"./" + filePath,
		trimmed,
	}

	dir, base := path.Split(trimmed)
	for _, name := range alternateNames[base] {
		attempts = append(attempts, dir+name)
	}

	seen := make(map[string]struct{}, len(attempts))
	unique := attempts[:0]
	for _, attempt := range attempts {
		if _, ok := seen[attempt]; ok || attempt == "" || attempt == "./" {
			continue
		}
		seen[attempt] = struct{}{}
		unique = append(unique, attempt)
	}
	return unique
}

func (r *AutoFileReader) read(ctx context.Context, projectRoot string, filePath string) (string, error) {
	content, err := r.fileAccess.ReadProjectFile(ctx, projectRoot, filePath)
	if err != nil {
		return "", err
	}
	if content == "" {
		return "", errEmptyContent
	}
	return content, nil
}

// ReadFiles reads every candidate sequentially. Files that cannot be read with any correction
// are left out of the returned map, which never holds empty content. The outcomes list has one
// entry per candidate. Only a cancelled context stops the loop early.
func (r *AutoFileReader) ReadFiles(ctx context.Context, projectRoot string, shortlist []models.FileCandidate) (map[string]string, []models.ReadOutcome, error) {
	contents := make(map[string]string, len(shortlist))
	outcomes := make([]models.ReadOutcome, 0, len(shortlist))

	for _, candidate := range shortlist {
		if err := ctx.Err(); err != nil {
			return contents, outcomes, err
		}

		outcome := models.ReadOutcome{RequestedPath: candidate.FilePath}
		var firstErr error
		for i, attempt := range PathCorrections(candidate.FilePath) {
			content, err := r.read(ctx, projectRoot, attempt)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				if ctx.Err() != nil {
					return contents, outcomes, ctx.Err()
				}
				continue
			}

			if i > 0 {
				r.logger.Info("path corrected", zap.String("requested", candidate.FilePath), zap.String("resolved", attempt))
			}
			contents[attempt] = content
			outcome.ResolvedPath = attempt
			outcome.OK = true
			outcome.Corrected = i > 0
			break
		}

		switch {
		case outcome.Corrected:
			metrics.RecordFileRead("corrected")
		case outcome.OK:
			metrics.RecordFileRead("read")
		default:
			metrics.RecordFileRead("missing")
			if firstErr != nil {
				outcome.Err = firstErr.Error()
			}
			r.logger.Warn("file dropped from context", zap.String("file", candidate.FilePath), zap.Error(firstErr))
		}
		outcomes = append(outcomes, outcome)
	}

	return contents, outcomes, nil
}
