package smart_conversation

import (
	"context"
	"strings"

	"github.com/meysamhadeli/gitai/smart_conversation/contracts"
	"github.com/meysamhadeli/gitai/smart_conversation/models"
	"go.uber.org/zap"
)

const (
	SelectorHeuristic = "heuristic"
	SelectorAI        = "ai"
)

// HeuristicSelector picks files from keywords, file types and query intent.
type HeuristicSelector struct {
	limit  int
	logger *zap.Logger
}

func NewHeuristicSelector(limit int, logger *zap.Logger) contracts.IFileSelector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeuristicSelector{limit: limit, logger: logger.Named("heuristic_selector")}
}

func (s *HeuristicSelector) Name() string {
	return SelectorHeuristic
}

func (s *HeuristicSelector) SelectFiles(ctx context.Context, request models.SelectionRequest) ([]models.FileCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	keywords := ExtractKeywords(strings.ToLower(request.Query))
	fileTypes := IdentifyFileTypes(keywords)
	candidates := MatchFiles(request.Tree, keywords, fileTypes, request.Query)
	shortlist := RankCandidates(candidates, s.limit)

	s.logger.Debug("files selected",
		zap.Strings("keywords", keywords),
		zap.Strings("file_types", fileTypes),
		zap.Int("candidates", len(candidates)),
		zap.Int("shortlist", len(shortlist)),
	)
	return shortlist, nil
}
