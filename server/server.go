package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/meysamhadeli/gitai/metrics"
	"github.com/meysamhadeli/gitai/project_files"
	file_contracts "github.com/meysamhadeli/gitai/project_files/contracts"
	"github.com/meysamhadeli/gitai/providers"
	"github.com/meysamhadeli/gitai/repository"
	repo_contracts "github.com/meysamhadeli/gitai/repository/contracts"
	"github.com/meysamhadeli/gitai/smart_conversation/contracts"
	"go.uber.org/zap"
)

const (
	maxRequestBody  = 1 << 20
	shutdownTimeout = 5 * time.Second
)

// Server exposes the smart chat pipeline over HTTP.
type Server struct {
	chat         contracts.ISmartChat
	fileAccess   file_contracts.IFileAccess
	repositories repo_contracts.IRepositoryStore
	maxTreeDepth int
	logger       *zap.Logger
}

type Options struct {
	Chat         contracts.ISmartChat
	FileAccess   file_contracts.IFileAccess
	Repositories repo_contracts.IRepositoryStore
	MaxTreeDepth int
	Logger       *zap.Logger
}

func NewServer(options Options) *Server {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxTreeDepth := options.MaxTreeDepth
	if maxTreeDepth <= 0 {
		maxTreeDepth = 10
	}
	return &Server{
		chat:         options.Chat,
		fileAccess:   options.FileAccess,
		repositories: options.Repositories,
		maxTreeDepth: maxTreeDepth,
		logger:       logger.Named("server"),
	}
}

// SmartChatRequest is the body of POST /api/smart-chat. Either ProjectPath or Repo is required.
type SmartChatRequest struct {
	ConversationID string `json:"conversation_id"`
	ProjectPath    string `json:"project_path"`
	Repo           string `json:"repo"`
	Query          string `json:"query"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// Handler returns the HTTP handler with logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())
	mux.HandleFunc("GET /api/providers", s.handleProviders)
	mux.HandleFunc("GET /api/projects/tree", s.handleTree)
	mux.HandleFunc("GET /api/projects/file", s.handleFile)
	mux.HandleFunc("GET /api/repositories", s.handleRepositories)
	mux.HandleFunc("POST /api/smart-chat", s.handleSmartChat)

	return metrics.Middleware(s.logRequests(mux))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", zap.String("addr", listener.Addr().String()))
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		s.logger.Info("server stopped")
		return nil
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.logger.Debug("request completed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	s.writeJSON(w, code, ErrorResponse{Error: message, Code: code})
}

// statusFor maps file access and registry errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, project_files.ErrFileNotFound),
		errors.Is(err, repository.ErrRepositoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, project_files.ErrPermissionDenied),
		errors.Is(err, project_files.ErrOutsideProject):
		return http.StatusForbidden
	case errors.Is(err, project_files.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, project_files.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, project_files.ErrInvalidProjectPath),
		errors.Is(err, project_files.ErrNotAFile),
		errors.Is(err, repository.ErrAmbiguousName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"providers": providers.AvailableProviders()})
}

func (s *Server) handleRepositories(w http.ResponseWriter, r *http.Request) {
	if s.repositories == nil {
		s.sendError(w, http.StatusServiceUnavailable, "repository registry not available")
		return
	}
	repositories, err := s.repositories.List(r.Context())
	if err != nil {
		s.sendError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"repositories": repositories})
}

// resolveProject returns the project path for a request, looking up registered names.
func (s *Server) resolveProject(ctx context.Context, projectPath string, repo string) (string, error) {
	if projectPath != "" {
		return projectPath, nil
	}
	if repo == "" {
		return "", fmt.Errorf("project_path or repo is required: %w", project_files.ErrInvalidProjectPath)
	}
	if s.repositories == nil {
		return "", fmt.Errorf("repository registry not available: %w", repository.ErrRepositoryNotFound)
	}
	registered, err := s.repositories.Resolve(ctx, repo)
	if err != nil {
		return "", err
	}
	if err := s.repositories.Touch(ctx, registered.LocalPath); err != nil {
		s.logger.Warn("failed to update last access", zap.Error(err))
	}
	return registered.LocalPath, nil
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	projectPath, err := s.resolveProject(r.Context(), query.Get("path"), query.Get("repo"))
	if err != nil {
		s.sendError(w, statusFor(err), err.Error())
		return
	}

	maxDepth := s.maxTreeDepth
	if raw := query.Get("max_depth"); raw != "" {
		depth, err := strconv.Atoi(raw)
		if err != nil || depth < 0 {
			s.sendError(w, http.StatusBadRequest, "max_depth must be a non-negative integer")
			return
		}
		maxDepth = depth
	}

	tree, err := s.fileAccess.ListProjectFiles(r.Context(), projectPath, maxDepth)
	if err != nil {
		s.sendError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, tree)
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	projectPath, err := s.resolveProject(r.Context(), query.Get("path"), query.Get("repo"))
	if err != nil {
		s.sendError(w, statusFor(err), err.Error())
		return
	}
	filePath := query.Get("file")
	if filePath == "" {
		s.sendError(w, http.StatusBadRequest, "file is required")
		return
	}

	content, err := s.fileAccess.ReadProjectFile(r.Context(), projectPath, filePath)
	if err != nil {
		s.sendError(w, statusFor(err), err.Error())
		return
	}
	metadata, err := s.fileAccess.GetFileMetadata(r.Context(), projectPath, filePath)
	if err != nil {
		s.sendError(w, statusFor(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"content": content, "metadata": metadata})
}

func (s *Server) handleSmartChat(w http.ResponseWriter, r *http.Request) {
	var request SmartChatRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		s.sendError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(request.Query) == "" {
		s.sendError(w, http.StatusBadRequest, "query is required")
		return
	}

	projectPath, err := s.resolveProject(r.Context(), request.ProjectPath, request.Repo)
	if err != nil {
		s.sendError(w, statusFor(err), err.Error())
		return
	}

	result := s.chat.ProcessSmartChat(r.Context(), request.ConversationID, projectPath, request.Query)
	s.writeJSON(w, http.StatusOK, result)
}
