package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/meysamhadeli/gitai/repository/contracts"
	"github.com/meysamhadeli/gitai/repository/models"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var (
	ErrRepositoryNotFound = errors.New("repository not found")
	ErrAmbiguousName      = errors.New("repository name is ambiguous")
	ErrNotADirectory      = errors.New("repository path is not a directory")
)

const schema = `
	CREATE TABLE IF NOT EXISTS repositories (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		local_path TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		remote_url TEXT,
		created_at TEXT NOT NULL,
		last_accessed TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_repositories_name ON repositories(name);
`

// timeLayout has a fixed width so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const selectColumns = `SELECT id, local_path, name, remote_url, created_at, last_accessed FROM repositories`

// RepositoryStore is the SQLite backed repository registry.
type RepositoryStore struct {
	conn   *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenRepositoryStore opens or creates the registry database at dbPath.
func OpenRepositoryStore(dbPath string, logger *zap.Logger) (contracts.IRepositoryStore, error) {
	return openRepositoryStore(dbPath, logger)
}

func openRepositoryStore(dbPath string, logger *zap.Logger) (*RepositoryStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := conn.Exec(pragma); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := conn.Exec(schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize repository schema: %w", err)
	}

	return &RepositoryStore{conn: conn, logger: logger.Named("repository"), now: time.Now}, nil
}

func (s *RepositoryStore) Close() error {
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// NormalizePath makes a path absolute and resolves symlinks when the path exists.
func NormalizePath(localPath string) (string, error) {
	absolute, err := filepath.Abs(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", localPath, err)
	}
	if resolved, err := filepath.EvalSymlinks(absolute); err == nil {
		return resolved, nil
	}
	return absolute, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRepository(row rowScanner) (*models.Repository, error) {
	var (
		repo         models.Repository
		remoteURL    sql.NullString
		createdAt    string
		lastAccessed string
	)
	if err := row.Scan(&repo.ID, &repo.LocalPath, &repo.Name, &remoteURL, &createdAt, &lastAccessed); err != nil {
		return nil, err
	}
	repo.RemoteURL = remoteURL.String
	repo.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	repo.LastAccessed, _ = time.Parse(timeLayout, lastAccessed)
	return &repo, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Add registers a directory. Adding a path that is already registered returns the existing entry.
func (s *RepositoryStore) Add(ctx context.Context, localPath string, name string, remoteURL string) (*models.Repository, error) {
	normalized, err := NormalizePath(localPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to access %s: %w", normalized, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", normalized, ErrNotADirectory)
	}

	if existing, err := s.GetByPath(ctx, normalized); err == nil {
		return existing, nil
	} else if !errors.Is(err, ErrRepositoryNotFound) {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = filepath.Base(normalized)
	}
	now := s.now().UTC().Format(timeLayout)

	result, err := s.conn.ExecContext(ctx,
		`INSERT INTO repositories (local_path, name, remote_url, created_at, last_accessed) VALUES (?, ?, ?, ?, ?)`,
		normalized, name, nullString(remoteURL), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add repository: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to add repository: %w", err)
	}

	s.logger.Info("repository added", zap.String("path", normalized), zap.String("name", name))
	return s.getByID(ctx, id)
}

func (s *RepositoryStore) getByID(ctx context.Context, id int64) (*models.Repository, error) {
	repo, err := scanRepository(s.conn.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRepositoryNotFound
	}
	return repo, err
}

// List returns every repository, newest first.
func (s *RepositoryStore) List(ctx context.Context) ([]models.Repository, error) {
	rows, err := s.conn.QueryContext(ctx, selectColumns+` ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories: %w", err)
	}
	defer rows.Close()

	repositories := make([]models.Repository, 0)
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		repositories = append(repositories, *repo)
	}
	return repositories, rows.Err()
}

func (s *RepositoryStore) GetByPath(ctx context.Context, localPath string) (*models.Repository, error) {
	normalized, err := NormalizePath(localPath)
	if err != nil {
		return nil, err
	}

	repo, err := scanRepository(s.conn.QueryRowContext(ctx, selectColumns+` WHERE local_path = ?`, normalized))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", normalized, ErrRepositoryNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}
	return repo, nil
}

// Resolve finds a repository by name, falling back to its path.
func (s *RepositoryStore) Resolve(ctx context.Context, nameOrPath string) (*models.Repository, error) {
	rows, err := s.conn.QueryContext(ctx, selectColumns+` WHERE name = ? ORDER BY id`, nameOrPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get repository: %w", err)
	}
	var matches []*models.Repository
	for rows.Next() {
		repo, err := scanRepository(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan repository: %w", err)
		}
		matches = append(matches, repo)
	}
	rows.Close()

	switch len(matches) {
	case 0:
		return s.GetByPath(ctx, nameOrPath)
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%s matches %d repositories, use the path: %w", nameOrPath, len(matches), ErrAmbiguousName)
	}
}

func (s *RepositoryStore) Remove(ctx context.Context, nameOrPath string) error {
	repo, err := s.Resolve(ctx, nameOrPath)
	if err != nil {
		return err
	}
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM repositories WHERE id = ?`, repo.ID); err != nil {
		return fmt.Errorf("failed to remove repository: %w", err)
	}
	s.logger.Info("repository removed", zap.String("path", repo.LocalPath))
	return nil
}

// Touch updates the last accessed time of a registered path.
func (s *RepositoryStore) Touch(ctx context.Context, localPath string) error {
	normalized, err := NormalizePath(localPath)
	if err != nil {
		return err
	}

	result, err := s.conn.ExecContext(ctx,
		`UPDATE repositories SET last_accessed = ? WHERE local_path = ?`,
		s.now().UTC().Format(timeLayout), normalized,
	)
	if err != nil {
		return fmt.Errorf("failed to update repository: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%s: %w", normalized, ErrRepositoryNotFound)
	}
	return nil
}
