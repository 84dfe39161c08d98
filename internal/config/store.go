package config

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"gitupdate/internal/command"
	apperrors "gitupdate/internal/errors"
)

// Store backends selectable through KeyStoreBackend.
const (
	BackendFile   = "file"
	BackendGit    = "git"
	BackendSQLite = "sqlite"
)

// Store persists the small amount of state git-update keeps between runs:
// the proxy discovered by the fallback and the last version the user was
// asked about. Missing keys read as "".
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// StoreOptions select and configure a Store backend.
type StoreOptions struct {
	Backend string
	Path    string
	Runner  command.Runner
}

// OpenStore returns the Store for opts.Backend. An empty backend means file.
func OpenStore(opts StoreOptions) (Store, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	path := strings.TrimSpace(opts.Path)
	switch backend {
	case "", BackendFile:
		if path == "" {
			p, err := findWritableConfigPath()
			if err != nil {
				return nil, apperrors.New(apperrors.CodeConfigurationError, "", fmt.Errorf("find config path: %w", err))
			}
			path = p
		}
		return NewFileStore(path), nil
	case BackendGit:
		return NewGitStore(opts.Runner), nil
	case BackendSQLite:
		if path == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, apperrors.New(apperrors.CodeConfigurationError, "", fmt.Errorf("determine user home: %w", err))
			}
			path = filepath.Join(home, DirName, "state.db")
		}
		return NewSQLiteStore(path), nil
	default:
		return nil, apperrors.New(apperrors.CodeConfigurationError,
			fmt.Sprintf("unknown store backend %q (want %s, %s or %s)", opts.Backend, BackendFile, BackendGit, BackendSQLite), nil)
	}
}

// FileStore keeps state in a YAML config file, next to the settings.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string {
	return s.path
}

// Get implements Store.
func (s *FileStore) Get(_ context.Context, key string) (string, error) {
	v, err := s.load()
	if err != nil {
		return "", err
	}
	return v.GetString(key), nil
}

// Set implements Store. Other keys in the file are preserved.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	v, err := s.load()
	if err != nil {
		return err
	}
	v.Set(key, value)

	dir := filepath.Dir(s.path)
	//nolint:gosec // G301: User config directory needs standard permissions
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// load reads the file into a fresh viper instance so that values from the
// environment or other config files never leak into what is written back.
func (s *FileStore) load() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := mergeConfigFile(v, s.path); err != nil {
		return nil, err
	}
	return v, nil
}

// GitStore keeps state in the user's global git config.
type GitStore struct {
	runner command.Runner
	bin    string
}

// NewGitStore creates a GitStore. A nil runner runs git directly.
func NewGitStore(runner command.Runner) *GitStore {
	if runner == nil {
		runner = command.ExecRunner{}
	}
	return &GitStore{runner: runner, bin: "git"}
}

// Get implements Store.
func (s *GitStore) Get(ctx context.Context, key string) (string, error) {
	out, err := s.runner.Run(ctx, s.bin, "config", "--global", "--get", key)
	if err != nil {
		// git config exits 1 when the key is not set.
		if code, ok := command.ExitCode(err); ok && code == 1 {
			return "", nil
		}
		return "", fmt.Errorf("git config --get %s: %w", key, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Set implements Store.
func (s *GitStore) Set(ctx context.Context, key, value string) error {
	if out, err := s.runner.Run(ctx, s.bin, "config", "--global", key, value); err != nil {
		return fmt.Errorf("git config %s: %w: %s", key, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// SQLiteStore keeps state in a key/value table of a SQLite database.
type SQLiteStore struct {
	path string
	dsn  string
}

// NewSQLiteStore creates a SQLiteStore backed by the database at path. The
// database is created on first write.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path, dsn: buildSQLiteDSN(path)}
}

func buildSQLiteDSN(dbPath string) string {
	if abs, err := filepath.Abs(dbPath); err == nil {
		dbPath = abs
	}
	p := filepath.ToSlash(dbPath)
	if !strings.HasPrefix(p, "/") {
		// Windows drive paths: file:///C:/...
		p = "/" + p
	}
	u := url.URL{
		Scheme: "file",
		Path:   p,
	}
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(3000)")
	q.Add("_pragma", "journal_mode(WAL)")
	u.RawQuery = q.Encode()
	return u.String()
}

func (s *SQLiteStore) openDB(ctx context.Context) (*sql.DB, error) {
	//nolint:gosec // G301: User config directory needs standard permissions
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return nil, fmt.Errorf("create state directory: %w", err)
	}
	db, err := sql.Open("sqlite", s.dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS state (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}
	return db, nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, error) {
	db, err := s.openDB(ctx)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = db.Close()
	}()

	var value string
	err = db.QueryRowContext(ctx, `SELECT value FROM state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

// Set implements Store.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	db, err := s.openDB(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	if _, err := db.ExecContext(ctx, `
		INSERT INTO state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
