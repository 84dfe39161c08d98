package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

// Settings keys.
const (
	KeyHostName           = "host.name"
	KeyHostVersionCommand = "host.version-command"
	KeyHostVersionPrefix  = "host.version-prefix"

	KeyLatestTagURL  = "update.latest-tag-url"
	KeyReleasesURL   = "update.releases-url"
	KeyShellPath     = "update.shell-path"
	KeyInstallerArgs = "update.installer-args"
	KeyDownloadDir   = "update.download-dir"

	KeyHTTPTimeout = "http.timeout"

	KeyToastHelper = "toast.helper"
	KeyToastExpire = "toast.expire"
	KeyAskYesNo    = "ui.askyesno"

	KeyStoreBackend = "store.backend"
	KeyStorePath    = "store.path"

	KeyDebug = "debug"
)

// Persisted state keys, read and written through a Store.
const (
	StoreKeyProxy       = "http.proxy"
	StoreKeyFromVersion = "update.fromVersion"
)

const (
	// DirName is the directory holding config files, both per user and per project.
	DirName = ".git-update"
	// FileName is the config file name inside DirName.
	FileName = "config.yaml"

	DefaultLatestTagURL = "https://gitforwindows.org/latest-tag.txt"
	DefaultReleasesURL  = "https://api.github.com/repos/git-for-windows/git/releases/latest"
	DefaultToastExpire  = 15 * time.Second
	DefaultHTTPTimeout  = 30 * time.Second

	envPrefix = "GIT_UPDATE"
)

type initSettings struct {
	workingDir        string
	projectConfigPath string
	userConfigPath    string
}

// Option configures Initialize behaviour. Useful for tests to override paths.
type Option func(*initSettings)

// WithWorkingDir overrides the directory used for project config discovery.
func WithWorkingDir(dir string) Option {
	return func(cfg *initSettings) {
		cfg.workingDir = dir
	}
}

// WithProjectConfig explicitly sets the project config path instead of discovery.
func WithProjectConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.projectConfigPath = path
	}
}

// WithUserConfig overrides the default user config path.
func WithUserConfig(path string) Option {
	return func(cfg *initSettings) {
		cfg.userConfigPath = path
	}
}

var (
	configOnce sync.Once
	configMu   sync.RWMutex
	configInst *viper.Viper
	initErr    error

	// userConfigPathOverride is used by tests to override the user config path.
	userConfigPathOverride string
)

// Initialize loads configuration using the precedence:
// defaults < user config < project config < environment variables < overrides.
func Initialize(opts ...Option) error {
	configOnce.Do(func() {
		settings := initSettings{}
		for _, opt := range opts {
			opt(&settings)
		}
		initErr = configure(&settings)
	})
	return initErr
}

// ApplyOverrides injects values typically coming from CLI flags.
func ApplyOverrides(overrides map[string]any) error {
	if len(overrides) == 0 {
		return nil
	}
	if err := Initialize(); err != nil {
		return err
	}
	configMu.Lock()
	defer configMu.Unlock()
	if configInst == nil {
		return fmt.Errorf("configuration not initialized")
	}
	for k, v := range overrides {
		configInst.Set(k, v)
	}
	return nil
}

// GetString fetches a string configuration value, initializing on demand.
func GetString(key string) string {
	v, err := getViper()
	if err != nil {
		return ""
	}
	return v.GetString(key)
}

// GetStringSlice fetches a list configuration value, initializing on demand.
// A plain string value is split on whitespace.
func GetStringSlice(key string) []string {
	v, err := getViper()
	if err != nil {
		return nil
	}
	if s, ok := v.Get(key).(string); ok {
		return strings.Fields(s)
	}
	return v.GetStringSlice(key)
}

// GetBool fetches a bool configuration value, initializing on demand.
func GetBool(key string) bool {
	v, err := getViper()
	if err != nil {
		return false
	}
	return v.GetBool(key)
}

// GetDuration fetches a duration configuration value, initializing on demand.
func GetDuration(key string) time.Duration {
	v, err := getViper()
	if err != nil {
		return 0
	}
	return v.GetDuration(key)
}

func configure(settings *initSettings) error {
	workingDir := strings.TrimSpace(settings.workingDir)
	if workingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		workingDir = wd
	}

	userConfigPath := strings.TrimSpace(settings.userConfigPath)
	if userConfigPath == "" {
		path, err := defaultUserConfigPath()
		if err != nil {
			return err
		}
		userConfigPath = path
	}

	projectConfigPath := strings.TrimSpace(settings.projectConfigPath)
	if projectConfigPath == "" {
		path, err := findProjectConfig(workingDir)
		if err != nil {
			return err
		}
		projectConfigPath = path
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := mergeConfigFile(v, userConfigPath); err != nil {
		return fmt.Errorf("load user config: %w", err)
	}
	if err := mergeConfigFile(v, projectConfigPath); err != nil {
		return fmt.Errorf("load project config: %w", err)
	}

	configMu.Lock()
	defer configMu.Unlock()
	configInst = v
	return nil
}

func mergeConfigFile(v *viper.Viper, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("config path %s is a directory", path)
	}
	//nolint:gosec // G304: Config loader intentionally reads user and project config files
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := v.MergeConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func defaultUserConfigPath() (string, error) {
	if userConfigPathOverride != "" {
		return userConfigPathOverride, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, DirName, FileName), nil
}

func findProjectConfig(startDir string) (string, error) {
	if strings.TrimSpace(startDir) == "" {
		return "", nil
	}
	dir := startDir
	for {
		candidate := filepath.Join(dir, DirName, FileName)
		info, err := os.Stat(candidate)
		if err == nil {
			if info.IsDir() {
				return "", fmt.Errorf("config path %s is a directory", candidate)
			}
			return candidate, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyHostName, "Git for Windows")
	v.SetDefault(KeyHostVersionCommand, "git --version")
	v.SetDefault(KeyHostVersionPrefix, "git version ")
	v.SetDefault(KeyLatestTagURL, DefaultLatestTagURL)
	v.SetDefault(KeyReleasesURL, DefaultReleasesURL)
	v.SetDefault(KeyShellPath, defaultShellPath())
	v.SetDefault(KeyInstallerArgs, []string{"/SILENT"})
	v.SetDefault(KeyDownloadDir, "")
	v.SetDefault(KeyHTTPTimeout, DefaultHTTPTimeout)
	v.SetDefault(KeyToastHelper, "")
	v.SetDefault(KeyToastExpire, DefaultToastExpire)
	v.SetDefault(KeyAskYesNo, "")
	v.SetDefault(KeyStoreBackend, BackendFile)
	v.SetDefault(KeyStorePath, "")
	v.SetDefault(KeyDebug, false)
}

func defaultShellPath() string {
	if runtime.GOOS == "windows" {
		return "/usr/bin/bash"
	}
	return "/bin/bash"
}

func getViper() (*viper.Viper, error) {
	if err := Initialize(); err != nil {
		return nil, err
	}
	configMu.RLock()
	defer configMu.RUnlock()
	if configInst == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}
	return configInst, nil
}

// reset clears package state for tests.
func reset() {
	configMu.Lock()
	defer configMu.Unlock()
	configInst = nil
	initErr = nil
	configOnce = sync.Once{}
	userConfigPathOverride = ""
}

// setUserConfigPathOverride sets the user config path for tests.
func setUserConfigPathOverride(path string) {
	userConfigPathOverride = path
}

// findWritableConfigPath determines which config file persisted state goes to.
// Returns project config path if it exists, otherwise user config path.
func findWritableConfigPath() (string, error) {
	wd, err := os.Getwd()
	if err == nil {
		projectPath, err := findProjectConfig(wd)
		if err == nil && projectPath != "" {
			return projectPath, nil
		}
	}
	return defaultUserConfigPath()
}
