package update

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"

	"gitupdate/internal/census"
	"gitupdate/internal/config"
	"gitupdate/internal/confirm"
	"gitupdate/internal/debug"
	apperrors "gitupdate/internal/errors"
	"gitupdate/internal/fetch"
	"gitupdate/internal/version"
)

// State is a step of the update flow.
type State string

const (
	StateInit               State = "init"
	StateResolveProxy       State = "resolve_proxy"
	StateFetchLatestVersion State = "fetch_latest_version"
	StateCompareVersions    State = "compare_versions"
	StateUpToDate           State = "up_to_date"
	StateSuppressed         State = "suppressed"
	StateNeedsPrompt        State = "needs_prompt"
	StateConfirm            State = "confirm"
	StateDeclined           State = "declined"
	StateIgnored            State = "ignored"
	StateAccepted           State = "accepted"
	StateDownload           State = "download"
	StateInstall            State = "install"
	StateTerminateSiblings  State = "terminate_siblings"
	StateFailed             State = "failed"
)

// Fetcher retrieves URLs. *fetch.Fetcher implements it.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
	Download(ctx context.Context, rawURL, dest string, progress fetch.ProgressFunc) (int64, error)
}

// ShellCensus counts and terminates shell sessions. *census.Census implements it.
type ShellCensus interface {
	CountSiblingShells(ctx context.Context, selfID int) (int, error)
	TerminateShells(ctx context.Context, term census.Terminator) error
}

// Options configure a single update run.
type Options struct {
	CurrentVersion string
	HostName       string
	// Quiet skips the prompt when the user was already asked about the latest version.
	Quiet   bool
	// Testing disables the up-to-date and downgrade short circuits.
	Testing bool

	LatestTagURL  string
	ReleasesURL   string
	Arch          string
	DownloadDir   string
	InstallerArgs []string
	SelfPID       int

	// OnState is called on every state transition.
	OnState    func(State)
	// OnProgress receives download progress.
	OnProgress fetch.ProgressFunc
}

// Deps are the collaborators of the flow.
type Deps struct {
	Store         config.Store
	NewFetcher    func(proxy *url.URL) Fetcher
	DiscoverProxy func(target *url.URL) (string, error)
	Census        ShellCensus
	Terminator    census.Terminator
	Channel       confirm.Channel
	Launcher      Launcher
}

// Result is how a run ended.
type Result struct {
	State    State
	ExitCode int
	Err      error

	Latest    string
	// Release is the version of the release whose installer is offered. It
	// can trail Latest while a new release is still being published.
	Release   string
	Installer string
	// Siblings is the number of other shell sessions counted for the warning.
	Siblings  int
}

// Orchestrator runs the update flow once.
type Orchestrator struct {
	opts    Options
	deps    Deps
	state   State
	fetcher Fetcher
	proxy   *url.URL
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(opts Options, deps Deps) *Orchestrator {
	if opts.Arch == "" {
		opts.Arch = runtime.GOARCH
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = os.TempDir()
	}
	if opts.HostName == "" {
		opts.HostName = "Git for Windows"
	}
	if opts.SelfPID == 0 {
		opts.SelfPID = os.Getpid()
	}
	return &Orchestrator{opts: opts, deps: deps, state: StateInit}
}

// Run executes the flow and reports how it ended. It never panics on
// collaborator failures; errors are carried in the Result.
func (o *Orchestrator) Run(ctx context.Context) Result {
	o.enter(StateResolveProxy)
	if err := o.resolveProxy(ctx); err != nil {
		return o.fail(err)
	}

	o.enter(StateFetchLatestVersion)
	latest, err := o.fetchLatestVersion(ctx)
	if err != nil {
		return o.fail(err)
	}
	res := Result{Latest: latest}

	o.enter(StateCompareVersions)
	current := o.opts.CurrentVersion
	if !o.opts.Testing {
		if version.Compare(current, latest) == 0 {
			o.markSeen(ctx, latest)
			return o.finish(res, StateUpToDate, apperrors.ExitOK)
		}
		if version.IsReleaseCandidate(current) && version.Compare(version.ReleaseBase(current), latest) >= 0 {
			debug.Logf("update: %s is a release candidate of %s or later; not offering %s", current, version.ReleaseBase(current), latest)
			return o.finish(res, StateUpToDate, apperrors.ExitOK)
		}
	}

	if o.opts.Quiet {
		seen, err := o.deps.Store.Get(ctx, config.StoreKeyFromVersion)
		if err != nil {
			debug.Warnf("update: read %s: %v", config.StoreKeyFromVersion, err)
		}
		if err == nil && seen == latest {
			return o.finish(res, StateSuppressed, apperrors.ExitOK)
		}
	}

	o.enter(StateNeedsPrompt)
	release, asset, err := o.fetchRelease(ctx)
	if err != nil {
		return o.fail(err)
	}
	res.Release = release.Version()
	if res.Release != latest {
		debug.Warnf("update: newest tag is %s but the latest release is %s", latest, res.Release)
	}

	o.enter(StateConfirm)
	prompt := confirm.Prompt{
		Title:    o.opts.HostName,
		Question: fmt.Sprintf("%s %s is available (you have %s). Install it now?", o.opts.HostName, latest, current),
		Notes:    release.Body,
	}
	if o.deps.Channel.Interactive() {
		res.Siblings = o.countSiblings(ctx)
		prompt.Warning = SessionWarning(res.Siblings)
	}

	outcome, err := o.deps.Channel.Confirm(ctx, prompt)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeConfirmationAmbiguous) {
			debug.Logf("update: %v", err)
			return o.finish(res, StateIgnored, apperrors.ExitDeclined)
		}
		return o.fail(apperrors.New(apperrors.CodeUnknown, fmt.Sprintf("ask for confirmation: %v", err), err))
	}
	switch outcome {
	case confirm.Declined:
		o.markSeen(ctx, latest)
		return o.finish(res, StateDeclined, apperrors.ExitDeclined)
	case confirm.Ignored:
		return o.finish(res, StateIgnored, apperrors.ExitDeclined)
	}
	o.enter(StateAccepted)

	o.enter(StateDownload)
	dest := filepath.Join(o.opts.DownloadDir, filepath.Base(asset.Name))
	if _, err := o.fetcher.Download(ctx, asset.BrowserDownloadURL, dest, o.opts.OnProgress); err != nil {
		return o.fail(classifyFetchError(err, "download "+asset.Name, apperrors.CodeDownloadFailed))
	}
	res.Installer = dest

	o.enter(StateInstall)
	if err := o.deps.Launcher.Launch(ctx, dest, o.opts.InstallerArgs); err != nil {
		return o.fail(apperrors.New(apperrors.CodeInstallFailed, fmt.Sprintf("launch %s: %v", dest, err), err))
	}

	o.enter(StateTerminateSiblings)
	if o.deps.Census != nil {
		if err := o.deps.Census.TerminateShells(ctx, o.deps.Terminator); err != nil {
			debug.Warnf("update: terminating shell sessions: %v", err)
		}
	}
	return o.finish(res, StateTerminateSiblings, apperrors.ExitOK)
}

// SessionWarning describes the shell sessions the installer will close, or
// "" when there are none.
func SessionWarning(n int) string {
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return "Installing closes every open shell session, killing one session."
	default:
		return fmt.Sprintf("Installing closes every open shell session, killing %d sessions.", n)
	}
}

func (o *Orchestrator) resolveProxy(ctx context.Context) error {
	configured, err := o.deps.Store.Get(ctx, config.StoreKeyProxy)
	if err != nil {
		return apperrors.New(apperrors.CodeConfigurationError, fmt.Sprintf("read %s: %v", config.StoreKeyProxy, err), err)
	}
	if configured != "" {
		proxy, err := fetch.ParseProxy(configured)
		if err != nil {
			return apperrors.New(apperrors.CodeConfigurationError, fmt.Sprintf("invalid %s: %v", config.StoreKeyProxy, err), err)
		}
		o.proxy = proxy
	}
	o.fetcher = o.deps.NewFetcher(o.proxy)
	return nil
}

// fetchLatestVersion fetches the latest tag. When no proxy is configured and
// the server cannot be reached at all, the system proxy is discovered,
// persisted, and the fetch retried once through it.
func (o *Orchestrator) fetchLatestVersion(ctx context.Context) (string, error) {
	body, err := o.fetcher.Get(ctx, o.opts.LatestTagURL)
	var transportErr *fetch.TransportError
	if err != nil && o.proxy == nil && errors.As(err, &transportErr) {
		if proxy := o.discoverProxy(ctx); proxy != nil {
			o.proxy = proxy
			o.fetcher = o.deps.NewFetcher(proxy)
			body, err = o.fetcher.Get(ctx, o.opts.LatestTagURL)
		}
	}
	if err != nil {
		return "", classifyFetchError(err, "fetch latest version", apperrors.CodeUnknown)
	}

	latest := version.FromTag(string(body))
	if latest == "" {
		return "", apperrors.New(apperrors.CodeParseFailed, "latest version is empty", nil)
	}
	return latest, nil
}

func (o *Orchestrator) discoverProxy(ctx context.Context) *url.URL {
	if o.deps.DiscoverProxy == nil {
		return nil
	}
	target, err := url.Parse(o.opts.LatestTagURL)
	if err != nil {
		return nil
	}
	found, err := o.deps.DiscoverProxy(target)
	if err != nil {
		debug.Logf("update: proxy discovery failed: %v", err)
		return nil
	}
	if found == "" {
		debug.Log("update: no system proxy configured")
		return nil
	}
	proxy, err := fetch.ParseProxy(found)
	if err != nil {
		debug.Logf("update: ignoring system proxy %q: %v", found, err)
		return nil
	}
	if err := o.deps.Store.Set(ctx, config.StoreKeyProxy, proxy.String()); err != nil {
		debug.Warnf("update: persist %s: %v", config.StoreKeyProxy, err)
	}
	debug.LogFields(debug.Fields{"proxy": proxy.String()}, "update: retrying through system proxy")
	return proxy
}

func (o *Orchestrator) fetchRelease(ctx context.Context) (*ReleaseInfo, *ReleaseAsset, error) {
	body, err := o.fetcher.Get(ctx, o.opts.ReleasesURL)
	if err != nil {
		return nil, nil, classifyFetchError(err, "fetch release information", apperrors.CodeUnknown)
	}
	release, err := ParseRelease(body)
	if err != nil {
		return nil, nil, apperrors.New(apperrors.CodeParseFailed, "", err)
	}
	asset := SelectAsset(release.Assets, o.opts.Arch)
	if asset == nil {
		return nil, nil, apperrors.New(apperrors.CodeAssetNotFound,
			fmt.Sprintf("release %s has no %s installer", release.TagName, BitnessMarker(o.opts.Arch)), nil)
	}
	return release, asset, nil
}

func (o *Orchestrator) countSiblings(ctx context.Context) int {
	if o.deps.Census == nil {
		return 0
	}
	n, err := o.deps.Census.CountSiblingShells(ctx, o.opts.SelfPID)
	if err != nil {
		debug.Warnf("update: counting shell sessions: %v", err)
		return 0
	}
	return n
}

func (o *Orchestrator) markSeen(ctx context.Context, v string) {
	if err := o.deps.Store.Set(ctx, config.StoreKeyFromVersion, v); err != nil {
		debug.Warnf("update: write %s: %v", config.StoreKeyFromVersion, err)
	}
}

func (o *Orchestrator) enter(s State) {
	debug.LogFields(debug.Fields{"from": string(o.state), "to": string(s)}, "update: transition")
	o.state = s
	if o.opts.OnState != nil {
		o.opts.OnState(s)
	}
}

func (o *Orchestrator) finish(res Result, s State, code int) Result {
	if o.state != s {
		o.enter(s)
	}
	res.State = s
	res.ExitCode = code
	return res
}

func (o *Orchestrator) fail(err error) Result {
	o.enter(StateFailed)
	return Result{State: StateFailed, ExitCode: apperrors.ExitCode(err), Err: err}
}

// classifyFetchError wraps err in the code for its failure class; errors
// that are neither transport nor HTTP failures get fallback.
func classifyFetchError(err error, what string, fallback apperrors.Code) error {
	var transportErr *fetch.TransportError
	var httpErr *fetch.HTTPError
	switch {
	case errors.As(err, &transportErr):
		return apperrors.New(apperrors.CodeTransport, fmt.Sprintf("%s: %v", what, err), err)
	case errors.As(err, &httpErr):
		return apperrors.New(apperrors.CodeHTTP, fmt.Sprintf("%s: %v", what, err), err)
	default:
		return apperrors.New(fallback, fmt.Sprintf("%s: %v", what, err), err)
	}
}
