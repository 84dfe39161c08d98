// Package update drives one run of the self-updater.
//
// An Orchestrator walks a fixed sequence of states:
//
//	ResolveProxy -> FetchLatestVersion -> CompareVersions
//	  -> UpToDate | Suppressed | NeedsPrompt
//	NeedsPrompt -> Confirm -> Declined | Ignored | Accepted
//	Accepted -> Download -> Install -> TerminateSiblings
//
// Any failure ends the run in Failed with an exit code derived from the
// error's code (see internal/errors). Collaborators (persistent store,
// fetcher, process census, confirmation channel, installer launcher) are
// passed in through Deps so the flow can be driven with fakes.
//
// Example usage:
//
//	o := update.NewOrchestrator(update.Options{
//	    CurrentVersion: "2.41.0",
//	    LatestTagURL:   config.DefaultLatestTagURL,
//	    ReleasesURL:    config.DefaultReleasesURL,
//	}, deps)
//	res := o.Run(ctx)
//	os.Exit(res.ExitCode)
package update
