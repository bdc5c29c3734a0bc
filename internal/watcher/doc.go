// Package watcher provides recursive filesystem watching for the live-reload
// event stream.
//
// Each call to Watch creates an independent OS-level watch. Callbacks for one
// watch run on a single goroutine and never overlap; events carry either the
// changed paths or an error reported by the backend. Closing a Handle stops
// the callback before Close returns.
package watcher
