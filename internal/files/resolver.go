package files

import (
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"servelive/internal/fsutil"
)

const (
	IndexFile         = "index.html"
	FailureMessage    = "request failed"
	DefaultBase       = "/"
	redirectStatus    = http.StatusMovedPermanently
	readFailureStatus = http.StatusBadRequest
)

// Target is the outcome of resolving a request path. It is one of
// Redirect, FileBody or Failure.
type Target interface {
	Status() int
}

type Redirect struct {
	Location string
}

func (Redirect) Status() int { return redirectStatus }

type FileBody struct {
	Path        string
	Body        []byte
	ContentType string
}

func (FileBody) Status() int { return http.StatusOK }

// Failure carries what the handler should log. Only Message reaches the
// client.
type Failure struct {
	Code    int
	Message string
	Path    string
	Err     error
}

func (f Failure) Status() int { return f.Code }

// Resolver serves files below Root. Base is the URL prefix the request tail
// was taken from and is used to build redirect locations.
type Resolver struct {
	Root string
	Base string
}

func NewResolver(root string) *Resolver {
	return &Resolver{Root: root, Base: DefaultBase}
}

// Resolve maps tail, the request path with the leading base stripped, onto
// the tree. Directories without a trailing slash redirect to the slashed
// form; directories with one serve their index file. Every read failure is
// reported as 400.
func (r *Resolver) Resolve(tail string) Target {
	cleaned, err := fsutil.CleanFSPath(tail)
	if err != nil {
		return Failure{Code: readFailureStatus, Message: FailureMessage, Err: err}
	}
	candidate, err := fsutil.JoinWithinRoot(r.Root, cleaned)
	if err != nil {
		return Failure{Code: readFailureStatus, Message: FailureMessage, Err: err}
	}

	info, statErr := os.Stat(candidate)
	if statErr == nil && info.IsDir() {
		if tail != "" && !strings.HasSuffix(tail, "/") {
			return Redirect{Location: r.directoryLocation(cleaned)}
		}
		candidate = filepath.Join(candidate, IndexFile)
	}

	body, err := os.ReadFile(candidate)
	if err != nil {
		return Failure{Code: readFailureStatus, Message: FailureMessage, Path: candidate, Err: err}
	}
	return FileBody{Path: candidate, Body: body, ContentType: ContentType(candidate)}
}

func (r *Resolver) base() string {
	base := r.Base
	if base == "" {
		base = DefaultBase
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// directoryLocation builds the escaped slash-terminated URL path of a
// directory. cleaned never starts with a slash, so the result cannot be read
// as a scheme-relative URL.
func (r *Resolver) directoryLocation(cleaned string) string {
	location := r.base()
	if cleaned != "." {
		location += cleaned + "/"
	}
	return (&url.URL{Path: location}).EscapedPath()
}

// IsEscape reports whether a failure was caused by a path leaving the root.
func IsEscape(f Failure) bool {
	return errors.Is(f.Err, fsutil.ErrEscapesRoot)
}
