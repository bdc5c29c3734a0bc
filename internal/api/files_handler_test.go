package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"servelive/internal/files"
	"servelive/internal/logging"
)

func serveFile(t *testing.T, handler *FilesHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	recorder := httptest.NewRecorder()
	errorBoundary("serve_file", logging.NewNop(), handler.serve).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, target, nil))
	return recorder
}

func TestFilesHandlerOmitsUnknownContentType(t *testing.T) {
	root := t.TempDir()
	writeSiteFile(t, root, "notes.txt", "<html>not really</html>")
	handler := &FilesHandler{Resolver: files.NewResolver(root)}

	recorder := serveFile(t, handler, "/notes.txt")
	if recorder.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", recorder.Code)
	}
	if values, ok := recorder.Result().Header["Content-Type"]; ok && len(values) > 0 {
		t.Fatalf("expected no content type, got %v", values)
	}
	if recorder.Body.String() != "<html>not really</html>" {
		t.Fatalf("unexpected body %q", recorder.Body.String())
	}
}

func TestFilesHandlerSetsKnownContentType(t *testing.T) {
	root := t.TempDir()
	writeSiteFile(t, root, "css/site.css", "body{}")
	handler := &FilesHandler{Resolver: files.NewResolver(root)}

	recorder := serveFile(t, handler, "/css/site.css")
	if got := recorder.Header().Get("Content-Type"); got != "text/css" {
		t.Fatalf("expected text/css, got %q", got)
	}
}

func TestFilesHandlerLogsFailures(t *testing.T) {
	root := t.TempDir()
	core, logs := observer.New(zapcore.DebugLevel)
	handler := &FilesHandler{
		Resolver: files.NewResolver(root),
		Logger:   logging.NewLoggerWithCore(core, logging.LevelDebug),
	}

	recorder := serveFile(t, handler, "/nope/missing.js")
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if recorder.Body.String() != files.FailureMessage {
		t.Fatalf("unexpected body %q", recorder.Body.String())
	}

	entries := logs.FilterMessage("serve file failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 failure log, got %d", len(entries))
	}
	context := entries[0].ContextMap()
	if context["tail"] != "nope/missing.js" {
		t.Fatalf("expected tail in log, got %v", context)
	}
	if context["path"] == "" || context["error"] == "" {
		t.Fatalf("expected path and error in log, got %v", context)
	}
}

func TestFilesHandlerDoesNotEscapeRoot(t *testing.T) {
	parent := t.TempDir()
	writeSiteFile(t, parent, "secret.txt", "secret")
	writeSiteFile(t, parent, "site/index.html", "index")
	handler := &FilesHandler{Resolver: files.NewResolver(parent + "/site")}

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request.URL.Path = "/../secret.txt"
	recorder := httptest.NewRecorder()
	errorBoundary("serve_file", logging.NewNop(), handler.serve).ServeHTTP(recorder, request)

	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
	if recorder.Body.String() == "secret" {
		t.Fatal("served a file outside the root")
	}
}

func TestFilesHandlerRedirectStaysOnHost(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"evil.example", "a b", "x#y"} {
		if err := os.Mkdir(filepath.Join(root, name), 0o755); err != nil {
			t.Fatalf("mkdir %q: %v", name, err)
		}
	}
	handler := &FilesHandler{Resolver: files.NewResolver(root)}

	cases := []struct {
		target   string
		expected string
	}{
		{target: "//evil.example", expected: "/evil.example/"},
		{target: "/a%20b", expected: "/a%20b/"},
		{target: "/x%23y", expected: "/x%23y/"},
	}
	for _, testCase := range cases {
		recorder := serveFile(t, handler, testCase.target)
		if recorder.Code != http.StatusMovedPermanently {
			t.Fatalf("%s: expected 301, got %d", testCase.target, recorder.Code)
		}
		if got := recorder.Header().Get("Location"); got != testCase.expected {
			t.Fatalf("%s: expected location %q, got %q", testCase.target, testCase.expected, got)
		}
	}
}
