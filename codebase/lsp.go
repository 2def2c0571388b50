package codebase

import (
	"context"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/dhamidi/tsbind/java"
)

const lsName = "tsbind"

// LSPServer previews generated TypeScript on hover and reports Java files
// that cannot be converted as diagnostics.
type LSPServer struct {
	codebase *Codebase
	opts     Options
	debounce time.Duration
	handler  protocol.Handler
	server   *server.Server
	version  string
	notify   glsp.NotifyFunc
	cancel   context.CancelFunc
}

func NewLSPServer(version string, opts Options, debounce time.Duration) *LSPServer {
	ls := &LSPServer{
		version:  version,
		opts:     opts,
		debounce: debounce,
	}

	ls.handler = protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidClose:  ls.textDocumentDidClose,
		TextDocumentDidSave:   ls.textDocumentDidSave,
		TextDocumentHover:     ls.textDocumentHover,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *LSPServer) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *LSPServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	rootDir := "."
	if params.RootPath != nil && *params.RootPath != "" {
		rootDir = *params.RootPath
	} else if params.RootURI != nil && *params.RootURI != "" {
		if path, err := uriToPath(*params.RootURI); err == nil {
			rootDir = path
		}
	}

	ls.codebase = New(rootDir, ls.opts)
	ls.notify = ctx.Notify

	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *LSPServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	if err := ls.codebase.ScanAll(); err != nil {
		log.Warningf("scan %s: %s", ls.codebase.RootDir(), err)
	}

	w, err := NewWatcher([]string{ls.codebase.RootDir()}, ls.debounce)
	if err != nil {
		log.Warningf("%s", err)
		return nil
	}
	watchCtx, cancel := context.WithCancel(context.Background())
	ls.cancel = cancel
	go func() {
		if err := w.Run(watchCtx, ls.changed); err != nil {
			log.Errorf("%s", err)
		}
	}()
	return nil
}

// changed applies file system changes and republishes their diagnostics.
func (ls *LSPServer) changed(paths []string) {
	ls.codebase.Apply(paths)
	for _, path := range paths {
		ls.publish(path)
	}
}

func (ls *LSPServer) shutdown(ctx *glsp.Context) error {
	if ls.cancel != nil {
		ls.cancel()
	}
	return nil
}

func (ls *LSPServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *LSPServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	ls.codebase.UpdateFile(path, []byte(params.TextDocument.Text))
	ls.publish(path)
	return nil
}

func (ls *LSPServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.codebase.UpdateFile(path, []byte(textChange.Text))
			ls.publish(path)
		}
	}
	return nil
}

func (ls *LSPServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	return nil
}

func (ls *LSPServer) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil
	}
	if params.Text != nil {
		ls.codebase.UpdateFile(path, []byte(*params.Text))
	} else if err := ls.codebase.ScanFile(path); err != nil {
		log.Warningf("%s", err)
	}
	ls.publish(path)
	return nil
}

func (ls *LSPServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return nil, nil
	}
	text, ok := Preview(ls.codebase, path)
	if !ok {
		return nil, nil
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: text,
		},
	}, nil
}

// Preview returns the hover text for path: the generated TypeScript in a
// fenced block, or the reason there is none.
func Preview(c *Codebase, path string) (string, bool) {
	if c.GetFile(path) == nil {
		return "", false
	}
	text, err := c.Render(path)
	switch {
	case err != nil:
		return "**tsbind:** " + err.Error(), true
	case text == "":
		return "**tsbind:** no public type, nothing is generated", true
	}
	return "```ts\n" + text + "```", true
}

func (ls *LSPServer) publish(path string) {
	if ls.notify == nil {
		return
	}
	f := ls.codebase.GetFile(path)
	diags := []protocol.Diagnostic{}
	if f != nil {
		diags = Diagnostics(f)
	}
	ls.notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         protocol.DocumentUri(pathToURI(path)),
		Diagnostics: diags,
	})
}

// Diagnostics converts the extraction error of f into LSP diagnostics. A
// parse error yields one diagnostic per syntax problem.
func Diagnostics(f *FileInfo) []protocol.Diagnostic {
	diags := []protocol.Diagnostic{}
	if f.Err == nil {
		return diags
	}
	severity := protocol.DiagnosticSeverityError
	source := lsName

	var perr *java.ParseError
	if errors.As(f.Err, &perr) {
		for _, p := range perr.Problems {
			pos := protocol.Position{Line: protocol.UInteger(max(p.Line-1, 0)), Character: protocol.UInteger(max(p.Column-1, 0))}
			diags = append(diags, protocol.Diagnostic{
				Range:    protocol.Range{Start: pos, End: pos},
				Severity: &severity,
				Source:   &source,
				Message:  p.Message,
			})
		}
		return diags
	}

	return append(diags, protocol.Diagnostic{
		Severity: &severity,
		Source:   &source,
		Message:  f.Err.Error(),
	})
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func pathToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}

func boolPtr(b bool) *bool {
	return &b
}

func syncKindPtr(kind protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &kind
}
