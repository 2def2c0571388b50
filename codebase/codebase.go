// Package codebase keeps an in-memory view of a tree of Java files and the
// TypeScript generated from them, for the language server and watch mode.
package codebase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/tsbind/java"
	"github.com/dhamidi/tsbind/java/javadoc"
	"github.com/dhamidi/tsbind/java/treesitter"
	"github.com/dhamidi/tsbind/project"
)

var log = commonlog.GetLogger("tsbind.codebase")

const defaultCacheSize = 256

type Codebase struct {
	mu      sync.RWMutex
	rootDir string
	files   map[string]*FileInfo
	opts    Options
	cache   *lru.Cache[string, string]

	// names holds the qualified type name each file declares, known before
	// the file is extracted.
	names map[string]string
}

type Options struct {
	Indent              string
	Docs                javadoc.Filter
	Strict              bool
	NullableAnnotations []string
	// CacheSize bounds the number of rendered previews kept in memory.
	CacheSize int
}

// FileInfo is the latest extraction result of one file. Declaration is nil
// when the file failed or its principal type is not public.
type FileInfo struct {
	Path        string
	Content     []byte
	Declaration *java.Declaration
	Err         error
	hash        string
}

func New(rootDir string, opts Options) *Codebase {
	if opts.Indent == "" {
		opts.Indent = "    "
	}
	if opts.Docs == nil {
		opts.Docs = javadoc.PlainText{}
	}
	size := opts.CacheSize
	if size <= 0 {
		size = defaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		panic(errors.AssertionFailedf("render cache: %v", err))
	}
	return &Codebase{
		rootDir: rootDir,
		files:   make(map[string]*FileInfo),
		names:   make(map[string]string),
		opts:    opts,
		cache:   cache,
	}
}

func (c *Codebase) RootDir() string {
	return c.rootDir
}

// ScanAll loads every .java file under the root directory, skipping hidden
// directories. All type names are registered before the first file is
// extracted.
func (c *Codebase) ScanAll() error {
	contents := map[string][]byte{}
	var paths []string
	err := filepath.WalkDir(c.rootDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != c.rootDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".java" {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			log.Warningf("scan %s: %s", path, err)
			return nil
		}
		contents[path] = content
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return err
	}

	c.mu.Lock()
	for _, path := range paths {
		c.names[path] = typeName(path, contents[path])
	}
	c.mu.Unlock()

	for _, path := range paths {
		c.UpdateFile(path, contents[path])
	}
	return nil
}

// typeName is the qualified name of the public type a file is expected to
// declare: its package plus the file's base name.
func typeName(path string, content []byte) string {
	simple := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if pkg, _ := treesitter.PackageName(content); pkg != "" {
		return pkg + "." + simple
	}
	return simple
}

func (c *Codebase) ScanFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "read %s", path)
	}
	c.UpdateFile(path, content)
	return nil
}

// UpdateFile replaces the content of path and extracts it again. Extraction
// errors are kept on the FileInfo.
func (c *Codebase) UpdateFile(path string, content []byte) *FileInfo {
	sum := sha256.Sum256(content)
	hash := hex.EncodeToString(sum[:])

	c.mu.Lock()
	defer c.mu.Unlock()

	if f, ok := c.files[path]; ok && f.hash == hash {
		return f
	}
	c.names[path] = typeName(path, content)

	resolver := treesitter.New(
		treesitter.WithKnownTypes(c.knownLocked()),
		treesitter.WithStrictImports(c.opts.Strict),
	)
	var xopts []java.ExtractorOption
	if len(c.opts.NullableAnnotations) > 0 {
		xopts = append(xopts, java.WithNullableAnnotations(c.opts.NullableAnnotations...))
	}
	decl, err := java.NewExtractor(resolver, xopts...).Extract(context.Background(), java.SourceUnit{Path: path, Code: content})
	if err != nil {
		log.Debugf("extract %s: %s", path, err)
	}

	f := &FileInfo{Path: path, Content: content, Declaration: decl, Err: err, hash: hash}
	c.files[path] = f
	return f
}

func (c *Codebase) knownLocked() map[string]bool {
	known := make(map[string]bool, len(c.names))
	for _, name := range c.names {
		known[name] = true
	}
	for _, f := range c.files {
		if f.Declaration != nil {
			known[f.Declaration.Name()] = true
		}
	}
	return known
}

func (c *Codebase) RemoveFile(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.files, path)
	delete(c.names, path)
}

// Apply brings the given paths up to date with the file system.
func (c *Codebase) Apply(paths []string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			c.RemoveFile(path)
			continue
		}
		if err := c.ScanFile(path); err != nil {
			log.Warningf("%s", err)
		}
	}
}

func (c *Codebase) GetFile(path string) *FileInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.files[path]
}

// Declarations returns all extracted declarations sorted by name.
func (c *Codebase) Declarations() []*java.Declaration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var all []*java.Declaration
	for _, f := range c.files {
		if f.Declaration != nil {
			all = append(all, f.Declaration)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name() < all[j].Name() })
	return all
}

func (c *Codebase) FindDeclaration(name string) *java.Declaration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.files {
		if f.Declaration != nil && f.Declaration.Name() == name {
			return f.Declaration
		}
	}
	return nil
}

// Render returns the TypeScript module text for the declaration of path,
// as it would appear in its package's output file.
func (c *Codebase) Render(path string) (string, error) {
	f := c.GetFile(path)
	switch {
	case f == nil:
		return "", errors.Newf("unknown file %s", path)
	case f.Err != nil:
		return "", f.Err
	case f.Declaration == nil:
		return "", nil
	}

	key := path + "@" + f.hash
	if text, ok := c.cache.Get(key); ok {
		return text, nil
	}
	p := project.New("", []*java.Declaration{f.Declaration})
	text := p.Modules[0].Render(c.opts.Indent, c.opts.Docs)
	c.cache.Add(key, text)
	return text, nil
}
