package scanner

import (
	"archive/zip"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobwas/glob"

	"github.com/dhamidi/tsbind/java"
	"github.com/dhamidi/tsbind/java/treesitter"
)

// sourceRoots are directory layouts whose prefix is not part of the package.
var sourceRoots = []string{"src/main/java/", "src/test/java/", "src/java/"}

type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	var compiled []compiledPattern
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Wrapf(err, "invalid glob %q", pattern)
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}
	return compiled, nil
}

func matchAny(patterns []compiledPattern, name string) bool {
	for _, p := range patterns {
		if p.glob.Match(name) {
			return true
		}
	}
	return false
}

// selected reports whether the slash separated relative path passes the
// include and exclude filters.
func (s *Scanner) selected(rel string) bool {
	if len(s.include) > 0 && !matchAny(s.include, rel) {
		return false
	}
	return !matchAny(s.exclude, rel)
}

func isSource(name string) bool {
	if path.Ext(name) != ".java" {
		return false
	}
	switch path.Base(name) {
	case "module-info.java", "package-info.java":
		return false
	}
	return true
}

func isArchive(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".zip", ".jar":
		return true
	}
	return false
}

// UnitName derives the qualified type name from a slash separated path
// relative to a source root.
func UnitName(rel string) string {
	rel = filepath.ToSlash(rel)
	for _, root := range sourceRoots {
		if i := strings.LastIndex(rel, root); i >= 0 {
			rel = rel[i+len(root):]
			break
		}
	}
	rel = strings.TrimSuffix(strings.TrimPrefix(rel, "/"), ".java")
	return strings.ReplaceAll(rel, "/", ".")
}

// declaredName is UnitName checked against the package declaration of
// code. A path that is not below a source root carries extra leading
// segments; the declared package wins over them.
func declaredName(rel string, code []byte) string {
	name := UnitName(rel)
	pkg, ok := treesitter.PackageName(code)
	if !ok {
		return name
	}
	qualified := name[strings.LastIndex(name, ".")+1:]
	if pkg != "" {
		qualified = pkg + "." + qualified
	}
	if qualified != name {
		log.Debugf("%s declares package %q, naming it %s", rel, pkg, qualified)
	}
	return qualified
}

// Discover turns inputs into source units sorted by name. Inputs may be
// directories, .java files or .zip/.jar source archives. Entries that cannot
// be read are reported as read diagnostics; a missing input is an error.
func (s *Scanner) Discover(inputs []string) ([]java.SourceUnit, []Diagnostic, error) {
	var units []java.SourceUnit
	var diags []Diagnostic
	for _, input := range inputs {
		info, err := os.Stat(input)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "input %s", input)
		}
		var found []java.SourceUnit
		var problems []Diagnostic
		switch {
		case info.IsDir():
			found, problems, err = s.discoverDir(input)
		case isArchive(input):
			found, problems, err = s.discoverArchive(input)
		case isSource(input):
			var code []byte
			code, err = os.ReadFile(input)
			// A lone file has no source root, so its name comes from its
			// package declaration.
			found = []java.SourceUnit{{Path: input, Code: code}}
		default:
			err = errors.Newf("unsupported input %s", input)
		}
		if err != nil {
			return nil, nil, err
		}
		units = append(units, found...)
		diags = append(diags, problems...)
	}

	sort.SliceStable(units, func(i, j int) bool {
		if units[i].Name != units[j].Name {
			return units[i].Name < units[j].Name
		}
		return units[i].Path < units[j].Path
	})
	log.Debugf("discovered %d units in %d inputs", len(units), len(inputs))
	return units, diags, nil
}

func (s *Scanner) discoverDir(root string) ([]java.SourceUnit, []Diagnostic, error) {
	var units []java.SourceUnit
	var diags []Diagnostic
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			diags = append(diags, Diagnostic{Unit: p, Category: CategoryRead, Message: err.Error()})
			return nil
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if !isSource(rel) || !s.selected(rel) {
			return nil
		}
		code, err := os.ReadFile(p)
		if err != nil {
			diags = append(diags, Diagnostic{Unit: UnitName(rel), Category: CategoryRead, Message: err.Error()})
			return nil
		}
		units = append(units, java.SourceUnit{Name: declaredName(rel, code), Path: p, Code: code})
		return nil
	})
	if err != nil {
		return nil, nil, errors.Wrapf(err, "walk %s", root)
	}
	return units, diags, nil
}

func (s *Scanner) discoverArchive(name string) ([]java.SourceUnit, []Diagnostic, error) {
	r, err := zip.OpenReader(name)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "open archive %s", name)
	}
	defer r.Close()
	units, diags := s.scanZip(&r.Reader, name)
	return units, diags, nil
}

// scanZip reads source entries of an archive. Jars nested in a zip are
// read as well.
func (s *Scanner) scanZip(r *zip.Reader, archive string) ([]java.SourceUnit, []Diagnostic) {
	var units []java.SourceUnit
	var diags []Diagnostic
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		entry := archive + "!/" + f.Name
		switch {
		case strings.ToLower(path.Ext(f.Name)) == ".jar":
			data, err := readEntry(f)
			if err != nil {
				diags = append(diags, Diagnostic{Unit: entry, Category: CategoryRead, Message: err.Error()})
				continue
			}
			jar, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
			if err != nil {
				diags = append(diags, Diagnostic{Unit: entry, Category: CategoryRead, Message: err.Error()})
				continue
			}
			nested, problems := s.scanZip(jar, entry)
			units = append(units, nested...)
			diags = append(diags, problems...)
		case isSource(f.Name) && s.selected(f.Name):
			code, err := readEntry(f)
			if err != nil {
				diags = append(diags, Diagnostic{Unit: UnitName(f.Name), Category: CategoryRead, Message: err.Error()})
				continue
			}
			units = append(units, java.SourceUnit{Name: declaredName(f.Name, code), Path: entry, Code: code})
		}
	}
	return units, diags
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", f.Name)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", f.Name)
	}
	return data, nil
}

// KnownTypes returns the qualified names of the units, for resolving
// wildcard imports across the batch.
func KnownTypes(units []java.SourceUnit) map[string]bool {
	known := make(map[string]bool, len(units))
	for _, u := range units {
		if u.Name != "" {
			known[u.Name] = true
		}
	}
	return known
}
