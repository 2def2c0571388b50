// Package project groups extracted declarations into per-package output
// modules and writes them as TypeScript declaration files.
package project

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/tsbind/format"
	"github.com/dhamidi/tsbind/java"
	"github.com/dhamidi/tsbind/java/javadoc"
)

var log = commonlog.GetLogger("tsbind.project")

// DefaultModule names the output module of types in the unnamed package.
const DefaultModule = "default"

// IndexFile is written next to the module files and references all of them.
const IndexFile = "index.d.ts"

// Project is a set of output modules, one per Java package.
type Project struct {
	OutDir  string
	Modules []*Module

	// located maps the qualified name of every declaration in the project,
	// nested ones included, to its package and local path.
	located map[string]location
}

// Module is one output file: every declaration of one Java package.
type Module struct {
	Name         string
	Declarations []*java.Declaration
	Dependencies []string // other modules this module imports from
	Project      *Project

	names   *java.Names
	imports map[string]map[string]string // module -> imported name -> alias
}

// Import is one import line of a module.
type Import struct {
	Module string
	Name   string
	Alias  string
}

type location struct {
	pkg   string
	local string
}

// New groups decls by package. Module and declaration order is sorted by
// name so the output does not depend on extraction order.
func New(outDir string, decls []*java.Declaration) *Project {
	p := &Project{OutDir: outDir, located: map[string]location{}}
	byName := map[string]*Module{}
	for _, d := range decls {
		if d == nil {
			continue
		}
		name := d.Package
		if name == "" {
			name = DefaultModule
		}
		m, ok := byName[name]
		if !ok {
			m = &Module{Name: name, Project: p}
			byName[name] = m
			p.Modules = append(p.Modules, m)
		}
		m.Declarations = append(m.Declarations, d)
		p.locate(d)
	}

	sort.Slice(p.Modules, func(i, j int) bool { return p.Modules[i].Name < p.Modules[j].Name })
	for _, m := range p.Modules {
		sort.Slice(m.Declarations, func(i, j int) bool { return m.Declarations[i].Name() < m.Declarations[j].Name() })
		m.link()
	}
	return p
}

func (p *Project) locate(d *java.Declaration) {
	p.located[d.Name()] = location{pkg: d.Package, local: d.LocalName()}
	for _, inner := range d.Nested() {
		p.locate(inner)
	}
}

// where splits a qualified name into package and local path. Names declared
// in the project are exact; anything else is split before the first segment
// that starts with an upper case letter.
func (p *Project) where(qualified string) location {
	if loc, ok := p.located[qualified]; ok {
		return loc
	}
	parts := strings.Split(qualified, ".")
	for i, part := range parts {
		if part != "" && part[0] >= 'A' && part[0] <= 'Z' {
			return location{pkg: strings.Join(parts[:i], "."), local: strings.Join(parts[i:], ".")}
		}
	}
	i := strings.LastIndexByte(qualified, '.')
	if i < 0 {
		return location{local: qualified}
	}
	return location{pkg: qualified[:i], local: qualified[i+1:]}
}

// link builds the rename table and import list of m.
func (m *Module) link() {
	m.names = java.NewNames()
	m.imports = map[string]map[string]string{}
	deps := map[string]bool{}

	for _, d := range m.Declarations {
		java.WalkTypeRefs(d, func(t java.TypeRef) {
			s, ok := t.(java.Simple)
			if !ok || format.IsBuiltin(s.QualifiedName) || !strings.Contains(s.QualifiedName, ".") {
				return
			}
			if _, done := m.names.Lookup(s); done {
				return
			}
			loc := m.Project.where(s.QualifiedName)
			pkg := loc.pkg
			if pkg == "" {
				pkg = DefaultModule
			}
			if pkg == m.Name {
				m.names.Set(s, loc.local)
				return
			}

			top, rest, nested := strings.Cut(loc.local, ".")
			alias := format.SanitizeName(loc.pkg + "." + top)
			if loc.pkg == "" {
				alias = format.SanitizeName(DefaultModule + "." + top)
			}
			if m.imports[pkg] == nil {
				m.imports[pkg] = map[string]string{}
			}
			m.imports[pkg][top] = alias
			deps[pkg] = true

			if nested {
				alias += "." + rest
			}
			m.names.Set(s, alias)
		})
	}

	for dep := range deps {
		m.Dependencies = append(m.Dependencies, dep)
	}
	sort.Strings(m.Dependencies)
	log.Debugf("module %s: %d declarations, %d names, imports from %v", m.Name, len(m.Declarations), m.names.Len(), m.Dependencies)
}

// Names returns the rename table of the module.
func (m *Module) Names() *java.Names {
	return m.names
}

// Imports returns the import lines of the module, sorted by module and name.
func (m *Module) Imports() []Import {
	var imports []Import
	for mod, names := range m.imports {
		for name, alias := range names {
			imports = append(imports, Import{Module: mod, Name: name, Alias: alias})
		}
	}
	sort.Slice(imports, func(i, j int) bool {
		if imports[i].Module != imports[j].Module {
			return imports[i].Module < imports[j].Module
		}
		return imports[i].Name < imports[j].Name
	})
	return imports
}

// FileName returns the output file name of the module.
func (m *Module) FileName() string {
	return m.Name + ".d.ts"
}

// Render returns the text of the module file.
func (m *Module) Render(indent string, docs javadoc.Filter) string {
	e := format.NewEmitter(indent, m.names, docs)
	e.Println("declare module '%s' {", m.Name)
	e.Block(func() {
		imports := m.Imports()
		for _, imp := range imports {
			e.Println("import { %s as %s } from '%s';", imp.Name, imp.Alias, imp.Module)
		}
		for i, d := range m.Declarations {
			if i > 0 || len(imports) > 0 {
				e.Print("\n")
			}
			e.Render(d)
		}
	})
	e.Println("}")
	return e.String()
}

// Module returns the module with the given name, or nil if not found.
func (p *Project) Module(name string) *Module {
	for _, m := range p.Modules {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// ModulesInOrder returns modules sorted in dependency order (dependencies first).
// Import cycles between packages are common in Java; when one exists the
// name order is returned instead.
func (p *Project) ModulesInOrder() []*Module {
	moduleSet := make(map[string]bool)
	for _, m := range p.Modules {
		moduleSet[m.Name] = true
	}

	inDegree := make(map[string]int)
	for _, m := range p.Modules {
		inDegree[m.Name] = 0
		for _, dep := range m.Dependencies {
			if moduleSet[dep] {
				inDegree[m.Name]++
			}
		}
	}

	var queue []string
	for _, m := range p.Modules {
		if inDegree[m.Name] == 0 {
			queue = append(queue, m.Name)
		}
	}

	var result []*Module
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		result = append(result, p.Module(name))

		for _, m := range p.Modules {
			for _, dep := range m.Dependencies {
				if dep == name {
					inDegree[m.Name]--
					if inDegree[m.Name] == 0 {
						queue = append(queue, m.Name)
					}
				}
			}
		}
	}

	if len(result) != len(p.Modules) {
		return p.Modules
	}
	return result
}

// Index returns the text of the index file.
func (p *Project) Index() string {
	var sb strings.Builder
	for _, m := range p.ModulesInOrder() {
		sb.WriteString(`/// <reference path="` + m.FileName() + `" />` + "\n")
	}
	return sb.String()
}

// EnsureOutDir creates the output directory if it doesn't exist.
func (p *Project) EnsureOutDir() error {
	if err := os.MkdirAll(p.OutDir, 0755); err != nil {
		return errors.Wrapf(err, "create %s", p.OutDir)
	}
	return nil
}

// Write renders every module and the index into OutDir and returns the
// paths written.
func (p *Project) Write(indent string, docs javadoc.Filter) ([]string, error) {
	if err := p.EnsureOutDir(); err != nil {
		return nil, err
	}
	var written []string
	for _, m := range p.ModulesInOrder() {
		path := filepath.Join(p.OutDir, m.FileName())
		if err := os.WriteFile(path, []byte(m.Render(indent, docs)), 0644); err != nil {
			return written, errors.Wrapf(err, "write %s", path)
		}
		written = append(written, path)
	}
	index := filepath.Join(p.OutDir, IndexFile)
	if err := os.WriteFile(index, []byte(p.Index()), 0644); err != nil {
		return written, errors.Wrapf(err, "write %s", index)
	}
	written = append(written, index)
	log.Infof("wrote %d modules to %s", len(p.Modules), p.OutDir)
	return written, nil
}
