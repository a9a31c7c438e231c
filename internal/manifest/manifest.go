// Package manifest reads the task list and package metadata from package.json.
package manifest

import (
	"os"
	"path/filepath"

	"github.com/tidwall/gjson"

	runerrors "github.com/mysticatea/npm-run-all-sub000/internal/errors"
)

// FileName is the manifest file looked up in the working directory
const FileName = "package.json"

// PackageInfo is the package metadata shown in task headers
type PackageInfo struct {
	Path    string
	Name    string
	Version string
	Scripts map[string]string
}

// Script returns the declared body of a script, or "" if unknown.
func (p *PackageInfo) Script(name string) string {
	if p == nil {
		return ""
	}
	return p.Scripts[name]
}

// Manifest is a parsed package.json
type Manifest struct {
	// TaskNames lists the declared scripts in document order.
	TaskNames []string
	Info      *PackageInfo
}

// Read loads package.json from dir.
func Read(dir string) (*Manifest, error) {
	path, err := filepath.Abs(filepath.Join(dir, FileName))
	if err != nil {
		return nil, runerrors.ManifestNotFound(filepath.Join(dir, FileName), err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, runerrors.ManifestNotFound(path, err)
	}
	return Parse(path, data)
}

// Parse extracts scripts and metadata from package.json content.
// Script order follows the document, which a Go map would lose.
func Parse(path string, data []byte) (*Manifest, error) {
	if !gjson.ValidBytes(data) {
		return nil, runerrors.ManifestMalformed(path, "invalid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, runerrors.ManifestMalformed(path, "top level is not an object")
	}

	scripts := root.Get("scripts")
	if !scripts.Exists() {
		return nil, runerrors.ManifestMalformed(path, `no "scripts" field`)
	}
	if !scripts.IsObject() {
		return nil, runerrors.ManifestMalformed(path, `"scripts" is not an object`)
	}

	m := &Manifest{
		Info: &PackageInfo{
			Path:    path,
			Name:    root.Get("name").String(),
			Version: root.Get("version").String(),
			Scripts: make(map[string]string),
		},
	}
	scripts.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if _, dup := m.Info.Scripts[name]; !dup {
			m.TaskNames = append(m.TaskNames, name)
		}
		m.Info.Scripts[name] = value.String()
		return true
	})
	return m, nil
}
