package pipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// astExtensions are the AST export formats read directly.
var astExtensions = []string{".json", ".yaml", ".yml"}

// sourceExtensions are RPG sources that need the external parser.
var sourceExtensions = []string{".rpgle", ".sqlrpgle"}

// Discover returns the inputs under dir, sorted. RPG sources are included
// only when withSources is set, i.e. a parser command is configured.
// Hidden directories are skipped.
func Discover(dir string, withSources bool) ([]string, error) {
	var inputs []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsASTExport(path) || (withSources && IsSource(path)) {
			inputs = append(inputs, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(inputs)
	return inputs, nil
}

// IsASTExport reports whether path names an AST export document.
func IsASTExport(path string) bool {
	return hasExt(path, astExtensions)
}

// IsSource reports whether path names an RPG source file.
func IsSource(path string) bool {
	return hasExt(path, sourceExtensions)
}

func hasExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// ProgramName is the participant name for an input: the base name of the
// original source. An export CUSTUPD.rpgle.json yields CUSTUPD.rpgle.
func ProgramName(input string) string {
	base := filepath.Base(input)
	if IsASTExport(base) {
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base
}

// OutputName is the diagram file name for an input.
func OutputName(input string) string {
	return ProgramName(input) + ".puml"
}

// OutputPath is the diagram path of an input relative to the output
// directory: the input's directory below inputsDir, then OutputName.
// Inputs outside inputsDir, or any input when inputsDir is empty, map to
// OutputName alone.
func OutputPath(inputsDir, input string) string {
	name := OutputName(input)
	if inputsDir == "" {
		return name
	}
	rel, err := filepath.Rel(inputsDir, filepath.Dir(input))
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return name
	}
	return filepath.Join(rel, name)
}
