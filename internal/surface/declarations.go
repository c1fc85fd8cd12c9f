package surface

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"archlens/internal/analysis"
	"archlens/internal/paths"
)

// ModulesDeclarationFile is the default filename for module declarations
const ModulesDeclarationFile = "MODULES.toml"

// ModuleDeclaration represents a declared module in MODULES.toml
type ModuleDeclaration struct {
	// Name is the human-readable name of the module
	Name string `toml:"name"`

	// Path is the repo-relative path to the module root
	Path string `toml:"path"`

	// Type overrides classification: core, util, test, config or unknown
	Type string `toml:"type,omitempty"`

	// Responsibility is a one-line description of what this module does
	Responsibility string `toml:"responsibility,omitempty"`

	// Tags are classification tags; a tag naming a module type is used when Type is empty
	Tags []string `toml:"tags,omitempty"`
}

// ModulesFile represents the root structure of MODULES.toml
type ModulesFile struct {
	Version int                 `toml:"version"`
	Modules []ModuleDeclaration `toml:"module"`
}

func (d *ModuleDeclaration) normalizedPath() string {
	p := strings.Trim(paths.NormalizePath(strings.TrimPrefix(d.Path, "./")), "/")
	if p == "." {
		return ""
	}
	return p
}

// moduleType resolves the declared type from Type or Tags.
func (d *ModuleDeclaration) moduleType() (analysis.ModuleType, bool) {
	candidates := append([]string{d.Type}, d.Tags...)
	for _, c := range candidates {
		switch t := analysis.ModuleType(strings.ToLower(strings.TrimSpace(c))); t {
		case analysis.ModuleCore, analysis.ModuleUtil, analysis.ModuleTest, analysis.ModuleConfig, analysis.ModuleUnknown:
			return t, true
		}
	}
	return "", false
}

// ParseModulesFile parses a MODULES.toml file from the given path
func ParseModulesFile(filePath string) (*ModulesFile, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ModulesDeclarationFile, err)
	}

	var modulesFile ModulesFile
	if err := toml.Unmarshal(data, &modulesFile); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ModulesDeclarationFile, err)
	}
	if modulesFile.Version < 1 {
		modulesFile.Version = 1
	}

	for i, decl := range modulesFile.Modules {
		if decl.normalizedPath() == "" {
			return nil, fmt.Errorf("module declaration %d missing required 'path' field", i)
		}
	}
	return &modulesFile, nil
}

// LoadDeclarations loads declared modules from MODULES.toml at the root if it exists.
func LoadDeclarations(root string) ([]ModuleDeclaration, error) {
	filePath := filepath.Join(root, ModulesDeclarationFile)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil
	}

	modulesFile, err := ParseModulesFile(filePath)
	if err != nil {
		return nil, err
	}
	return modulesFile.Modules, nil
}
