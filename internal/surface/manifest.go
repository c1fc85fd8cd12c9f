package surface

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Manifest filenames consulted for the repository name, in order.
const (
	ManifestCargoToml     = "Cargo.toml"
	ManifestPyprojectToml = "pyproject.toml"
	ManifestPackageJSON   = "package.json"
	ManifestGoMod         = "go.mod"
)

type cargoManifest struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

type pyprojectManifest struct {
	Project struct {
		Name string `toml:"name"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Name string `toml:"name"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

type packageJSON struct {
	Name string `json:"name"`
}

// RepositoryName derives a repository name from root manifests, falling back to
// the hint and then to the base name of root.
func RepositoryName(root, hint string) string {
	readers := []struct {
		file  string
		parse func([]byte) string
	}{
		{ManifestCargoToml, func(data []byte) string {
			var m cargoManifest
			if _, err := toml.Decode(string(data), &m); err != nil {
				return ""
			}
			return m.Package.Name
		}},
		{ManifestPyprojectToml, func(data []byte) string {
			var m pyprojectManifest
			if _, err := toml.Decode(string(data), &m); err != nil {
				return ""
			}
			if m.Project.Name != "" {
				return m.Project.Name
			}
			return m.Tool.Poetry.Name
		}},
		{ManifestPackageJSON, func(data []byte) string {
			var m packageJSON
			if err := json.Unmarshal(data, &m); err != nil {
				return ""
			}
			return m.Name
		}},
		{ManifestGoMod, goModuleName},
	}

	for _, r := range readers {
		data, err := os.ReadFile(filepath.Join(root, r.file))
		if err != nil {
			continue
		}
		if name := strings.TrimSpace(r.parse(data)); name != "" {
			return name
		}
	}

	if hint != "" {
		return hint
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Base(root)
	}
	return filepath.Base(abs)
}

// goModuleName returns the last segment of the module path in a go.mod file.
func goModuleName(data []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if rest, ok := strings.CutPrefix(line, "module"); ok && (rest == "" || rest[0] == ' ' || rest[0] == '\t') {
			mod := strings.Trim(strings.TrimSpace(rest), `"`)
			if mod == "" {
				return ""
			}
			return path.Base(mod)
		}
	}
	return ""
}
