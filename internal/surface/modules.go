package surface

import (
	"regexp"
	"sort"
	"strings"

	"archlens/internal/analysis"
	"archlens/internal/paths"
)

// RootModulePath is the path of the module holding files at the repository root.
const RootModulePath = "."

// prioritizedDirs always classify as core.
var prioritizedDirs = map[string]bool{
	"src":      true,
	"lib":      true,
	"app":      true,
	"core":     true,
	"internal": true,
	"pkg":      true,
	"cmd":      true,
	"server":   true,
	"api":      true,
}

// classificationRules are checked in order against each directory segment.
var classificationRules = []struct {
	Type    analysis.ModuleType
	Pattern *regexp.Regexp
}{
	{analysis.ModuleTest, regexp.MustCompile(`(?i)^(tests?|__tests__|specs?|e2e|integration|testing|testdata|fixtures?|__mocks__|mocks?)$`)},
	{analysis.ModuleConfig, regexp.MustCompile(`(?i)^(config|configs|conf|settings|\.github|\.circleci|deploy|deployments?|infra|k8s|helm|charts|docker|ci|\.vscode)$`)},
	{analysis.ModuleUtil, regexp.MustCompile(`(?i)^(utils?|utilities|helpers?|common|shared|tools?|support|misc|scripts?|hack)$`)},
	{analysis.ModuleCore, regexp.MustCompile(`(?i)^(services?|domain|models?|controllers?|routes?|handlers?|components?|views?|pages?|modules?|packages|apps?|backend|frontend|web|client|engine|runtime)$`)},
}

// classifyPath classifies a file by its directory segments. The first segment
// being a prioritized name forces core; otherwise the first matching rule wins.
func classifyPath(rel string) analysis.ModuleType {
	segments := strings.Split(rel, "/")
	dirs := segments[:len(segments)-1]
	if len(dirs) == 0 {
		return analysis.ModuleUnknown
	}
	if prioritizedDirs[strings.ToLower(dirs[0])] {
		return analysis.ModuleCore
	}
	for _, dir := range dirs {
		for _, rule := range classificationRules {
			if rule.Pattern.MatchString(dir) {
				return rule.Type
			}
		}
	}
	return analysis.ModuleUnknown
}

// moduleBuilder accumulates files for one candidate module.
type moduleBuilder struct {
	info      analysis.ModuleInfo
	langCount map[string]int
	declared  bool
}

// identifyModules groups files into modules. Files under a declared path belong to the
// declared module; other files belong to their first path segment, and root-level
// files form the root module named after the repository.
func identifyModules(files []fileEntry, repoName string, decls []ModuleDeclaration) []analysis.ModuleInfo {
	var order []string
	builders := make(map[string]*moduleBuilder)

	get := func(path string) *moduleBuilder {
		b, ok := builders[path]
		if !ok {
			name := path
			if path == RootModulePath {
				name = repoName
			}
			b = &moduleBuilder{
				info:      analysis.ModuleInfo{Path: path, Name: name, Type: analysis.ModuleUnknown},
				langCount: make(map[string]int),
			}
			builders[path] = b
			order = append(order, path)
		}
		return b
	}

	for _, f := range files {
		modulePath, decl := moduleFor(f.Path, decls)
		b := get(modulePath)
		if decl != nil && !b.declared {
			b.declared = true
			if decl.Name != "" {
				b.info.Name = decl.Name
			}
			if t, ok := decl.moduleType(); ok {
				b.info.Type = t
			}
		}

		b.info.FileCount++
		b.info.Files = append(b.info.Files, f.Path)
		if f.Language != LanguageOther {
			b.langCount[f.Language]++
		}

		if b.info.Type == analysis.ModuleUnknown {
			if modulePath == RootModulePath {
				if IsCodeLanguage(f.Language) {
					b.info.Type = analysis.ModuleCore
				}
			} else {
				b.info.Type = classifyPath(f.Path)
			}
		}
	}

	modules := make([]analysis.ModuleInfo, 0, len(order))
	for _, path := range order {
		b := builders[path]
		b.info.PrimaryLanguage = primaryLanguage(b.langCount)
		modules = append(modules, b.info)
	}
	SortModules(modules)
	return modules
}

// moduleFor returns the module path owning a file and the declaration that claimed it, if any.
func moduleFor(rel string, decls []ModuleDeclaration) (string, *ModuleDeclaration) {
	best := -1
	for i := range decls {
		p := decls[i].normalizedPath()
		if p == "" || !strings.HasPrefix(rel, p+"/") {
			continue
		}
		if best < 0 || len(p) > len(decls[best].normalizedPath()) {
			best = i
		}
	}
	if best >= 0 {
		return decls[best].normalizedPath(), &decls[best]
	}
	if seg := paths.FirstSegment(rel); seg != "" {
		return seg, nil
	}
	return RootModulePath, nil
}

// primaryLanguage is the most frequent language; ties break alphabetically.
func primaryLanguage(counts map[string]int) string {
	best, bestCount := "", 0
	for lang, n := range counts {
		if n > bestCount || (n == bestCount && lang < best) {
			best, bestCount = lang, n
		}
	}
	if best == "" {
		return LanguageOther
	}
	return best
}

// SortModules orders modules by type priority, then file count descending. The sort is stable.
func SortModules(modules []analysis.ModuleInfo) {
	sort.SliceStable(modules, func(i, j int) bool {
		pi, pj := modules[i].Type.Priority(), modules[j].Type.Priority()
		if pi != pj {
			return pi < pj
		}
		return modules[i].FileCount > modules[j].FileCount
	})
}
