package structural

import (
	"regexp"
	"strings"

	"archlens/internal/analysis"
)

var (
	goSingleImport = regexp.MustCompile(`^\s*import\s+(?:([\w.]+)\s+)?"([^"]+)"`)
	goBlockStart   = regexp.MustCompile(`^\s*import\s*\(\s*$`)
	goBlockLine    = regexp.MustCompile(`^\s*(?:([\w.]+)\s+)?"([^"]+)"`)
)

// goImports handles single-line imports and import blocks.
func goImports(file, content string) []analysis.ImportEdge {
	var edges []analysis.ImportEdge
	inBlock := false

	for _, line := range strings.Split(content, "\n") {
		if inBlock {
			if strings.HasPrefix(strings.TrimSpace(line), ")") {
				inBlock = false
				continue
			}
			if m := goBlockLine.FindStringSubmatch(line); m != nil {
				edges = append(edges, goEdge(file, m[1], m[2]))
			}
			continue
		}
		if goBlockStart.MatchString(line) {
			inBlock = true
			continue
		}
		if m := goSingleImport.FindStringSubmatch(line); m != nil {
			edges = append(edges, goEdge(file, m[1], m[2]))
		}
	}
	return edges
}

func goEdge(file, alias, path string) analysis.ImportEdge {
	edge := analysis.ImportEdge{From: file, To: path}
	if alias != "" && alias != "_" && alias != "." {
		edge.ImportedNames = []string{alias}
	}
	return edge
}

var (
	scriptImportFrom    = regexp.MustCompile(`^\s*import\s+(type\s+)?(.+?)\s+from\s+['"]([^'"]+)['"]`)
	scriptSideEffect    = regexp.MustCompile(`^\s*import\s+['"]([^'"]+)['"]`)
	scriptReExport      = regexp.MustCompile(`^\s*export\s+(type\s+)?(\*(?:\s+as\s+[\w$]+)?|\{[^}]*\})\s+from\s+['"]([^'"]+)['"]`)
	scriptRequire       = regexp.MustCompile(`(?:(?:const|let|var)\s+([\w$]+|\{[^}]*\})\s*=\s*)?require\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	scriptDynamicImport = regexp.MustCompile(`import\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	scriptExportList    = regexp.MustCompile(`(?m)^\s*export\s*\{([^}]*)\}\s*;?\s*$`)
)

// scriptImports covers ES module imports, re-exports, require and dynamic import.
func scriptImports(file, content string) []analysis.ImportEdge {
	var edges []analysis.ImportEdge

	for _, line := range strings.Split(content, "\n") {
		if m := scriptImportFrom.FindStringSubmatch(line); m != nil {
			names, isDefault := parseImportClause(m[2])
			edges = append(edges, analysis.ImportEdge{
				From:          file,
				To:            m[3],
				ImportedNames: names,
				IsDefault:     isDefault,
				IsType:        m[1] != "",
			})
			continue
		}
		if m := scriptSideEffect.FindStringSubmatch(line); m != nil {
			edges = append(edges, analysis.ImportEdge{From: file, To: m[1]})
			continue
		}
		if m := scriptReExport.FindStringSubmatch(line); m != nil {
			names, _ := parseImportClause(m[2])
			edges = append(edges, analysis.ImportEdge{From: file, To: m[3], ImportedNames: names, IsType: m[1] != ""})
			continue
		}
		if m := scriptRequire.FindStringSubmatch(line); m != nil {
			edge := analysis.ImportEdge{From: file, To: m[2]}
			if m[1] != "" {
				names, _ := parseImportClause(m[1])
				edge.ImportedNames = names
				edge.IsDefault = !strings.HasPrefix(m[1], "{")
			}
			edges = append(edges, edge)
			continue
		}
		for _, m := range scriptDynamicImport.FindAllStringSubmatch(line, -1) {
			edges = append(edges, analysis.ImportEdge{From: file, To: m[1]})
		}
	}
	return edges
}

// parseImportClause splits `Default, { a, b as c }` or `* as ns` into local names.
func parseImportClause(clause string) ([]string, bool) {
	clause = strings.TrimSpace(clause)
	var names []string
	isDefault := false

	braceStart := strings.Index(clause, "{")
	head := clause
	if braceStart >= 0 {
		head = clause[:braceStart]
		inner := clause[braceStart+1:]
		if end := strings.Index(inner, "}"); end >= 0 {
			inner = inner[:end]
		}
		names = append(names, splitNameList(inner)...)
	}

	for _, part := range strings.Split(head, ",") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case strings.HasPrefix(part, "*"):
			if idx := strings.LastIndex(part, " as "); idx >= 0 {
				names = append(names, strings.TrimSpace(part[idx+4:]))
			}
		default:
			names = append(names, part)
			isDefault = true
		}
	}
	return names, isDefault
}

// splitNameList parses `a, b as c, type D` into [a c D].
func splitNameList(list string) []string {
	var names []string
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(item), "type "))
		if item == "" {
			continue
		}
		if idx := strings.LastIndex(item, " as "); idx >= 0 {
			item = strings.TrimSpace(item[idx+4:])
		}
		if idx := strings.Index(item, ":"); idx >= 0 {
			// destructured require: { a: b }
			item = strings.TrimSpace(item[idx+1:])
		}
		names = append(names, item)
	}
	return names
}

func scriptExportLists(content string) []string {
	var names []string
	for _, m := range scriptExportList.FindAllStringSubmatch(content, -1) {
		names = append(names, splitNameList(m[1])...)
	}
	return names
}

var (
	pythonFromImport = regexp.MustCompile(`^\s*from\s+([\w.]+)\s+import\s+\(?([^)#]+)`)
	pythonImport     = regexp.MustCompile(`^\s*import\s+([\w.]+(?:\s+as\s+\w+)?(?:\s*,\s*[\w.]+(?:\s+as\s+\w+)?)*)`)
)

func pythonImports(file, content string) []analysis.ImportEdge {
	var edges []analysis.ImportEdge
	for _, line := range strings.Split(content, "\n") {
		if m := pythonFromImport.FindStringSubmatch(line); m != nil {
			edges = append(edges, analysis.ImportEdge{From: file, To: m[1], ImportedNames: splitNameList(m[2])})
			continue
		}
		if m := pythonImport.FindStringSubmatch(line); m != nil {
			for _, mod := range strings.Split(m[1], ",") {
				mod = strings.TrimSpace(mod)
				if idx := strings.Index(mod, " as "); idx >= 0 {
					edges = append(edges, analysis.ImportEdge{From: file, To: strings.TrimSpace(mod[:idx]), ImportedNames: []string{strings.TrimSpace(mod[idx+4:])}})
					continue
				}
				edges = append(edges, analysis.ImportEdge{From: file, To: mod})
			}
		}
	}
	return edges
}

var (
	rustUse   = regexp.MustCompile(`^\s*(?:pub(?:\([^)]*\))?\s+)?use\s+([^;]+);`)
	rustCrate = regexp.MustCompile(`^\s*extern\s+crate\s+(\w+)`)
)

func rustImports(file, content string) []analysis.ImportEdge {
	var edges []analysis.ImportEdge
	for _, line := range strings.Split(content, "\n") {
		if m := rustUse.FindStringSubmatch(line); m != nil {
			path := strings.TrimSpace(m[1])
			edge := analysis.ImportEdge{From: file}
			if idx := strings.Index(path, "::{"); idx >= 0 {
				edge.To = path[:idx]
				edge.ImportedNames = splitNameList(strings.TrimSuffix(path[idx+3:], "}"))
			} else if idx := strings.LastIndex(path, "::"); idx >= 0 {
				edge.To = path[:idx]
				edge.ImportedNames = splitNameList(path[idx+2:])
			} else {
				edge.To = path
			}
			edges = append(edges, edge)
			continue
		}
		if m := rustCrate.FindStringSubmatch(line); m != nil {
			edges = append(edges, analysis.ImportEdge{From: file, To: m[1]})
		}
	}
	return edges
}

// qualifiedImports builds edges for dotted imports (Java, Kotlin, C#) where the last
// segment is the imported name unless it is a wildcard.
func qualifiedImports(pattern *regexp.Regexp, nameIsLast bool) func(file, content string) []analysis.ImportEdge {
	return func(file, content string) []analysis.ImportEdge {
		var edges []analysis.ImportEdge
		for _, line := range strings.Split(content, "\n") {
			m := pattern.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			target := m[1]
			edge := analysis.ImportEdge{From: file, To: target}
			if nameIsLast {
				if idx := strings.LastIndex(target, "."); idx >= 0 {
					edge.To = target[:idx]
					if last := target[idx+1:]; last != "*" {
						edge.ImportedNames = []string{last}
					}
				}
			}
			if len(m) > 2 && m[2] != "" {
				edge.ImportedNames = []string{m[2]}
			}
			edges = append(edges, edge)
		}
		return edges
	}
}

var (
	javaImports   = qualifiedImports(regexp.MustCompile(`^\s*import\s+(?:static\s+)?([\w.]+(?:\.\*)?)\s*;`), true)
	kotlinImports = qualifiedImports(regexp.MustCompile(`^\s*import\s+([\w.]+(?:\.\*)?)(?:\s+as\s+(\w+))?`), true)
	csharpImports = qualifiedImports(regexp.MustCompile(`^\s*(?:global\s+)?using\s+(?:static\s+)?(?:\w+\s*=\s*)?([\w.]+)\s*;`), false)
)

var rubyRequire = regexp.MustCompile(`^\s*(?:require|require_relative|load)\s*\(?\s*['"]([^'"]+)['"]`)

func rubyImports(file, content string) []analysis.ImportEdge {
	var edges []analysis.ImportEdge
	for _, line := range strings.Split(content, "\n") {
		if m := rubyRequire.FindStringSubmatch(line); m != nil {
			edges = append(edges, analysis.ImportEdge{From: file, To: m[1]})
		}
	}
	return edges
}

var (
	phpUse     = regexp.MustCompile(`^\s*use\s+(?:function\s+|const\s+)?([\w\\]+)(?:\s+as\s+(\w+))?\s*;`)
	phpInclude = regexp.MustCompile(`\b(?:require|include)(?:_once)?\s*\(?\s*['"]([^'"]+)['"]`)
)

func phpImports(file, content string) []analysis.ImportEdge {
	var edges []analysis.ImportEdge
	for _, line := range strings.Split(content, "\n") {
		if m := phpUse.FindStringSubmatch(line); m != nil {
			target := m[1]
			edge := analysis.ImportEdge{From: file, To: target}
			if idx := strings.LastIndex(target, `\`); idx >= 0 {
				edge.To = target[:idx]
				edge.ImportedNames = []string{target[idx+1:]}
			}
			if m[2] != "" {
				edge.ImportedNames = []string{m[2]}
			}
			edges = append(edges, edge)
			continue
		}
		if m := phpInclude.FindStringSubmatch(line); m != nil {
			edges = append(edges, analysis.ImportEdge{From: file, To: m[1]})
		}
	}
	return edges
}

var shellSource = regexp.MustCompile(`^\s*(?:source|\.)\s+["']?([^\s"';]+)`)

func shellImports(file, content string) []analysis.ImportEdge {
	var edges []analysis.ImportEdge
	for _, line := range strings.Split(content, "\n") {
		if m := shellSource.FindStringSubmatch(line); m != nil {
			edges = append(edges, analysis.ImportEdge{From: file, To: m[1]})
		}
	}
	return edges
}
