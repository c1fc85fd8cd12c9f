package structural

import (
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"archlens/internal/analysis"
)

var markdownHeading = regexp.MustCompile(`^(#{1,2})\s+(.+?)\s*#*\s*$`)

// markdownSymbols turns YAML frontmatter keys into key symbols and H1/H2 headings
// into heading symbols. Malformed frontmatter is ignored.
func markdownSymbols(file, content string) []analysis.Symbol {
	var symbols []analysis.Symbol
	lines := strings.Split(content, "\n")

	start := 0
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "---" {
		for i := 1; i < len(lines); i++ {
			if t := strings.TrimSpace(lines[i]); t == "---" || t == "..." {
				symbols = append(symbols, frontmatterKeys(file, strings.Join(lines[1:i], "\n"))...)
				start = i + 1
				break
			}
		}
	}

	inFence := false
	for i := start; i < len(lines); i++ {
		line := lines[i]
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if m := markdownHeading.FindStringSubmatch(line); m != nil {
			symbols = append(symbols, analysis.Symbol{
				Name: m[2],
				Kind: analysis.SymbolHeading,
				File: file,
				Line: i + 1,
			})
		}
	}
	return symbols
}

// frontmatterKeys lists top-level mapping keys in document order.
func frontmatterKeys(file, frontmatter string) []analysis.Symbol {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(frontmatter), &doc); err != nil {
		return nil
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil
	}
	mapping := doc.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil
	}

	var symbols []analysis.Symbol
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i]
		symbols = append(symbols, analysis.Symbol{
			Name: key.Value,
			Kind: analysis.SymbolKey,
			File: file,
			// +1 for the opening --- line
			Line: key.Line + 1,
		})
	}
	return symbols
}
