package structural

import (
	"regexp"
	"strings"
	"unicode"

	"archlens/internal/analysis"
	"archlens/internal/surface"
)

// DeclPattern detects one declaration kind. Group 1 of Pattern is the symbol name.
type DeclPattern struct {
	Kind    analysis.SymbolKind
	Pattern *regexp.Regexp

	// Loose patterns carry no declaration keyword and can match call sites such as
	// `if (x) {` or `new Foo(`; their captures are checked against reservedNames.
	Loose bool
}

// LanguageProfile is the extraction strategy for one language.
// Adding a language means adding a profile; the extractor itself does not change.
type LanguageProfile struct {
	Language string

	// Declarations are tried in order; the first match on a line wins.
	Declarations []DeclPattern

	// ExportKeyword matches lines whose declaration carries the ecosystem's export keyword.
	ExportKeyword *regexp.Regexp

	// ExportedByConvention decides export status when no keyword is present.
	ExportedByConvention func(name, line string) bool

	// Imports extracts import edges from a file.
	Imports func(file, content string) []analysis.ImportEdge

	// ExportLists returns names exported through list syntax such as `export { a, b }`.
	ExportLists func(content string) []string

	// CommentPrefixes are line prefixes skipped for declaration matching.
	CommentPrefixes []string
}

var upperConstant = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)

func isUpperConstant(name string) bool {
	return upperConstant.MatchString(name)
}

func upperInitial(name, _ string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}

func noLeadingUnderscore(name, _ string) bool {
	return name != "" && !strings.HasPrefix(name, "_")
}

var (
	privateModifier   = regexp.MustCompile(`\b(private|internal|protected)\b`)
	rubyPrivateMarker = regexp.MustCompile(`^_`)
)

func notPrivateModifier(_ string, line string) bool {
	return !privateModifier.MatchString(line)
}

const (
	jsIdent = `([A-Za-z_$][\w$]*)`
	jvmMods = `(?:(?:public|protected|private|abstract|final|static|sealed|non-sealed|strictfp|synchronized|native|default|transient|volatile)\s+)`
	csMods  = `(?:(?:public|private|protected|internal|static|sealed|abstract|partial|readonly|virtual|override|async|extern|new|unsafe)\s+)`
	ktMods  = `(?:(?:public|private|internal|protected|open|abstract|sealed|data|enum|inner|annotation|value|override|suspend|inline|operator|infix|tailrec|external|actual|expect)\s+)`
	rsVis   = `(?:pub(?:\([^)]*\))?\s+)?`
)

func decl(kind analysis.SymbolKind, pattern string) DeclPattern {
	return DeclPattern{Kind: kind, Pattern: regexp.MustCompile(pattern)}
}

func looseDecl(kind analysis.SymbolKind, pattern string) DeclPattern {
	d := decl(kind, pattern)
	d.Loose = true
	return d
}

var cStyleComments = []string{"//", "/*", "*"}

// DefaultProfiles returns the built-in language profiles keyed by language id.
func DefaultProfiles() map[string]*LanguageProfile {
	scriptDecls := []DeclPattern{
		decl(analysis.SymbolClass, `^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+`+jsIdent),
		decl(analysis.SymbolInterface, `^\s*(?:export\s+)?(?:declare\s+)?interface\s+`+jsIdent),
		decl(analysis.SymbolType, `^\s*(?:export\s+)?(?:declare\s+)?type\s+`+jsIdent+`\s*(?:<[^=]*>)?\s*=`),
		decl(analysis.SymbolType, `^\s*(?:export\s+)?(?:declare\s+)?(?:const\s+)?enum\s+`+jsIdent),
		decl(analysis.SymbolFunction, `^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*`+jsIdent),
		decl(analysis.SymbolFunction, `^\s*(?:export\s+)?(?:const|let|var)\s+`+jsIdent+`\s*(?::[^=]+)?=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$][\w$]*)\s*(?::[^=]+)?=>`),
		decl(analysis.SymbolConstant, `^\s*(?:export\s+)?const\s+`+jsIdent),
		decl(analysis.SymbolVariable, `^\s*(?:export\s+)?(?:let|var)\s+`+jsIdent),
		looseDecl(analysis.SymbolMethod, `^\s+(?:(?:public|private|protected|static|async|readonly|override|get|set)\s+)*`+jsIdent+`\s*\([^)]*\)\s*(?::\s*[^{]+)?\{\s*$`),
	}

	return map[string]*LanguageProfile{
		surface.LanguageGo: {
			Language: surface.LanguageGo,
			Declarations: []DeclPattern{
				decl(analysis.SymbolMethod, `^func\s+\([^)]*\)\s+([A-Za-z_]\w*)\s*[\[(]`),
				decl(analysis.SymbolFunction, `^func\s+([A-Za-z_]\w*)\s*[\[(]`),
				decl(analysis.SymbolInterface, `^type\s+([A-Za-z_]\w*)(?:\[[^\]]*\])?\s+interface\b`),
				decl(analysis.SymbolClass, `^type\s+([A-Za-z_]\w*)(?:\[[^\]]*\])?\s+struct\b`),
				decl(analysis.SymbolType, `^type\s+([A-Za-z_]\w*)\b`),
				decl(analysis.SymbolConstant, `^const\s+([A-Za-z_]\w*)\b`),
				decl(analysis.SymbolVariable, `^var\s+([A-Za-z_]\w*)\b`),
			},
			ExportedByConvention: upperInitial,
			Imports:              goImports,
			CommentPrefixes:      cStyleComments,
		},
		surface.LanguageTypeScript: {
			Language:        surface.LanguageTypeScript,
			Declarations:    scriptDecls,
			ExportKeyword:   regexp.MustCompile(`^\s*export\b`),
			Imports:         scriptImports,
			ExportLists:     scriptExportLists,
			CommentPrefixes: cStyleComments,
		},
		surface.LanguageJavaScript: {
			Language:        surface.LanguageJavaScript,
			Declarations:    scriptDecls,
			ExportKeyword:   regexp.MustCompile(`^\s*export\b`),
			Imports:         scriptImports,
			ExportLists:     scriptExportLists,
			CommentPrefixes: cStyleComments,
		},
		surface.LanguagePython: {
			Language: surface.LanguagePython,
			Declarations: []DeclPattern{
				decl(analysis.SymbolClass, `^class\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolMethod, `^\s+(?:async\s+)?def\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolFunction, `^(?:async\s+)?def\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolConstant, `^([A-Z][A-Z0-9_]*)\s*(?::[^=]+)?=[^=]`),
				decl(analysis.SymbolVariable, `^([a-z_]\w*)\s*(?::[^=]+)?=[^=]`),
			},
			ExportedByConvention: noLeadingUnderscore,
			Imports:              pythonImports,
			CommentPrefixes:      []string{"#"},
		},
		surface.LanguageRust: {
			Language: surface.LanguageRust,
			Declarations: []DeclPattern{
				decl(analysis.SymbolMethod, `^\s+`+rsVis+`(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolFunction, `^`+rsVis+`(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+"[^"]*"\s+)?fn\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolClass, `^\s*`+rsVis+`struct\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolType, `^\s*`+rsVis+`enum\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolInterface, `^\s*`+rsVis+`(?:unsafe\s+)?trait\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolType, `^\s*`+rsVis+`type\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolConstant, `^\s*`+rsVis+`(?:const|static)\s+(?:mut\s+)?([A-Za-z_]\w*)\s*:`),
			},
			ExportKeyword:   regexp.MustCompile(`^\s*pub\b`),
			Imports:         rustImports,
			CommentPrefixes: cStyleComments,
		},
		surface.LanguageJava: {
			Language: surface.LanguageJava,
			Declarations: []DeclPattern{
				decl(analysis.SymbolInterface, `^\s*`+jvmMods+`*@?interface\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolClass, `^\s*`+jvmMods+`*(?:class|record)\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolType, `^\s*`+jvmMods+`*enum\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolConstant, `^\s*`+jvmMods+`*static\s+final\s+[\w<>\[\],.?\s]+?\s+([A-Z][A-Z0-9_]*)\s*=`),
				looseDecl(analysis.SymbolMethod, `^\s+`+jvmMods+`+(?:<[^>]+>\s+)?[\w<>\[\],.?]+\s+([A-Za-z_]\w*)\s*\(`),
			},
			ExportKeyword:   regexp.MustCompile(`^\s*public\b`),
			Imports:         javaImports,
			CommentPrefixes: cStyleComments,
		},
		surface.LanguageKotlin: {
			Language: surface.LanguageKotlin,
			Declarations: []DeclPattern{
				decl(analysis.SymbolInterface, `^\s*`+ktMods+`*(?:fun\s+)?interface\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolClass, `^\s*`+ktMods+`*(?:class|object)\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolMethod, `^\s+`+ktMods+`*fun\s+(?:<[^>]+>\s+)?(?:[\w.]+\.)?([A-Za-z_]\w*)\s*\(`),
				decl(analysis.SymbolFunction, `^`+ktMods+`*fun\s+(?:<[^>]+>\s+)?(?:[\w.]+\.)?([A-Za-z_]\w*)\s*\(`),
				decl(analysis.SymbolConstant, `^\s*`+ktMods+`*const\s+val\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolType, `^\s*`+ktMods+`*typealias\s+([A-Za-z_]\w*)`),
			},
			ExportedByConvention: notPrivateModifier,
			Imports:              kotlinImports,
			CommentPrefixes:      cStyleComments,
		},
		surface.LanguageRuby: {
			Language: surface.LanguageRuby,
			Declarations: []DeclPattern{
				decl(analysis.SymbolClass, `^\s*class\s+([A-Z]\w*(?:::\w+)*)`),
				decl(analysis.SymbolType, `^\s*module\s+([A-Z]\w*(?:::\w+)*)`),
				decl(analysis.SymbolMethod, `^\s+def\s+(?:self\.)?([A-Za-z_]\w*[?!=]?)`),
				decl(analysis.SymbolFunction, `^def\s+(?:self\.)?([A-Za-z_]\w*[?!]?)`),
				decl(analysis.SymbolConstant, `^\s*([A-Z][A-Z0-9_]*)\s*=[^=]`),
			},
			ExportedByConvention: func(name, line string) bool { return !rubyPrivateMarker.MatchString(name) },
			Imports:              rubyImports,
			CommentPrefixes:      []string{"#"},
		},
		surface.LanguagePHP: {
			Language: surface.LanguagePHP,
			Declarations: []DeclPattern{
				decl(analysis.SymbolInterface, `^\s*interface\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolType, `^\s*trait\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolType, `^\s*enum\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolClass, `^\s*(?:(?:abstract|final|readonly)\s+)*class\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolMethod, `^\s+(?:(?:public|private|protected|static|abstract|final)\s+)*function\s+&?([A-Za-z_]\w*)`),
				decl(analysis.SymbolFunction, `^function\s+&?([A-Za-z_]\w*)`),
				decl(analysis.SymbolConstant, `^\s*(?:(?:public|private|protected|final)\s+)*const\s+([A-Za-z_]\w*)`),
			},
			ExportedByConvention: notPrivateModifier,
			Imports:              phpImports,
			CommentPrefixes:      []string{"//", "#", "/*", "*"},
		},
		surface.LanguageCSharp: {
			Language: surface.LanguageCSharp,
			Declarations: []DeclPattern{
				decl(analysis.SymbolInterface, `^\s*`+csMods+`*interface\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolClass, `^\s*`+csMods+`*(?:class|record|struct)\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolType, `^\s*`+csMods+`*enum\s+([A-Za-z_]\w*)`),
				decl(analysis.SymbolConstant, `^\s*`+csMods+`*const\s+[\w<>?.]+\s+([A-Za-z_]\w*)\s*=`),
				looseDecl(analysis.SymbolMethod, `^\s+`+csMods+`+[\w<>\[\],.?]+\s+([A-Za-z_]\w*)\s*[(<]`),
			},
			ExportKeyword:   regexp.MustCompile(`^\s*public\b`),
			Imports:         csharpImports,
			CommentPrefixes: cStyleComments,
		},
		surface.LanguageShell: {
			Language: surface.LanguageShell,
			Declarations: []DeclPattern{
				decl(analysis.SymbolFunction, `^\s*function\s+([A-Za-z_][\w-]*)`),
				looseDecl(analysis.SymbolFunction, `^\s*([A-Za-z_][\w-]*)\s*\(\)\s*\{?`),
				decl(analysis.SymbolConstant, `^\s*(?:export\s+|readonly\s+|declare\s+-r\s+)?([A-Z][A-Z0-9_]*)=`),
			},
			ExportKeyword:   regexp.MustCompile(`^\s*export\b`),
			Imports:         shellImports,
			CommentPrefixes: []string{"#"},
		},
	}
}

// reservedNames are keywords a Loose pattern can capture from statements.
var reservedNames = map[string]bool{
	"if": true, "for": true, "while": true, "switch": true, "catch": true, "return": true,
	"function": true, "else": true, "new": true, "do": true, "try": true, "with": true,
	"typeof": true, "await": true, "super": true, "this": true, "using": true, "lock": true,
	"foreach": true, "sizeof": true, "nameof": true, "throw": true,
}
