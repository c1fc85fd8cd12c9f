package surface

import (
	"path/filepath"
	"strings"
)

// Language identifiers used across archlens.
const (
	LanguageGo         = "go"
	LanguageTypeScript = "typescript"
	LanguageJavaScript = "javascript"
	LanguagePython     = "python"
	LanguageRust       = "rust"
	LanguageJava       = "java"
	LanguageKotlin     = "kotlin"
	LanguageRuby       = "ruby"
	LanguagePHP        = "php"
	LanguageCSharp     = "csharp"
	LanguageC          = "c"
	LanguageCPP        = "cpp"
	LanguageSwift      = "swift"
	LanguageScala      = "scala"
	LanguageDart       = "dart"
	LanguageElixir     = "elixir"
	LanguageLua        = "lua"
	LanguageShell      = "shell"
	LanguageMarkdown   = "markdown"
	LanguageJSON       = "json"
	LanguageYAML       = "yaml"
	LanguageTOML       = "toml"
	LanguageHTML       = "html"
	LanguageCSS        = "css"
	LanguageSQL        = "sql"
	LanguageVue        = "vue"
	LanguageSvelte     = "svelte"
	LanguageProto      = "protobuf"

	// LanguageOther marks files with no table entry
	LanguageOther = "other"
)

// extensionLanguages maps lower-cased file extensions to a language
var extensionLanguages = map[string]string{
	".go":     LanguageGo,
	".ts":     LanguageTypeScript,
	".tsx":    LanguageTypeScript,
	".mts":    LanguageTypeScript,
	".cts":    LanguageTypeScript,
	".js":     LanguageJavaScript,
	".jsx":    LanguageJavaScript,
	".mjs":    LanguageJavaScript,
	".cjs":    LanguageJavaScript,
	".py":     LanguagePython,
	".pyi":    LanguagePython,
	".rs":     LanguageRust,
	".java":   LanguageJava,
	".kt":     LanguageKotlin,
	".kts":    LanguageKotlin,
	".rb":     LanguageRuby,
	".php":    LanguagePHP,
	".cs":     LanguageCSharp,
	".c":      LanguageC,
	".h":      LanguageC,
	".cc":     LanguageCPP,
	".cpp":    LanguageCPP,
	".cxx":    LanguageCPP,
	".hpp":    LanguageCPP,
	".swift":  LanguageSwift,
	".scala":  LanguageScala,
	".dart":   LanguageDart,
	".ex":     LanguageElixir,
	".exs":    LanguageElixir,
	".lua":    LanguageLua,
	".sh":     LanguageShell,
	".bash":   LanguageShell,
	".zsh":    LanguageShell,
	".md":     LanguageMarkdown,
	".mdx":    LanguageMarkdown,
	".json":   LanguageJSON,
	".yaml":   LanguageYAML,
	".yml":    LanguageYAML,
	".toml":   LanguageTOML,
	".html":   LanguageHTML,
	".htm":    LanguageHTML,
	".css":    LanguageCSS,
	".scss":   LanguageCSS,
	".sql":    LanguageSQL,
	".vue":    LanguageVue,
	".svelte": LanguageSvelte,
	".proto":  LanguageProto,
}

// dataLanguages are classified but do not make a module "code"
var dataLanguages = map[string]bool{
	LanguageMarkdown: true,
	LanguageJSON:     true,
	LanguageYAML:     true,
	LanguageTOML:     true,
	LanguageOther:    true,
}

// frontendLanguages mark a repository as frontend-typed when dominant
var frontendLanguages = map[string]bool{
	LanguageTypeScript: true,
	LanguageJavaScript: true,
	LanguageVue:        true,
	LanguageSvelte:     true,
}

// LanguageForPath returns the language for a file path, or LanguageOther.
func LanguageForPath(path string) string {
	if lang, ok := extensionLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LanguageOther
}

// IsCodeLanguage reports whether a language is a programming language rather than data or docs.
func IsCodeLanguage(lang string) bool {
	return lang != "" && !dataLanguages[lang]
}

// IsFrontendLanguage reports whether lang is a browser-side language.
func IsFrontendLanguage(lang string) bool {
	return frontendLanguages[lang]
}

// ignoredDirs are never descended into
var ignoredDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"dist":         {},
	"build":        {},
	"target":       {},
	"vendor":       {},
	"out":          {},
	"coverage":     {},
	"__pycache__":  {},
	".next":        {},
	".venv":        {},
	"venv":         {},
	".tox":         {},
	".mypy_cache":  {},
	".idea":        {},
	".gradle":      {},
}

// ignoredFiles are lockfiles and similar generated files
var ignoredFiles = map[string]struct{}{
	"package-lock.json": {},
	"yarn.lock":         {},
	"pnpm-lock.yaml":    {},
	"Cargo.lock":        {},
	"go.sum":            {},
	"poetry.lock":       {},
	"composer.lock":     {},
	"Gemfile.lock":      {},
	"Pipfile.lock":      {},
	".DS_Store":         {},
}

// binaryExtensions are binary or media files
var binaryExtensions = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".bmp": {}, ".ico": {}, ".webp": {}, ".svg": {},
	".mp3": {}, ".mp4": {}, ".wav": {}, ".mov": {}, ".avi": {}, ".webm": {}, ".ogg": {},
	".pdf": {}, ".zip": {}, ".tar": {}, ".gz": {}, ".tgz": {}, ".rar": {}, ".7z": {}, ".bz2": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".a": {}, ".o": {}, ".class": {}, ".jar": {},
	".war": {}, ".pyc": {}, ".wasm": {}, ".bin": {}, ".db": {}, ".sqlite": {},
	".ttf": {}, ".otf": {}, ".woff": {}, ".woff2": {}, ".eot": {},
}

func isIgnoredDir(name string) bool {
	_, ok := ignoredDirs[name]
	return ok
}

func isIgnoredFile(name string) bool {
	if _, ok := ignoredFiles[name]; ok {
		return true
	}
	_, ok := binaryExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
