package surface

import "github.com/bmatcuk/doublestar/v4"

// MaxEntryPoints caps the detected entry points
const MaxEntryPoints = 10

// entryPointPatterns are conventional per-ecosystem entry files, matched against repo-relative paths.
var entryPointPatterns = []string{
	// JavaScript / TypeScript
	"src/index.ts",
	"src/index.tsx",
	"src/main.ts",
	"src/main.tsx",
	"src/app.ts",
	"src/server.ts",
	"src/index.js",
	"src/main.js",
	"index.ts",
	"index.js",
	"main.js",
	"server.js",
	"app.js",
	"pages/_app.tsx",
	"app/layout.tsx",
	// Go
	"main.go",
	"cmd/*/main.go",
	// Rust
	"src/main.rs",
	"src/lib.rs",
	"src/bin/*.rs",
	// Python
	"main.py",
	"app.py",
	"manage.py",
	"__main__.py",
	"*/__main__.py",
	"wsgi.py",
	"asgi.py",
	// JVM
	"src/main/java/**/Application.java",
	"src/main/java/**/Main.java",
	"src/main/kotlin/**/Application.kt",
	"src/main/kotlin/**/Main.kt",
	// .NET
	"Program.cs",
	"*/Program.cs",
	// PHP / Ruby
	"index.php",
	"public/index.php",
	"config.ru",
	"bin/rails",
	// Dart
	"lib/main.dart",
}

// detectEntryPoints returns up to MaxEntryPoints distinct entry files, in path order.
func detectEntryPoints(files []fileEntry) []string {
	seen := make(map[string]bool)
	result := make([]string, 0)

	for _, f := range files {
		if len(result) >= MaxEntryPoints {
			break
		}
		if seen[f.Path] {
			continue
		}
		for _, pattern := range entryPointPatterns {
			if ok, _ := doublestar.Match(pattern, f.Path); ok {
				seen[f.Path] = true
				result = append(result, f.Path)
				break
			}
		}
	}
	return result
}
