package language

import (
	"path/filepath"
	"strings"
)

// extensionToLanguage maps lowercase file extensions (without dot) to language names.
var extensionToLanguage = map[string]string{
	// Systems
	"go": "Go", "rs": "Rust", "zig": "Zig",
	"c": "C", "h": "C",
	"cpp": "C++", "cc": "C++", "cxx": "C++", "hpp": "C++", "hxx": "C++",
	// JVM / .NET
	"java": "Java", "kt": "Kotlin", "kts": "Kotlin", "scala": "Scala",
	"cs": "C#", "csx": "C#",
	// Scripting
	"py": "Python", "pyi": "Python", "pyw": "Python",
	"rb": "Ruby", "erb": "Ruby",
	"php": "PHP",
	"lua": "Lua",
	"pl":  "Perl", "pm": "Perl",
	"sh": "Shell", "bash": "Shell", "zsh": "Shell", "fish": "Shell",
	"ps1": "PowerShell", "psm1": "PowerShell",
	// JavaScript / TypeScript
	"js": "JavaScript", "jsx": "JavaScript", "mjs": "JavaScript", "cjs": "JavaScript",
	"ts": "TypeScript", "tsx": "TypeScript", "mts": "TypeScript", "cts": "TypeScript",
	// Functional
	"hs": "Haskell", "ml": "OCaml", "mli": "OCaml",
	"ex": "Elixir", "exs": "Elixir", "erl": "Erlang", "hrl": "Erlang",
	// Mobile
	"swift": "Swift", "dart": "Dart",
	// Web
	"html": "HTML", "htm": "HTML",
	"css": "CSS", "scss": "SCSS", "sass": "Sass", "less": "Less",
	"vue": "Vue", "svelte": "Svelte",
	// Data / config
	"json": "JSON", "jsonc": "JSON",
	"yaml": "YAML", "yml": "YAML",
	"toml": "TOML",
	"xml":  "XML",
	"ini":  "INI", "env": "Env", "properties": "Properties",
	"sql":     "SQL",
	"proto":   "Protobuf",
	"graphql": "GraphQL", "gql": "GraphQL",
	"tf": "Terraform", "tfvars": "Terraform",
	// Markup / docs
	"md": "Markdown", "mdx": "Markdown",
	"rst": "reStructuredText", "tex": "LaTeX",
	// Misc
	"txt": "Text", "csv": "CSV", "svg": "SVG",
	"bat": "Batch", "cmd": "Batch",
	"cmake": "CMake", "gradle": "Gradle",
	"r": "R", "rmd": "R",
}

// specialFilenames covers extensionless files recognized by name.
var specialFilenames = map[string]string{
	"makefile":       "Makefile",
	"gnumakefile":    "Makefile",
	"dockerfile":     "Dockerfile",
	"cmakelists.txt": "CMake",
	"gemfile":        "Ruby",
	"rakefile":       "Ruby",
	".gitignore":     "Git Config",
	".gitattributes": "Git Config",
}

// DetectFromPath returns the language for a file path based on its extension,
// falling back to well-known filenames. Returns "Unknown" when unrecognized.
func DetectFromPath(filePath string) string {
	base := strings.ToLower(filepath.Base(filePath))
	if lang, ok := specialFilenames[base]; ok {
		return lang
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filePath), "."))
	if ext == "" {
		return "Unknown"
	}
	if lang, ok := extensionToLanguage[ext]; ok {
		return lang
	}
	return "Unknown"
}
