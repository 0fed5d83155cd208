package judge

import (
	"sort"
	"strings"
)

// Language is a practice language and its Judge0 id.
type Language struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	ID   int    `json:"id"`
}

var languages = []Language{
	{Key: "python", Name: "Python 3", ID: 71},
	{Key: "javascript", Name: "JavaScript (Node.js)", ID: 63},
	{Key: "java", Name: "Java", ID: 62},
	{Key: "cpp", Name: "C++", ID: 54},
	{Key: "c", Name: "C", ID: 50},
	{Key: "csharp", Name: "C#", ID: 51},
	{Key: "typescript", Name: "TypeScript", ID: 74},
	{Key: "ruby", Name: "Ruby", ID: 72},
	{Key: "go", Name: "Go", ID: 60},
	{Key: "rust", Name: "Rust", ID: 73},
}

var aliases = map[string]string{
	"python3": "python",
	"c++":     "cpp",
	"c#":      "csharp",
	"js":      "javascript",
	"ts":      "typescript",
	"golang":  "go",
}

// Languages returns the supported languages ordered by key.
func Languages() []Language {
	out := append([]Language(nil), languages...)
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Lookup resolves a language name or alias, case-insensitively.
func Lookup(name string) (Language, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[key]; ok {
		key = canonical
	}
	for _, l := range languages {
		if l.Key == key {
			return l, true
		}
	}
	return Language{}, false
}

// ByID returns the language with the given Judge0 id.
func ByID(id int) (Language, bool) {
	for _, l := range languages {
		if l.ID == id {
			return l, true
		}
	}
	return Language{}, false
}
