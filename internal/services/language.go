package services

import (
	"sort"
	"strings"
)

type LanguageID int

type languageEntry struct {
	ID      LanguageID
	Aliases []string
}

// Judge0 CE language ids keyed by canonical name.
var languages = map[string]languageEntry{
	"c":          {ID: 50},
	"cpp":        {ID: 54, Aliases: []string{"c++", "cplusplus"}},
	"csharp":     {ID: 51, Aliases: []string{"c#", "cs"}},
	"go":         {ID: 60, Aliases: []string{"golang"}},
	"java":       {ID: 62},
	"javascript": {ID: 63, Aliases: []string{"js", "node", "nodejs"}},
	"kotlin":     {ID: 78, Aliases: []string{"kt"}},
	"php":        {ID: 68},
	"python":     {ID: 71, Aliases: []string{"py", "python3"}},
	"ruby":       {ID: 72, Aliases: []string{"rb"}},
	"rust":       {ID: 73, Aliases: []string{"rs"}},
	"swift":      {ID: 83},
	"typescript": {ID: 74, Aliases: []string{"ts"}},
}

// languageIndex maps every canonical name and alias to its canonical name.
var languageIndex = buildLanguageIndex()

func buildLanguageIndex() map[string]string {
	index := make(map[string]string)
	for name, entry := range languages {
		index[name] = name
		for _, alias := range entry.Aliases {
			index[alias] = name
		}
	}
	return index
}

// ResolveLanguage maps a free-form language name to an engine language id.
func ResolveLanguage(name string) (LanguageID, bool) {
	canonical, ok := CanonicalLanguage(name)
	if !ok {
		return 0, false
	}
	return languages[canonical].ID, true
}

// CanonicalLanguage returns the canonical name for a language or alias.
func CanonicalLanguage(name string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return "", false
	}
	canonical, ok := languageIndex[key]
	return canonical, ok
}

// SupportedLanguages returns the canonical language names in sorted order.
func SupportedLanguages() []string {
	names := make([]string, 0, len(languages))
	for name := range languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
