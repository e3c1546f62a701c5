package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

var whitespaceRun = regexp.MustCompile(`[\s\p{Zs}]+`)

// ClipName joins artist and title with an underscore, replaces every
// whitespace run with a single underscore, and uppercases the result.
func ClipName(artist, title string) string {
	return cases.Upper(language.Und).String(whitespaceRun.ReplaceAllString(artist+"_"+title, "_"))
}
