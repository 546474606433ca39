// Package naming derives identifiers, file names, and selectors from icon
// namespaces so generated sources, bundles, and metadata agree on spelling.
package naming

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Words splits a namespace such as "watson-health/3D-Cursor/16" into its
// alphanumeric runs.
func Words(namespace string) []string {
	return strings.FieldsFunc(namespace, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Pascal joins the namespace words with their first letter upper-cased,
// preserving existing capitals: "watson-health/3D-Cursor/16" becomes
// "WatsonHealth3DCursor16". A Caser is stateful, so each call gets its own.
func Pascal(namespace string) string {
	titleCaser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, word := range Words(namespace) {
		b.WriteString(titleCaser.String(word))
	}
	return b.String()
}

// Identifier returns a Pascal name that is a valid JavaScript identifier.
func Identifier(namespace string) string {
	name := Pascal(namespace)
	if name == "" {
		return "_"
	}
	if unicode.IsDigit(rune(name[0])) {
		return "_" + name
	}
	return name
}

// ModuleName is the exported framework module class for a namespace.
func ModuleName(namespace string) string {
	return Identifier(namespace) + "Module"
}

// ComponentName is the exported component class for a namespace.
func ComponentName(namespace string) string {
	return Identifier(namespace) + "Component"
}

// Kebab converts the Pascal form into dash-separated lower case, splitting
// before a capital that follows a lower-case letter or digit and before the
// last capital of an acronym: "QCircuitComposer16" becomes
// "q-circuit-composer16".
func Kebab(namespace string) string {
	runes := []rune(Pascal(namespace))
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('-')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// FileName flattens a namespace into a single path element by replacing
// separators with dashes: "Q/circuit-composer/16" becomes
// "Q-circuit-composer-16".
func FileName(namespace string) string {
	return strings.ReplaceAll(strings.Trim(namespace, "/"), "/", "-")
}
