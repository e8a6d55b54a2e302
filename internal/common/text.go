package common

import "strings"

// accentReplacer maps the accented characters that show up in Spanish station
// and measurement names to their ASCII forms.
var accentReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	"Á", "A", "É", "E", "Í", "I", "Ó", "O", "Ú", "U", "Ü", "U", "Ñ", "N",
	"º", "", "°", "",
)

// CleanName normalizes a provider-supplied name for table lookups: accents
// stripped, lowercased, and every run of non-alphanumeric characters
// collapsed into a single underscore.
func CleanName(s string) string {
	s = strings.ToLower(accentReplacer.Replace(s))

	var b strings.Builder
	b.Grow(len(s))
	pendingSep := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}
