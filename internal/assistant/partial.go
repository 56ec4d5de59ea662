package assistant

import "strings"

// RemovePartialClosingTag strips an incompletely streamed closing tag for
// param from the end of value, so partial previews do not flash tag
// fragments like "</pat" at the user.
func RemovePartialClosingTag(value, param string) string {
	closing := "</" + param + ">"
	for l := len(closing); l > 0; l-- {
		if strings.HasSuffix(value, closing[:l]) {
			return value[:len(value)-l]
		}
	}
	return value
}
