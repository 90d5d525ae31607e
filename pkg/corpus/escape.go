package corpus

import "strings"

// likeEscape is the escape character declared in every LIKE clause.
const likeEscape = `\`

var likeReplacer = strings.NewReplacer(
	`\`, `\\`,
	`%`, `\%`,
	`_`, `\_`,
)

// LikePattern turns a fragment into a LIKE pattern that matches words starting
// with the literal fragment.
func LikePattern(fragment string) string {
	return likeReplacer.Replace(fragment) + "%"
}
