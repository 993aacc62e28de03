package parsers

import (
	"regexp"
	"strings"
)

// placeholder is the generator's marker for an empty column.
const placeholder = "-"

var trailingDashes = regexp.MustCompile(`(\s*-\s*)+$`)

// teamSuffixes are stripped from team names, checked in this order.
var teamSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+High\s+School$`),
	regexp.MustCompile(`(?i)\s+HS$`),
	regexp.MustCompile(`(?i)\s+Jr\s+Devo$`),
	regexp.MustCompile(`(?i)\s+Junior\s+Devo$`),
	regexp.MustCompile(`(?i)\s+Mountain\s+Bike\s+Team$`),
}

// NormalizeTeam strips separator artifacts and institutional suffixes from a team name.
// The cleanup is repeated until the name stops changing, so the result is a fixed point:
// NormalizeTeam(NormalizeTeam(x)) == NormalizeTeam(x).
func NormalizeTeam(team string) string {
	if team == "" || team == placeholder {
		return ""
	}

	for {
		cleaned := cleanTeamOnce(team)
		if cleaned == team {
			return cleaned
		}
		team = cleaned
	}
}

// cleanTeamOnce removes trailing dash groups and at most one known suffix.
func cleanTeamOnce(team string) string {
	team = trailingDashes.ReplaceAllString(team, "")

	for _, suffix := range teamSuffixes {
		if suffix.MatchString(team) {
			team = suffix.ReplaceAllString(team, "")
			break
		}
	}

	return strings.TrimSpace(team)
}
