package parsers

import (
	"regexp"
	"strings"

	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
)

// CategoryPattern matches a whole category header line, e.g. "Varsity Boys" or "JV 8th Grade".
var CategoryPattern = regexp.MustCompile(`(?i)^((?:Sr\.|Freshman|JV|Sophomore|Varsity|Beginner|Intermediate|Advanced|SLR).*(?:Boys|Girls|7th Grade|8th Grade))$`)

// noiseMarkers identify the page banner and the column header row.
var noiseMarkers = []string{
	"PLC NO NAME TEAM",
	"UTAH HS MTB",
	"Individual Results",
}

// LineClass is the classification of a single report line.
type LineClass struct {
	Kind     resultstypes.LineKind
	Category string
}

// ClassifyLine decides whether a line is noise, a category header or a row candidate.
func ClassifyLine(line string) LineClass {
	line = strings.TrimSpace(line)
	if line == "" {
		return LineClass{Kind: resultstypes.LineNoise}
	}

	for _, marker := range noiseMarkers {
		if strings.Contains(line, marker) {
			return LineClass{Kind: resultstypes.LineNoise}
		}
	}

	if m := CategoryPattern.FindStringSubmatch(line); m != nil {
		return LineClass{Kind: resultstypes.LineCategory, Category: strings.TrimSpace(m[1])}
	}

	return LineClass{Kind: resultstypes.LineRow}
}
