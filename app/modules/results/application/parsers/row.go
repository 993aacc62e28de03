package parsers

import (
	"strings"

	resultstypes "github.com/Black-And-White-Club/mtb-results/app/modules/results/domain/types"
)

const (
	// minRowTokens is the fewest whitespace-separated tokens a result row can have.
	minRowTokens = 8

	// nameWords is the assumed length of a rider name. Single-word and 3+ word
	// names are mis-split; there is no delimiter in the report to do better.
	nameWords = 2

	maxLaps = 4
)

// Tokenize splits a report line on runs of whitespace.
func Tokenize(line string) []string {
	return strings.Fields(line)
}

// ParseRow turns the tokens of a result row into a record scoped to category.
// It returns false when the tokens do not have the shape of a result row or the
// name/points boundary cannot be found. Header fields are left for the caller.
func ParseRow(tokens []string, category string) (resultstypes.ResultRecord, bool) {
	if !isRowShape(tokens) {
		return resultstypes.ResultRecord{}, false
	}

	record := resultstypes.ResultRecord{
		RaceCategory: category,
		Placement:    tokens[0],
		PlateNumber:  tokens[1],
	}

	if tokens[len(tokens)-1] == resultstypes.DNF {
		return parseDNFRow(tokens, record), true
	}

	return parseFinisherRow(tokens, record)
}

// isRowShape checks the minimum token count and the placement column ("*" marks unplaced riders).
func isRowShape(tokens []string) bool {
	if len(tokens) < minRowTokens {
		return false
	}
	return tokens[0] == "*" || allDigits.MatchString(tokens[0])
}

// parseDNFRow handles rows ending in DNF. They carry no lap, penalty or total columns,
// and points (when present) sit directly before the first dash.
func parseDNFRow(tokens []string, record resultstypes.ResultRecord) resultstypes.ResultRecord {
	var middle []string
	if cut := findDNFCut(tokens); cut > 2 {
		middle = tokens[2:cut]
	}

	if len(middle) > nameWords && isPoints(middle[len(middle)-1]) {
		record.Points = middle[len(middle)-1]
		middle = middle[:len(middle)-1]
	}

	name, team := splitNameTeam(middle)
	record.Name = name
	record.Team = NormalizeTeam(team)
	record.TotalTime = resultstypes.DNF

	return record
}

// findDNFCut returns the index of the first "-" or "DNF" after the plate number, or -1.
func findDNFCut(tokens []string) int {
	for j := 2; j < len(tokens); j++ {
		if tokens[j] == placeholder || tokens[j] == resultstypes.DNF {
			return j
		}
	}
	return -1
}

func parseFinisherRow(tokens []string, record resultstypes.ResultRecord) (resultstypes.ResultRecord, bool) {
	ptsIdx := findPointsIndex(tokens)
	if ptsIdx < 0 {
		return resultstypes.ResultRecord{}, false
	}

	teamEndIdx := ptsIdx - 1
	if teamEndIdx < 2 {
		return resultstypes.ResultRecord{}, false
	}

	name, team := splitNameTeam(tokens[2 : teamEndIdx+1])
	record.Name = name
	record.Team = NormalizeTeam(team)

	lapStart := ptsIdx
	if isPoints(tokens[ptsIdx]) {
		record.Points = tokens[ptsIdx]
		lapStart = ptsIdx + 1
	}

	total, penalty, lapEnd := resolveTail(tokens)
	record.TotalTime = total
	record.Penalty = penalty

	laps := extractLaps(tokens, lapStart, lapEnd)
	record.Lap1, record.Lap2, record.Lap3, record.Lap4 = laps[0], laps[1], laps[2], laps[3]

	return record, true
}

// findPointsIndex locates the first column after the team name: either a points value
// followed by a time or dash, a dash, a time not preceded by a points value, or DNF.
func findPointsIndex(tokens []string) int {
	for j := 2; j < len(tokens); j++ {
		tok := tokens[j]

		if isPoints(tok) && j+1 < len(tokens) && (isTimeLike(tokens[j+1]) || tokens[j+1] == placeholder) {
			return j
		}

		if tok == placeholder || (isTimeLike(tok) && !isPoints(tokens[j-1])) {
			return j
		}

		if tok == resultstypes.DNF {
			return j
		}
	}
	return -1
}

// splitNameTeam takes the first two tokens as the rider name and the rest as the raw team.
func splitNameTeam(middle []string) (name, team string) {
	n := min(nameWords, len(middle))
	return strings.Join(middle[:n], " "), strings.Join(middle[n:], " ")
}

// resolveTail reads the total time and optional penalty from the end of the row and
// returns the exclusive end index of the lap columns.
func resolveTail(tokens []string) (total, penalty string, lapEnd int) {
	last := tokens[len(tokens)-1]
	if last == resultstypes.DNF {
		total = resultstypes.DNF
	} else {
		total = NormalizeTime(last)
	}

	lapEnd = len(tokens) - 1
	if len(tokens) >= 2 {
		prev := tokens[len(tokens)-2]
		if isTimeLike(prev) && prev != placeholder {
			penalty = NormalizeTime(prev)
			lapEnd = len(tokens) - 2
		}
	}

	return total, penalty, lapEnd
}

// extractLaps returns up to four normalized lap times from tokens[start:end].
func extractLaps(tokens []string, start, end int) [maxLaps]string {
	var laps [maxLaps]string
	for k, i := start, 0; k < end && i < maxLaps; k, i = k+1, i+1 {
		lap := tokens[k]
		if lap == placeholder {
			lap = ""
		}
		laps[i] = NormalizeTime(lap)
	}
	return laps
}
