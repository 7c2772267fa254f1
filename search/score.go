package search

import (
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/lexandro/fastpick-mcp/index"
)

// MatchType names the tier that produced a candidate's base score.
type MatchType string

const (
	MatchExact     MatchType = "exact"
	MatchPrefix    MatchType = "prefix"
	MatchSubstring MatchType = "substring"
	MatchFuzzy     MatchType = "fuzzy"
	MatchNone      MatchType = "none"
)

// Score is the per-result breakdown returned alongside every item.
type Score struct {
	Total                int       `json:"total"`
	BaseScore            int       `json:"base_score"`
	FilenameBonus        int       `json:"filename_bonus"`
	SpecialFilenameBonus int       `json:"special_filename_bonus"`
	FrecencyBoost        int       `json:"frecency_boost"`
	DistancePenalty      int       `json:"distance_penalty"`
	MatchType            MatchType `json:"match_type"`
}

const (
	// literal tier constants; the fuzzy scorer's raw value is added on top
	exactBase     = 250
	prefixBase    = 200
	substringBase = 140

	// frecency boost is proportional to the base score but capped below the
	// exact/prefix gap so usage can never overturn an exact-name match
	maxFrecencyBoost = 45

	// current-file penalties: a fixed nudge for scored queries, the
	// original's heavier shove for frecency-only ranking (halved when the
	// file is git-dirty, since the user is plausibly returning to it)
	currentFilePenalty          = 60
	currentFileFrecencyPenalty  = 300
	currentFileDirtyFrecPenalty = 150

	// distance penalty shape
	perDirStepPenalty     = 2
	maxDirDistancePenalty = 20
	perTypoPenalty        = 4
)

// specialFilenames are conventionally important entry-point files that earn
// an extra bonus when the query matched elsewhere in their path.
var specialFilenames = map[string]struct{}{
	"main.go": {}, "main.rs": {}, "main.c": {}, "main.rb": {},
	"mod.rs": {}, "lib.rs": {},
	"index.js": {}, "index.jsx": {}, "index.ts": {}, "index.tsx": {},
	"index.mjs": {}, "index.cjs": {}, "index.vue": {},
	"index.php": {}, "index.rb": {},
	"__init__.py": {}, "__main__.py": {},
	"readme.md": {}, "readme": {},
}

// scoringContext carries the per-query inputs shared by every candidate.
type scoringContext struct {
	query      string // lowercased
	rawLen     int    // rune count of the original query
	currentDir string // directory of the current file, "" when no hint
	maxTypos   int
}

func newScoringContext(query, currentFile string) scoringContext {
	lowered := strings.ToLower(query)
	n := len([]rune(lowered))

	maxTypos := n / 4
	if maxTypos < 2 {
		maxTypos = 2
	} else if maxTypos > 6 {
		maxTypos = 6
	}

	return scoringContext{
		query:      lowered,
		rawLen:     n,
		currentDir: parentDir(currentFile),
		maxTypos:   maxTypos,
	}
}

// scoreCandidate runs the tier pipeline for one entry. Returns false when the
// candidate misses every literal tier and falls below the fuzzy acceptance
// threshold.
func scoreCandidate(entry *index.FileEntry, ctx *scoringContext) (Score, bool) {
	nameLower := strings.ToLower(entry.Name)
	relLower := strings.ToLower(entry.RelativePath)
	q := ctx.query

	matchType := MatchNone
	tierBase := 0
	inName := false
	exactName := false

	switch {
	case relLower == q || nameLower == q:
		matchType = MatchExact
		tierBase = exactBase
		inName = nameLower == q
		exactName = inName
	case strings.HasPrefix(nameLower, q):
		matchType = MatchPrefix
		tierBase = prefixBase
		inName = true
	case strings.Contains(nameLower, q):
		matchType = MatchSubstring
		tierBase = substringBase
		inName = true
	case strings.Contains(relLower, q):
		matchType = MatchSubstring
		tierBase = substringBase
	}

	// the fuzzy raw value rides on top of every tier so that, inside a tier,
	// tighter alignments still rank first
	typos := 0
	nameRaw, nameOK := fuzzyScore(q, entry.Name)
	pathRaw, pathOK := fuzzyScore(q, entry.RelativePath)
	raw := 0
	switch {
	case nameOK && (!pathOK || nameRaw >= pathRaw):
		raw = nameRaw
		inName = inName || matchType == MatchNone
	case pathOK:
		raw = pathRaw
	}

	if matchType == MatchNone {
		if !nameOK && !pathOK {
			// typo fallback: accept near-miss filenames within the typo budget
			distance := editDistance(q, nameLower)
			if distance > ctx.maxTypos {
				return Score{MatchType: MatchNone}, false
			}
			matched := ctx.rawLen - distance
			raw = scoreMatch*matched - penaltyTypo*distance
			typos = distance
			inName = true
		}
		if raw < minAcceptScore(ctx.rawLen) {
			return Score{MatchType: MatchNone}, false
		}
		matchType = MatchFuzzy
	}

	base := tierBase + raw

	filenameBonus := 0
	specialBonus := 0
	switch {
	case exactName:
		filenameBonus = base * 2 / 5
	case inName:
		filenameBonus = base / 5
	default:
		if _, ok := specialFilenames[nameLower]; ok {
			specialBonus = base * 18 / 100
		}
	}

	frecencyBoost := base * int(entry.TotalFrecencyScore) / 100
	if frecencyBoost > maxFrecencyBoost {
		frecencyBoost = maxFrecencyBoost
	}

	penalty := dirDistancePenalty(ctx.currentDir, entry.RelativePath) + perTypoPenalty*typos
	if entry.IsCurrentFile {
		penalty += currentFilePenalty
	}

	return Score{
		Total:                base + filenameBonus + specialBonus + frecencyBoost - penalty,
		BaseScore:            base,
		FilenameBonus:        filenameBonus,
		SpecialFilenameBonus: specialBonus,
		FrecencyBoost:        frecencyBoost,
		DistancePenalty:      penalty,
		MatchType:            matchType,
	}, true
}

// scoreByFrecency ranks an entry for empty (or single-rune) queries: usage
// and git freshness only, with the current buffer pushed down hard so it is
// never auto-selected.
func scoreByFrecency(entry *index.FileEntry, ctx *scoringContext) Score {
	boost := int(entry.TotalFrecencyScore)

	penalty := dirDistancePenalty(ctx.currentDir, entry.RelativePath)
	if entry.IsCurrentFile {
		if entry.GitStatus.IsDirty() {
			penalty += currentFileDirtyFrecPenalty
		} else {
			penalty += currentFileFrecencyPenalty
		}
	}

	return Score{
		Total:           boost - penalty,
		FrecencyBoost:   boost,
		DistancePenalty: penalty,
		MatchType:       MatchNone,
	}
}

// dirDistancePenalty penalizes tree distance from the current file's
// directory: two points per step up or down from the common ancestor,
// capped. No hint, no penalty.
func dirDistancePenalty(currentDir, candidatePath string) int {
	if currentDir == "" {
		return 0
	}
	candidateDir := parentDir(candidatePath)
	if candidateDir == currentDir {
		return 0
	}

	currentParts := splitDir(currentDir)
	candidateParts := splitDir(candidateDir)

	common := 0
	for common < len(currentParts) && common < len(candidateParts) &&
		currentParts[common] == candidateParts[common] {
		common++
	}

	distance := (len(currentParts) - common) + (len(candidateParts) - common)
	penalty := distance * perDirStepPenalty
	if penalty > maxDirDistancePenalty {
		penalty = maxDirDistancePenalty
	}
	return penalty
}

func parentDir(path string) string {
	if slash := strings.LastIndexByte(path, '/'); slash >= 0 {
		return path[:slash]
	}
	return ""
}

func splitDir(dir string) []string {
	if dir == "" {
		return nil
	}
	return strings.Split(dir, "/")
}

// editDistance is the Levenshtein distance used by the typo fallback and the
// distance penalty.
func editDistance(a, b string) int {
	return edlib.LevenshteinDistance(a, b)
}
