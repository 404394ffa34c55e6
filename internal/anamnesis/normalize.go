package anamnesis

import (
	"strconv"
	"strings"
)

// DefaultPhototypePoints is the fallback score for a phototype answer
// that matches neither the lookup table nor a literal number. The
// default of 1 is part of the established scoring contract and must not
// change: unknown answers silently score as 1 point.
const DefaultPhototypePoints = 1

// phototypePoints maps the screening form's free-text answer options to
// their Fitzpatrick point values. Keys are lowercase, accent-stripped.
var phototypePoints = map[string]int{
	// skin color
	"branca leitosa":  0,
	"branca":          2,
	"bege":            8,
	"morena clara":    12,
	"morena moderada": 16,
	"morena escura":   20,
	"negra":           24,

	// eye color
	"azul claro":      0,
	"azul ou verde":   1,
	"cinza ou verde":  2,
	"castanho claro":  3,
	"castanho escuro": 4,

	// hair color
	"ruivo":                    0,
	"loiro":                    1,
	"castanho":                 2,
	"castanho escuro ou preto": 3,
	"preto":                    4,

	// freckles
	"muitas":  0,
	"algumas": 1,
	"poucas":  2,
	"nenhuma": 3,

	// reaction to sun exposure
	"sempre queima":     0,
	"queima facilmente": 1,
	"queima raramente":  2,
	"nunca queima":      3,

	// tanning ability
	"nunca bronzeia":        0,
	"bronzeia pouco":        1,
	"bronzeia gradualmente": 2,
	"bronzeia facilmente":   3,
	"sempre bronzeia":       4,
}

// PhototypePoints converts a phototype answer to its point value.
// Resolution order: lookup table, then a literal number in the text,
// then DefaultPhototypePoints.
func PhototypePoints(answer string) int {
	key := normalizeToken(answer)
	if pts, ok := phototypePoints[key]; ok {
		return pts
	}
	if n, err := strconv.Atoi(key); err == nil {
		return n
	}
	return DefaultPhototypePoints
}

// ClassifyPhototype maps a total questionnaire score to the Fitzpatrick
// phototype band reported to the backend.
func ClassifyPhototype(totalPoints int) string {
	switch {
	case totalPoints <= 7:
		return "I"
	case totalPoints <= 16:
		return "II"
	case totalPoints <= 25:
		return "III"
	case totalPoints <= 30:
		return "IV"
	default:
		return "V"
	}
}

// ParseYesNo converts a Portuguese yes/no token to a boolean. Anything
// that is not an affirmative variant counts as "no", including empty
// and unrecognized answers.
func ParseYesNo(answer string) bool {
	switch normalizeToken(answer) {
	case "sim", "s", "yes", "true", "1":
		return true
	}
	return false
}

// normalizeToken lowercases, trims and strips the accented vowels used
// by the questionnaire options ("não", "bronzeia até..." etc.) so token
// matching is insensitive to how the screens encode them.
func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	replacer := strings.NewReplacer(
		"ã", "a", "á", "a", "â", "a",
		"é", "e", "ê", "e",
		"í", "i",
		"õ", "o", "ó", "o", "ô", "o",
		"ú", "u", "ç", "c",
	)
	return replacer.Replace(s)
}
