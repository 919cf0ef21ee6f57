package odds

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ParseList turns free-form user text such as "2.0 1.85 2,5" into decimal
// odds. Input is NFKC-normalized first so full-width digits and exotic
// spaces behave like ASCII. Tokens split on whitespace and semicolons; a
// comma inside a token is a decimal separator. Entries that do not parse,
// are not finite or are <= 1 are dropped.
func ParseList(text string) []float64 {
	text = norm.NFKC.String(text)
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || r == ';'
	})

	out := make([]float64, 0, len(fields))
	for _, f := range fields {
		if strings.Count(f, ",") == 1 && !strings.Contains(f, ".") {
			f = strings.Replace(f, ",", ".", 1)
		}
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 1 {
			continue
		}
		out = append(out, v)
	}
	return out
}
