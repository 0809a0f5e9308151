package feature

import "strings"

// Lista de stop words en inglés (subconjunto práctico para títulos,
// géneros y tags de MovieLens).
var stopWords = map[string]bool{
	"a": true, "about": true, "after": true, "all": true, "also": true,
	"an": true, "and": true, "any": true, "are": true, "as": true,
	"at": true, "be": true, "because": true, "been": true, "but": true,
	"by": true, "can": true, "could": true, "did": true, "do": true,
	"does": true, "for": true, "from": true, "had": true, "has": true,
	"have": true, "he": true, "her": true, "his": true, "how": true,
	"i": true, "if": true, "in": true, "into": true, "is": true,
	"it": true, "its": true, "just": true, "me": true, "more": true,
	"most": true, "my": true, "no": true, "not": true, "of": true,
	"on": true, "one": true, "only": true, "or": true, "other": true,
	"our": true, "out": true, "over": true, "she": true, "so": true,
	"some": true, "such": true, "than": true, "that": true, "the": true,
	"their": true, "them": true, "then": true, "there": true, "they": true,
	"this": true, "through": true, "to": true, "too": true, "under": true,
	"up": true, "very": true, "was": true, "we": true, "were": true,
	"what": true, "when": true, "where": true, "which": true, "who": true,
	"will": true, "with": true, "would": true, "you": true, "your": true,
}

// Tokenize pasa a minúsculas, corta por caracteres no alfanuméricos y
// filtra stop words. El modelo de embeddings trae su propio tokenizador,
// sin filtro de stop words.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	fields := strings.FieldsFunc(lower, func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if stopWords[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
