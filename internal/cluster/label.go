package cluster

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/verifact/internal/model"
)

const (
	unnamedLabel  = "Unnamed Cluster"
	labelWords    = 3
	wordsPerText  = 5
	minWordLength = 5
)

// Labeler names clusters from the most frequent content words of their members
type Labeler struct {
	stopwords map[string]bool
}

// NewLabeler creates a labeler; nil stopwords use model.DefaultStopwords
func NewLabeler(stopwords []string) *Labeler {
	if stopwords == nil {
		stopwords = model.DefaultStopwords
	}
	set := make(map[string]bool, len(stopwords))
	for _, w := range stopwords {
		set[strings.ToLower(w)] = true
	}
	return &Labeler{stopwords: set}
}

// Label joins the three most frequent content words, title-cased. Words must be
// longer than four characters; only the first five per text are counted and
// ties keep first-seen order.
func (l *Labeler) Label(texts []string) string {
	counts := make(map[string]int)
	var order []string
	for _, text := range texts {
		taken := 0
		for _, w := range strings.Fields(strings.ToLower(text)) {
			w = strings.TrimFunc(w, func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) })
			if utf8.RuneCountInString(w) < minWordLength || l.stopwords[w] {
				continue
			}
			if counts[w] == 0 {
				order = append(order, w)
			}
			counts[w]++
			taken++
			if taken == wordsPerText {
				break
			}
		}
	}
	if len(order) == 0 {
		return unnamedLabel
	}

	top := make([]string, 0, labelWords)
	used := make(map[string]bool)
	for len(top) < labelWords && len(top) < len(order) {
		best := ""
		for _, w := range order {
			if !used[w] && (best == "" || counts[w] > counts[best]) {
				best = w
			}
		}
		used[best] = true
		top = append(top, titleCase(best))
	}
	return strings.Join(top, " ")
}

func titleCase(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + w[size:]
}

// Representative returns the longest text, the first on ties
func Representative(texts []string) string {
	rep := ""
	for _, t := range texts {
		if utf8.RuneCountInString(t) > utf8.RuneCountInString(rep) {
			rep = t
		}
	}
	return rep
}

// Category returns the majority claim type, the first seen on ties
func Category(types []model.ClaimType) model.ClaimType {
	if len(types) == 0 {
		return model.ClaimTypeGeneral
	}
	counts := make(map[model.ClaimType]int)
	best := types[0]
	for _, t := range types {
		counts[t]++
	}
	for _, t := range types {
		if counts[t] > counts[best] {
			best = t
		}
	}
	return best
}
