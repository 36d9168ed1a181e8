package candidate

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Filter maps a candidate store to a new, filtered store
type Filter func(*Store) *Store

// Apply runs the filters in order
func Apply(store *Store, filters ...Filter) *Store {
	for _, f := range filters {
		store = f(store)
	}
	return store
}

// ContainsAny drops candidates whose first surface form contains a token of set
func ContainsAny(set Stoplist) Filter {
	return func(s *Store) *Store {
		return s.Retain(func(c *Candidate) bool {
			if len(c.SurfaceForms) == 0 {
				return false
			}
			for _, w := range c.SurfaceForms[0] {
				if set.Contains(w) {
					return false
				}
			}
			return true
		})
	}
}

// TokenSet drops candidates containing punctuation or bracket placeholders
func TokenSet() Filter {
	return ContainsAny(PunctuationAndBrackets())
}

// StopwordContains drops candidates containing a stopword, a punctuation
// mark or a bracket placeholder anywhere.
func StopwordContains(stoplist Stoplist) Filter {
	return ContainsAny(Union(stoplist, PunctuationAndBrackets()))
}

// StopwordBoundary drops candidates whose first surface form starts or ends
// with a stopword.
func StopwordBoundary(stoplist Stoplist) Filter {
	return func(s *Store) *Store {
		return s.Retain(func(c *Candidate) bool {
			if len(c.SurfaceForms) == 0 || len(c.SurfaceForms[0]) == 0 {
				return false
			}
			words := c.SurfaceForms[0]
			return !stoplist.Contains(words[0]) && !stoplist.Contains(words[len(words)-1])
		})
	}
}

var (
	simplexNP = regexp.MustCompile(`^((JJ|NN) ){0,2}NN$`)
	npInNP    = regexp.MustCompile(`^((JJ|NN) )?NN IN ((JJ|NN) )?NN$`)
)

// TagPattern truncates each tag to its first two letters and joins them by spaces
func TagPattern(tags []string) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		if len(t) > 2 {
			t = t[:2]
		}
		parts[i] = t
	}
	return strings.Join(parts, " ")
}

// MatchesNounPhrase reports whether the tag sequence is a simplex noun phrase
// or a noun phrase with an embedded prepositional phrase.
func MatchesNounPhrase(tags []string) bool {
	p := TagPattern(tags)
	return simplexNP.MatchString(p) || npInNP.MatchString(p)
}

// NounPhrasePattern keeps only the occurrences whose POS pattern is a noun
// phrase and drops candidates left without occurrences.
func NounPhrasePattern() Filter {
	return func(s *Store) *Store {
		return s.Map(func(c *Candidate) *Candidate {
			valid := make([]int, 0, len(c.POSPatterns))
			for i, tags := range c.POSPatterns {
				if MatchesNounPhrase(tags) {
					valid = append(valid, i)
				}
			}
			if len(valid) == 0 {
				return nil
			}
			return c.keep(valid)
		})
	}
}

// IsAcronym reports whether the surface form, joined by spaces, has at
// least one cased letter, no lowercase letter and more than one character.
func IsAcronym(words []string) bool {
	form := strings.Join(words, " ")
	if utf8.RuneCountInString(form) <= 1 {
		return false
	}
	cased := false
	for _, r := range form {
		if unicode.IsLower(r) || unicode.IsTitle(r) {
			return false
		}
		if unicode.IsUpper(r) {
			cased = true
		}
	}
	return cased
}

type ranked struct {
	count int
	key   string
}

// MostFrequent keeps the top unigrams and top multi-word candidates by
// occurrence count together with every acronym.
func MostFrequent(unigrams, nonUnigrams int) Filter {
	return func(s *Store) *Store {
		var uni, multi []ranked
		valid := make(map[string]struct{}, max(unigrams, 0)+max(nonUnigrams, 0))

		for _, c := range s.Candidates() {
			r := ranked{count: c.Frequency(), key: c.Key}
			if c.Length() == 1 {
				uni = append(uni, r)
			} else {
				multi = append(multi, r)
			}
			if len(c.SurfaceForms) > 0 && IsAcronym(c.SurfaceForms[0]) {
				valid[c.Key] = struct{}{}
			}
		}

		for _, r := range top(uni, unigrams) {
			valid[r.key] = struct{}{}
		}
		for _, r := range top(multi, nonUnigrams) {
			valid[r.key] = struct{}{}
		}

		return s.Retain(func(c *Candidate) bool {
			_, ok := valid[c.Key]
			return ok
		})
	}
}

// top sorts by count then key, both descending, and truncates to k
func top(items []ranked, k int) []ranked {
	sort.Slice(items, func(i, j int) bool {
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].key > items[j].key
	})
	if k < 0 {
		k = 0
	}
	if k < len(items) {
		items = items[:k]
	}
	return items
}
