package candidate

import "strings"

// Stoplist is a case-insensitive set of tokens
type Stoplist map[string]struct{}

// NewStoplist creates a stoplist from the given words
func NewStoplist(words ...string) Stoplist {
	s := make(Stoplist, len(words))
	for _, w := range words {
		s[strings.ToLower(w)] = struct{}{}
	}
	return s
}

// Contains reports whether the lowercased word is in the stoplist
func (s Stoplist) Contains(word string) bool {
	_, ok := s[strings.ToLower(word)]
	return ok
}

// Union returns a new stoplist holding the words of all given stoplists
func Union(lists ...Stoplist) Stoplist {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	out := make(Stoplist, n)
	for _, l := range lists {
		for w := range l {
			out[w] = struct{}{}
		}
	}
	return out
}

// BracketPlaceholders are the escaped brackets emitted by Penn Treebank tokenizers
var BracketPlaceholders = []string{"-lrb-", "-rrb-", "-lcb-", "-rcb-", "-lsb-", "-rsb-"}

// Punctuation returns every ASCII punctuation mark as a single-character token
func Punctuation() Stoplist {
	const marks = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"
	s := make(Stoplist, len(marks))
	for _, r := range marks {
		s[string(r)] = struct{}{}
	}
	return s
}

// PunctuationAndBrackets returns the token set used by the token-set filter
func PunctuationAndBrackets() Stoplist {
	return Union(Punctuation(), NewStoplist(BracketPlaceholders...))
}

// English returns the English function-word list
func English() Stoplist {
	return NewStoplist(englishStopwords...)
}

var englishStopwords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you",
	"your", "yours", "yourself", "yourselves", "he", "him", "his", "himself",
	"she", "her", "hers", "herself", "it", "its", "itself", "they", "them",
	"their", "theirs", "themselves", "what", "which", "who", "whom", "this",
	"that", "these", "those", "am", "is", "are", "was", "were", "be", "been",
	"being", "have", "has", "had", "having", "do", "does", "did", "doing",
	"a", "an", "the", "and", "but", "if", "or", "because", "as", "until",
	"while", "of", "at", "by", "for", "with", "about", "against", "between",
	"into", "through", "during", "before", "after", "above", "below", "to",
	"from", "up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "then", "once", "here", "there", "when", "where", "why", "how",
	"all", "any", "both", "each", "few", "more", "most", "other", "some",
	"such", "no", "nor", "not", "only", "own", "same", "so", "than", "too",
	"very", "s", "t", "can", "will", "just", "don", "should", "now", "d",
	"ll", "m", "o", "re", "ve", "y", "ain", "aren", "couldn", "didn",
	"doesn", "hadn", "hasn", "haven", "isn", "ma", "mightn", "mustn",
	"needn", "shan", "shouldn", "wasn", "weren", "won", "wouldn",
}
