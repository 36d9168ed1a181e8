package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kljensen/snowball/english"
	"github.com/tidwall/gjson"

	"github.com/todmy/keyphrase-extractor/pkg/models"
)

var (
	ErrInvalidJSON   = errors.New("invalid CoreNLP JSON")
	ErrMissingTokens = errors.New("token without word or part-of-speech")
)

// Stemmer maps a word to its normalized form
type Stemmer func(word string) string

// SnowballStemmer lowercases and stems an English word
func SnowballStemmer(word string) string {
	return english.Stem(strings.ToLower(word), true)
}

// FromCoreNLP builds a document from the JSON output of the CoreNLP server.
// Only the word and pos fields of each token are read. A nil stem uses
// SnowballStemmer.
func FromCoreNLP(id string, data []byte, stem Stemmer) (models.Document, error) {
	if !gjson.ValidBytes(data) {
		return models.Document{}, ErrInvalidJSON
	}
	if stem == nil {
		stem = SnowballStemmer
	}

	doc := models.Document{ID: id}
	var parseErr error

	gjson.GetBytes(data, "sentences").ForEach(func(_, sent gjson.Result) bool {
		var s models.Sentence
		sent.Get("tokens").ForEach(func(_, tok gjson.Result) bool {
			word := tok.Get("word").String()
			if word == "" {
				word = tok.Get("originalText").String()
			}
			pos := tok.Get("pos").String()
			if word == "" || pos == "" {
				parseErr = fmt.Errorf("%w: sentence %d token %d",
					ErrMissingTokens, sent.Get("index").Int(), tok.Get("index").Int())
				return false
			}
			s.Words = append(s.Words, word)
			s.Stems = append(s.Stems, stem(word))
			s.POS = append(s.POS, pos)
			return true
		})
		if parseErr != nil {
			return false
		}
		if s.Length() > 0 {
			doc.Sentences = append(doc.Sentences, s)
		}
		return true
	})

	if parseErr != nil {
		return models.Document{}, parseErr
	}
	return doc, nil
}

// LoadCoreNLPFile reads a CoreNLP JSON file. The document ID is the file
// name without its extensions.
func LoadCoreNLPFile(path string, stem Stemmer) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to read document: %w", err)
	}
	doc, err := FromCoreNLP(DocumentID(path), data, stem)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}

// DocumentID strips the directory and every extension from path
func DocumentID(path string) string {
	base := filepath.Base(path)
	if i := strings.IndexByte(base, '.'); i > 0 {
		return base[:i]
	}
	return base
}

// StemPhrase stems each whitespace-separated word of phrase and joins them
// into a candidate key.
func StemPhrase(phrase string, stem Stemmer) string {
	if stem == nil {
		stem = SnowballStemmer
	}
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = stem(w)
	}
	return strings.Join(words, " ")
}
