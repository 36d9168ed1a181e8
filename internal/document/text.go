package document

import (
	"fmt"
	"strings"

	"github.com/jdkato/prose/v2"

	"github.com/todmy/keyphrase-extractor/pkg/models"
)

// TextBuilder segments, tokenizes and tags raw English text
type TextBuilder struct {
	Stem Stemmer
}

// NewTextBuilder creates a builder stemming with SnowballStemmer
func NewTextBuilder() *TextBuilder {
	return &TextBuilder{Stem: SnowballStemmer}
}

// Build returns the document of text. Blank text yields an empty document.
func (b *TextBuilder) Build(id, text string) (models.Document, error) {
	doc := models.Document{ID: id}
	if strings.TrimSpace(text) == "" {
		return doc, nil
	}

	stem := b.Stem
	if stem == nil {
		stem = SnowballStemmer
	}

	segmented, err := prose.NewDocument(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to segment text: %w", err)
	}

	for i, sent := range segmented.Sentences() {
		tagged, err := prose.NewDocument(sent.Text,
			prose.WithSegmentation(false),
			prose.WithExtraction(false),
		)
		if err != nil {
			return models.Document{}, fmt.Errorf("failed to tag sentence %d: %w", i, err)
		}

		var s models.Sentence
		for _, tok := range tagged.Tokens() {
			s.Words = append(s.Words, tok.Text)
			s.Stems = append(s.Stems, stem(tok.Text))
			s.POS = append(s.POS, tok.Tag)
		}
		if s.Length() > 0 {
			doc.Sentences = append(doc.Sentences, s)
		}
	}

	return doc, nil
}
