package trainer

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/todmy/keyphrase-extractor/internal/document"
)

// References maps a document ID to its gold keys
type References map[string][]string

// ReadReferences parses lines of the form "C-41 : phrase one,phrase two".
// Alternatives joined by '+' count as separate gold keys. Phrases are
// passed through stem unless stem is nil.
func ReadReferences(r io.Reader, stem document.Stemmer) (References, error) {
	refs := make(References)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		id, phrases, ok := strings.Cut(text, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: missing ':' separator", line)
		}
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("line %d: empty document id", line)
		}

		for _, phrase := range strings.Split(phrases, ",") {
			for _, alt := range strings.Split(phrase, "+") {
				alt = strings.TrimSpace(alt)
				if alt == "" {
					continue
				}
				if stem != nil {
					alt = document.StemPhrase(alt, stem)
				} else {
					alt = strings.Join(strings.Fields(strings.ToLower(alt)), " ")
				}
				refs[id] = append(refs[id], alt)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read references: %w", err)
	}
	return refs, nil
}

// LoadReferencesFile reads a reference file from disk
func LoadReferencesFile(path string, stem document.Stemmer) (References, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open references: %w", err)
	}
	defer f.Close()

	return ReadReferences(f, stem)
}
