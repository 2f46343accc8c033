package dictionary

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
)

// WordList is an in-memory Validator, used offline and in tests.
type WordList struct {
	words map[string]struct{}
}

func NewWordList(words ...string) *WordList {
	w := &WordList{words: make(map[string]struct{}, len(words))}
	for _, word := range words {
		w.add(word)
	}
	return w
}

// LoadWordList reads one word per line.
func LoadWordList(path string) (*WordList, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open word list %s: %w", path, err)
	}
	defer file.Close()

	w := NewWordList()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		w.add(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list %s: %w", path, err)
	}
	return w, nil
}

func (w *WordList) add(word string) {
	word = strings.ToUpper(strings.TrimSpace(word))
	if word != "" {
		w.words[word] = struct{}{}
	}
}

func (w *WordList) Len() int { return len(w.words) }

func (w *WordList) IsValidWord(_ context.Context, word string) bool {
	_, ok := w.words[strings.ToUpper(strings.TrimSpace(word))]
	return ok
}
