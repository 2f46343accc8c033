package letters

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
)

//go:embed corpus.csv
var embeddedCorpus []byte

// Provider hands out a fresh letter set for a room.
type Provider interface {
	Draw() Set
}

// Corpus draws uniformly from a list of validated sets.
type Corpus struct {
	mu   sync.Mutex
	sets []Set
	rng  *rand.Rand
	log  *zap.Logger
}

func NewCorpus(sets []Set, rng *rand.Rand, log *zap.Logger) *Corpus {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if log == nil {
		log = zap.NewNop()
	}
	valid := make([]Set, 0, len(sets))
	for _, s := range sets {
		if err := s.Validate(); err != nil {
			log.Warn("dropping corpus entry", zap.String("letters", s.String()), zap.Error(err))
			continue
		}
		valid = append(valid, s.Clone())
	}
	return &Corpus{sets: valid, rng: rng, log: log}
}

func (c *Corpus) Len() int { return len(c.sets) }

// Draw never fails: an empty corpus yields Default().
func (c *Corpus) Draw() Set {
	if len(c.sets) == 0 {
		c.log.Warn("letter corpus empty, using default set")
		return Default()
	}
	c.mu.Lock()
	i := c.rng.IntN(len(c.sets))
	c.mu.Unlock()
	return c.sets[i].Clone()
}

// ParseCSV reads rows of "letters,pangrams". A leading header row is allowed.
// Malformed rows are skipped; the number skipped is returned.
func ParseCSV(r io.Reader) ([]Set, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		sets    []Set
		skipped int
		first   = true
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				skipped++
				continue
			}
			return nil, skipped, fmt.Errorf("read corpus: %w", err)
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(rec[0]), "letters") {
				continue
			}
		}

		pangrams := ""
		if len(rec) > 1 {
			pangrams = rec[1]
		}
		s, err := Parse(rec[0], pangrams)
		if err != nil {
			skipped++
			continue
		}
		sets = append(sets, s)
	}
	return sets, skipped, nil
}

func LoadFile(path string) ([]Set, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open corpus %s: %w", path, err)
	}
	return ParseCSV(bytes.NewReader(data))
}

// Embedded returns the corpus compiled into the binary.
func Embedded() ([]Set, int, error) {
	return ParseCSV(bytes.NewReader(embeddedCorpus))
}
