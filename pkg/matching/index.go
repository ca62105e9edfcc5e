package matching

import (
	"sort"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Candidate is an indexed provider with its precomputed comparison key.
type Candidate struct {
	models.CandidateEntity
	Key string
}

// Duplicate records a candidate shadowed by an earlier candidate with the same
// folded name. Exact lookups resolve to Winner.
type Duplicate struct {
	Key      string
	WinnerID string
	LoserID  string
}

// Index is the per-batch lookup structure over all known providers.
type Index struct {
	candidates []Candidate
	byKey      map[string]int
	duplicates []Duplicate
	trigrams   map[string][]int
}

// NewIndex builds an index ordered by ascending provider id. When a folded
// name occurs more than once the lowest id wins exact lookups.
func NewIndex(entities []models.CandidateEntity) *Index {
	sorted := make([]models.CandidateEntity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	idx := &Index{
		candidates: make([]Candidate, 0, len(sorted)),
		byKey:      make(map[string]int, len(sorted)),
	}
	for _, e := range sorted {
		key := normalizers.Fold(e.CanonicalName)
		pos := len(idx.candidates)
		idx.candidates = append(idx.candidates, Candidate{CandidateEntity: e, Key: key})

		if key == "" {
			continue
		}
		if winner, ok := idx.byKey[key]; ok {
			idx.duplicates = append(idx.duplicates, Duplicate{
				Key:      key,
				WinnerID: idx.candidates[winner].ID,
				LoserID:  e.ID,
			})
			continue
		}
		idx.byKey[key] = pos
	}
	return idx
}

// Len returns the number of indexed candidates.
func (idx *Index) Len() int {
	return len(idx.candidates)
}

// Lookup finds the candidate whose folded name equals the folded name.
func (idx *Index) Lookup(name string) (Candidate, bool) {
	key := normalizers.Fold(name)
	if key == "" {
		return Candidate{}, false
	}
	pos, ok := idx.byKey[key]
	if !ok {
		return Candidate{}, false
	}
	return idx.candidates[pos], true
}

// Candidates returns all candidates in ascending id order. The slice must not be modified.
func (idx *Index) Candidates() []Candidate {
	return idx.candidates
}

// Duplicates lists names shared by more than one provider.
func (idx *Index) Duplicates() []Duplicate {
	return idx.duplicates
}

// Slugs returns the set of slugs already in use.
func (idx *Index) Slugs() map[string]struct{} {
	slugs := make(map[string]struct{}, len(idx.candidates))
	for _, c := range idx.candidates {
		if c.Slug != "" {
			slugs[c.Slug] = struct{}{}
		}
	}
	return slugs
}

// EnableBlocking builds a padded-trigram inverted index used by Block.
func (idx *Index) EnableBlocking() {
	idx.trigrams = make(map[string][]int)
	for pos, c := range idx.candidates {
		for gram := range trigramSet(c.Key) {
			idx.trigrams[gram] = append(idx.trigrams[gram], pos)
		}
	}
}

// Block returns the candidates sharing at least one trigram with key, in
// ascending id order. Without blocking enabled every candidate is returned.
func (idx *Index) Block(key string) []Candidate {
	if idx.trigrams == nil {
		return idx.candidates
	}

	seen := make(map[int]struct{})
	for gram := range trigramSet(key) {
		for _, pos := range idx.trigrams[gram] {
			seen[pos] = struct{}{}
		}
	}

	positions := make([]int, 0, len(seen))
	for pos := range seen {
		positions = append(positions, pos)
	}
	sort.Ints(positions)

	out := make([]Candidate, 0, len(positions))
	for _, pos := range positions {
		out = append(out, idx.candidates[pos])
	}
	return out
}

func trigramSet(s string) map[string]struct{} {
	grams := make(map[string]struct{})
	if s == "" {
		return grams
	}
	padded := []rune(" " + s + " ")
	for i := 0; i+3 <= len(padded); i++ {
		grams[string(padded[i:i+3])] = struct{}{}
	}
	return grams
}
