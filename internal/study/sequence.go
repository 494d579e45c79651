package study

import (
	"cmp"
	"math/rand"
	"slices"

	"github.com/samber/lo"

	"github.com/lehmann314159/flashcards/internal/models"
)

// BuildSequence produces the words a session presents, in order.
//
// Review sessions keep the review order (most attempts first) with repeated words dropped and are
// never sampled. Normal sessions arrange the candidates by the order policy; when fewer than all
// candidates are asked for, a uniform shuffle picks the subset. Sequential and difficulty order
// then present the picked words in policy order, random keeps the shuffled order.
func BuildSequence(kind Kind, candidates []*models.VocabularyWord, totalWords int, order models.Order, rng *rand.Rand) []*models.VocabularyWord {
	if kind == KindReview {
		return lo.UniqBy(candidates, func(w *models.VocabularyWord) string {
			return w.ID
		})
	}

	ordered := arrange(candidates, order)
	if totalWords >= len(ordered) || totalWords < 0 {
		return ordered
	}

	picks := make([]int, len(ordered))
	for i := range picks {
		picks[i] = i
	}
	rng.Shuffle(len(picks), func(i, j int) {
		picks[i], picks[j] = picks[j], picks[i]
	})
	picks = picks[:totalWords]

	if order != models.OrderRandom {
		slices.Sort(picks)
	}

	sequence := make([]*models.VocabularyWord, len(picks))
	for i, p := range picks {
		sequence[i] = ordered[p]
	}
	return sequence
}

// arrange returns a copy of candidates in policy order. Sequential and random keep the store's
// natural order, difficulty sorts ascending and keeps ties in store order.
func arrange(candidates []*models.VocabularyWord, order models.Order) []*models.VocabularyWord {
	ordered := slices.Clone(candidates)
	if ordered == nil {
		ordered = []*models.VocabularyWord{}
	}
	if order == models.OrderDifficulty {
		slices.SortStableFunc(ordered, func(a, b *models.VocabularyWord) int {
			return cmp.Compare(a.Difficulty, b.Difficulty)
		})
	}
	return ordered
}
