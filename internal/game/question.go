package game

import (
	"context"
	"fmt"
	"math/rand"
	"slices"

	"github.com/scythe504/triplay-backend/internal"
	"github.com/scythe504/triplay-backend/internal/store"
)

// Selector picks a random unused question for a mode.
type Selector struct {
	store store.Store
	intn  func(n int) int
}

func NewSelector(st store.Store) *Selector {
	return &Selector{store: st, intn: rand.Intn}
}

// Select returns internal.ErrExhausted when every matching question has been
// used. Callers treat that as the end of the game.
func (s *Selector) Select(ctx context.Context, mode internal.GameMode, categories, exclude []string) (*internal.Question, error) {
	candidates, err := s.store.FindQuestions(ctx, mode, categories)
	if err != nil {
		return nil, fmt.Errorf("load %s questions: %w", mode, err)
	}

	candidates = slices.DeleteFunc(candidates, func(q *internal.Question) bool {
		return slices.Contains(exclude, q.Id)
	})
	if len(candidates) == 0 {
		return nil, internal.Errorf(internal.ErrExhausted, "no unused %s questions in %v", mode, categories)
	}
	return candidates[s.intn(len(candidates))], nil
}
