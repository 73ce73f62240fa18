package generator

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Generator produces a new value of type T on every call to Next.
// Playback sessions and history rows use it for their identifiers.
type Generator[T any] interface {
	Next() (T, error)
}

// UUIDV4Generator is a generator that produces UUIDv4 strings.
type UUIDV4Generator struct{}

func (g *UUIDV4Generator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var _ Generator[string] = &UUIDV4Generator{}

// SequenceGenerator yields Prefix-1, Prefix-2, ... and is safe for concurrent
// use. It gives deterministic IDs where UUIDs would get in the way.
type SequenceGenerator struct {
	Prefix string

	mu sync.Mutex
	n  int
}

func (g *SequenceGenerator) Next() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.Prefix, g.n), nil
}

var _ Generator[string] = &SequenceGenerator{}
