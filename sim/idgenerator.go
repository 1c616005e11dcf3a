package sim

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

var (
	idGeneratorMutex sync.Mutex
	idGenerator      IDGenerator = &sequentialIDGenerator{}
)

// IDGenerator can generate IDs
type IDGenerator interface {
	// Generate an ID
	Generate() string
}

// UseSequentialIDGenerator makes events and progress bars numbered 1, 2, 3
// and so on, which keeps runs reproducible. It is the default. It returns
// the generator that was in use.
func UseSequentialIDGenerator() IDGenerator {
	return SetIDGenerator(&sequentialIDGenerator{})
}

// UseParallelIDGenerator makes IDs globally unique with xid. The IDs are no
// longer deterministic. It returns the generator that was in use.
func UseParallelIDGenerator() IDGenerator {
	return SetIDGenerator(parallelIDGenerator{})
}

// SetIDGenerator replaces the ID generator and returns the previous one.
func SetIDGenerator(g IDGenerator) IDGenerator {
	idGeneratorMutex.Lock()
	defer idGeneratorMutex.Unlock()

	prev := idGenerator
	idGenerator = g

	return prev
}

// GetIDGenerator returns the ID generator used in the current simulation
func GetIDGenerator() IDGenerator {
	idGeneratorMutex.Lock()
	defer idGeneratorMutex.Unlock()

	return idGenerator
}

type sequentialIDGenerator struct {
	nextID atomic.Uint64
}

func (g *sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(g.nextID.Add(1), 10)
}

type parallelIDGenerator struct{}

func (g parallelIDGenerator) Generate() string {
	return xid.New().String()
}
