package domain

import (
	"fmt"
	"math/rand"
	"sync"
	"time"
)

const receiptTimeFormat = "20060102150405"

// SequenceSource produces the 4-digit suffix used in receipt numbers
type SequenceSource interface {
	Next() int
}

type randomSequence struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func (s *randomSequence) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return 1000 + s.rng.Intn(9000)
}

// RandomSequence returns a SequenceSource producing values in [1000, 9999]
func RandomSequence() SequenceSource {
	return &randomSequence{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// FixedSequence is a SequenceSource pinned to a single value, for tests
type FixedSequence struct {
	Value int
}

func (s FixedSequence) Next() int {
	return s.Value
}

// ReceiptNumberGenerator produces transaction and return numbers
type ReceiptNumberGenerator struct {
	clock    Clock
	sequence SequenceSource
}

// NewReceiptNumberGenerator creates a generator with the given clock and sequence
func NewReceiptNumberGenerator(clock Clock, sequence SequenceSource) *ReceiptNumberGenerator {
	if clock == nil {
		clock = SystemClock()
	}
	if sequence == nil {
		sequence = RandomSequence()
	}
	return &ReceiptNumberGenerator{clock: clock, sequence: sequence}
}

// TransactionNumber produces a sale transaction number:
// {store}-{terminal}-{yyyyMMddHHmmss}-{nnnn}
func (g *ReceiptNumberGenerator) TransactionNumber(storeID StoreID, terminalID TerminalID) string {
	return fmt.Sprintf("%s-%s-%s-%04d",
		storeID, terminalID, g.clock.Now().Format(receiptTimeFormat), g.sequence.Next())
}

// ReturnNumber produces a return number: RTN-{store}-{yyyyMMddHHmmss}-{nnnn}
func (g *ReceiptNumberGenerator) ReturnNumber(storeID StoreID) string {
	return fmt.Sprintf("RTN-%s-%s-%04d",
		storeID, g.clock.Now().Format(receiptTimeFormat), g.sequence.Next())
}
