package item

import (
	"fmt"
	"sync"
)

// Inventory maps item IDs to remaining counts. It is global across battles
// and is never replenished by the battle engine.
//
// Inventory is safe for concurrent use.
type Inventory struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewInventory creates an Inventory seeded with counts.
//
// Postcondition: Count(id) == counts[id] for every positive entry; negative
// entries are stored as 0.
func NewInventory(counts map[string]int) *Inventory {
	inv := &Inventory{counts: make(map[string]int, len(counts))}
	for id, n := range counts {
		if n < 0 {
			n = 0
		}
		inv.counts[id] = n
	}
	return inv
}

// Count returns the remaining count for id.
func (inv *Inventory) Count(id string) int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return inv.counts[id]
}

// Consume removes one unit of id.
//
// Postcondition: Returns false and leaves the inventory unchanged when the
// count is already 0; otherwise decrements the count and returns true.
func (inv *Inventory) Consume(id string) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	if inv.counts[id] <= 0 {
		return false
	}
	inv.counts[id]--
	return true
}

// Add increases the count for id by n.
//
// Precondition: n > 0.
func (inv *Inventory) Add(id string, n int) error {
	if n <= 0 {
		return fmt.Errorf("item: Inventory.Add: n must be > 0, got %d", n)
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.counts[id] += n
	return nil
}

// Snapshot returns a copy of every count, including zeroes.
func (inv *Inventory) Snapshot() map[string]int {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make(map[string]int, len(inv.counts))
	for id, n := range inv.counts {
		out[id] = n
	}
	return out
}
