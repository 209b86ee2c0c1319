package source

import (
	"fmt"
	"slices"
	"sync"

	"fortio.org/safecast"
	"golang.org/x/text/unicode/norm"
)

type StringID uint32

const NoStringID StringID = 0

// Interner maps identifier text to stable StringIDs. Text is NFC-normalized
// before interning, so canonically equivalent spellings share one id.
// Safe for concurrent use.
type Interner struct {
	mu    sync.RWMutex
	byID  []string            // индекс -> строка (byID[0] = "" для NoStringID)
	index map[string]StringID // строка -> ID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

// Intern вставляет строку в иннер и возвращает её ID.
func (i *Interner) Intern(s string) StringID {
	s = norm.NFC.String(s)

	i.mu.RLock()
	id, ok := i.index[s]
	i.mu.RUnlock()
	if ok {
		return id
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	if id, ok := i.index[s]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(i.byID))
	if err != nil {
		panic(fmt.Errorf("interner overflow: %w", err))
	}
	// собственная копия, чтобы не держать исходный буфер
	cpy := string([]byte(s))
	id = StringID(n)
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Lookup возвращает строку по ID.
func (i *Interner) Lookup(id StringID) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if int(id) >= len(i.byID) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup panics when id was not issued by this interner.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Len counts NoStringID too, so it is never below 1.
func (i *Interner) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.byID)
}

func (i *Interner) Snapshot() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return slices.Clone(i.byID)
}
