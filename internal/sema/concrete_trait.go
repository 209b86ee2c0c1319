package sema

import (
	"encoding/binary"
	"fmt"
	"slices"
	"sync"

	"fortio.org/safecast"

	"strata/internal/symbols"
	"strata/internal/types"
)

// ConcreteTraitLongID is one instantiation of a trait: the declaration plus
// its generic arguments in positional order.
type ConcreteTraitLongID struct {
	Trait symbols.TraitID
	Args  []types.TypeID
}

// Equal compares trait and arguments position by position.
func (l ConcreteTraitLongID) Equal(other ConcreteTraitLongID) bool {
	return l.Trait == other.Trait && slices.Equal(l.Args, other.Args)
}

func (l ConcreteTraitLongID) key() string {
	buf := make([]byte, 0, 4*(len(l.Args)+1))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(l.Trait))
	for _, arg := range l.Args {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(arg))
	}
	return string(buf)
}

// ConcreteTraitID is the interned handle of a ConcreteTraitLongID.
type ConcreteTraitID uint32

// NoConcreteTraitID is never issued by an interner.
const NoConcreteTraitID ConcreteTraitID = 0

func (id ConcreteTraitID) IsValid() bool { return id != NoConcreteTraitID }

// ConcreteTraitInterner maps structurally equal instantiations to one handle.
// Handles are allocated monotonically and are never reused or released.
// Safe for concurrent use.
type ConcreteTraitInterner struct {
	mu    sync.RWMutex
	byID  []ConcreteTraitLongID
	index map[string]ConcreteTraitID
}

func NewConcreteTraitInterner() *ConcreteTraitInterner {
	return &ConcreteTraitInterner{
		byID:  make([]ConcreteTraitLongID, 1, 64), // NoConcreteTraitID
		index: make(map[string]ConcreteTraitID, 64),
	}
}

// Intern returns the handle for long, allocating one on first use.
func (in *ConcreteTraitInterner) Intern(long ConcreteTraitLongID) ConcreteTraitID {
	key := long.key()
	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}

	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[key]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(in.byID))
	if err != nil {
		panic(fmt.Errorf("concrete trait interner overflow: %w", err))
	}
	id = ConcreteTraitID(n)
	in.byID = append(in.byID, ConcreteTraitLongID{Trait: long.Trait, Args: slices.Clone(long.Args)})
	in.index[key] = id
	return id
}

// Lookup returns the value interned under id.
func (in *ConcreteTraitInterner) Lookup(id ConcreteTraitID) (ConcreteTraitLongID, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoConcreteTraitID || int(id) >= len(in.byID) {
		return ConcreteTraitLongID{}, false
	}
	v := in.byID[id]
	return ConcreteTraitLongID{Trait: v.Trait, Args: slices.Clone(v.Args)}, true
}

// MustLookup is Lookup for ids known to come from this interner.
func (in *ConcreteTraitInterner) MustLookup(id ConcreteTraitID) ConcreteTraitLongID {
	v, ok := in.Lookup(id)
	if !ok {
		panic(fmt.Sprintf("sema: concrete trait id %d was not issued by this interner", id))
	}
	return v
}

// Len returns the number of issued handles.
func (in *ConcreteTraitInterner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.byID) - 1
}
