package diag

import (
	"fmt"
	"math"
	"sort"
)

// Bag collects diagnostics up to a fixed limit.
type Bag struct {
	items []Diagnostic
	max   uint16
}

func NewBag(limit int) *Bag {
	limit = max(0, min(limit, math.MaxUint16))
	return &Bag{
		items: make([]Diagnostic, 0, min(limit, 64)),
		max:   uint16(limit), //nolint:gosec // clamped above
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит).
func (b *Bag) Add(d Diagnostic) bool {
	if len(b.items) >= int(b.max) {
		return false
	}
	b.items = append(b.items, d)
	return true
}

// Truncate keeps the first n diagnostics and lowers the limit to n.
// It reports whether anything was dropped.
func (b *Bag) Truncate(n int) bool {
	n = max(0, min(n, math.MaxUint16))
	b.max = uint16(n) //nolint:gosec // clamped above
	if len(b.items) <= n {
		return false
	}
	clear(b.items[n:])
	b.items = b.items[:n]
	return true
}

// HasErrors возвращает true, если есть хотя бы одна диагностика с Severity >= Error
func (b *Bag) HasErrors() bool {
	for i := range b.items {
		if b.items[i].Severity >= SevError {
			return true
		}
	}
	return false
}


func (b *Bag) Len() int {
	return len(b.items)
}

// Items возвращает read-only slice диагностик.
// ВАЖНО: не модифицируйте возвращаемый срез!
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// Merge appends other's diagnostics, growing the limit when needed.
func (b *Bag) Merge(other *Bag) {
	if other == nil {
		return
	}
	b.AddAll(other.items)
}

// AddAll appends ds, growing the limit when needed.
func (b *Bag) AddAll(ds []Diagnostic) {
	newTotal := min(len(b.items)+len(ds), math.MaxUint16)
	if newTotal > int(b.max) {
		b.max = uint16(newTotal) //nolint:gosec // clamped above
	}
	for _, d := range ds {
		if !b.Add(d) {
			return
		}
	}
}

// Sort сортирует диагностики по: file, start, end, severity (desc), code (asc)
func (b *Bag) Sort() {
	sort.SliceStable(b.items, func(i, j int) bool {
		di, dj := b.items[i], b.items[j]
		if di.Primary.File != dj.Primary.File {
			return di.Primary.File < dj.Primary.File
		}
		if di.Primary.Start != dj.Primary.Start {
			return di.Primary.Start < dj.Primary.Start
		}
		if di.Primary.End != dj.Primary.End {
			return di.Primary.End < dj.Primary.End
		}
		if di.Severity != dj.Severity {
			return di.Severity > dj.Severity
		}
		return di.Code < dj.Code
	})
}

// простая дедупликация (по Code+Primary+Message)
func (b *Bag) Dedup() {
	seen := make(map[string]bool, len(b.items))
	out := b.items[:0]
	for _, d := range b.items {
		key := fmt.Sprintf("%s:%s:%s", d.Code.ID(), d.Primary.String(), d.Message)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, d)
	}
	b.items = out
}
