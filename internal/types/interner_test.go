package types

import (
	"testing"

	"strata/internal/symbols"
)

func TestInternerDedupAndBuiltins(t *testing.T) {
	in := NewInterner(nil)
	b := in.Builtins()

	if got := in.Intern(Type{Kind: KindInt}); got != b.Int {
		t.Fatalf("Int interned twice: %d vs %d", got, b.Int)
	}
	arr1 := in.Intern(MakeArray(b.Bool))
	arr2 := in.Intern(MakeArray(b.Bool))
	if arr1 != arr2 || arr1 == in.Intern(MakeArray(b.Int)) {
		t.Fatal("structural dedup broken for arrays")
	}
	if in.Intern(Type{Kind: KindInvalid}) != NoTypeID {
		t.Fatal("invalid kind must map to NoTypeID")
	}
	if _, ok := in.Lookup(NoTypeID); ok {
		t.Fatal("NoTypeID must not resolve")
	}
}

func TestParseAndFormat(t *testing.T) {
	in := NewInterner(nil)
	tests := []struct {
		src  string
		want string
		err  bool
	}{
		{src: "Int", want: "Int"},
		{src: " Bool ", want: "Bool"},
		{src: "[[String]]", want: "[[String]]"},
		{src: "Point", want: "Point"},
		{src: "", err: true},
		{src: "[Int", err: true},
		{src: "Map<K>", err: true},
	}
	for _, tt := range tests {
		id, err := in.Parse(tt.src)
		if tt.err {
			if err == nil {
				t.Errorf("Parse(%q): expected error", tt.src)
			}
			continue
		}
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.src, err)
			continue
		}
		if got := in.Format(id, nil); got != tt.want {
			t.Errorf("Format(Parse(%q)) = %q, want %q", tt.src, got, tt.want)
		}
	}

	p := in.Param(7)
	if got := in.Format(p, func(symbols.GenericParamID) string { return "X" }); got != "X" {
		t.Errorf("param format = %q", got)
	}
	if got := in.Format(p, nil); got != "$7" {
		t.Errorf("param format without resolver = %q", got)
	}
}
