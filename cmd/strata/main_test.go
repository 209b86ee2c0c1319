package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"strata/internal/diag"
	"strata/internal/source"
)

func writeWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"strata.toml": "name = \"demo\"\n\n[[module]]\nname = \"core\"\nfiles = [\"core.st\"]\n\n[[module]]\nname = \"app\"\nfiles = [\"app.st\"]\n",
		"core.st":     "trait Eq<T>;\ntrait Ord<T: Eq + Nope>;\n",
		"app.st":      "@inline trait Show<X: core::Ord>;\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(append([]string{"--color", "off"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCheckCommandShort(t *testing.T) {
	dir := writeWorkspace(t)
	out, _, err := execute(t, "check", dir, "--no-cache", "--ui", "off", "--format", "short")
	var ee exitError
	if !errors.As(err, &ee) || ee.code != 1 {
		t.Fatalf("err = %v, want exit status 1", err)
	}
	want := "error SEM3103 core.st:2:19 unknown trait 'Nope' in bounds of 'T'\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}
}

func TestCheckCommandCleanWorkspace(t *testing.T) {
	dir := writeWorkspace(t)
	if err := os.WriteFile(filepath.Join(dir, "core.st"), []byte("trait Eq<T>;\ntrait Ord<T: Eq>;\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	out, _, err := execute(t, "check", dir, "--no-cache", "--ui", "off", "--format", "pretty")
	if err != nil {
		t.Fatalf("check failed: %v", err)
	}
	if !strings.HasPrefix(out, "checked 2 modules, 3 traits: 0 errors, 0 warnings") {
		t.Fatalf("unexpected summary %q", out)
	}
}

func TestCheckCommandCacheDir(t *testing.T) {
	dir := writeWorkspace(t)
	cacheDir := t.TempDir()
	for range 2 {
		_, _, err := execute(t, "check", dir, "--no-cache=false", "--cache-dir", cacheDir, "--ui", "off", "--format", "pretty")
		if !isSilent(err) {
			t.Fatalf("err = %v", err)
		}
	}
	out, _, _ := execute(t, "check", dir, "--no-cache=false", "--cache-dir", cacheDir, "--ui", "off", "--format", "pretty")
	if !strings.Contains(out, "(2 cached)") {
		t.Fatalf("expected cached summary, got %q", out)
	}

	if _, _, err := execute(t, "cache", "clean", "--cache-dir", cacheDir); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(filepath.Join(cacheDir, "mods"))
	if err == nil && len(entries) != 0 {
		t.Fatalf("cache not cleared: %d entries", len(entries))
	}
}

func TestTraitsCommandDebug(t *testing.T) {
	dir := writeWorkspace(t)
	out, _, err := execute(t, "traits", dir, "--format", "debug", "--trait", "Show")
	if err != nil {
		t.Fatal(err)
	}
	want := "Trait app::Show { generics: [X], attributes: [inline], diagnostics: 0 }\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}

	if _, _, err := execute(t, "traits", dir, "--format", "debug", "--trait", "Missing"); err == nil {
		t.Fatal("unknown trait accepted")
	}
}

func TestInternCommand(t *testing.T) {
	dir := writeWorkspace(t)
	out, errOut, err := execute(t, "intern", "--manifest", dir, "core::Eq<Int>", "Eq<Int>", "core::Eq<[String]>", "Show")
	if err != nil {
		t.Fatal(err)
	}
	want := "#1 core::Eq<Int>\n#1 core::Eq<Int>\n#2 core::Eq<[String]>\n#3 app::Show\n"
	if diff := cmp.Diff(want, out); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}
	if !strings.Contains(errOut, "4 shapes, 3 distinct") {
		t.Fatalf("stderr = %q", errOut)
	}
}

func TestVersionCommandJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json", "--hash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"tool": "strata"`) || !strings.Contains(out, `"git_commit": "unknown"`) {
		t.Fatalf("unexpected version output %q", out)
	}
}

func TestSplitArgs(t *testing.T) {
	cases := map[string][]string{
		"":                nil,
		"Int":             {"Int"},
		"Int, [String]":   {"Int", " [String]"},
		"[[Int]], Bool":   {"[[Int]]", " Bool"},
	}
	for in, want := range cases {
		if diff := cmp.Diff(want, splitArgs(in)); diff != "" {
			t.Errorf("splitArgs(%q) (-want +got):\n%s", in, diff)
		}
	}
}

func TestResolveManifestPath(t *testing.T) {
	dir := writeWorkspace(t)
	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := resolveManifestPath(sub)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(got) != "strata.toml" {
		t.Fatalf("resolved %q", got)
	}
	if _, err := resolveManifestPath(filepath.Join(dir, "missing")); err == nil {
		t.Fatal("missing path accepted")
	}
	empty := t.TempDir()
	if _, err := resolveManifestPath(empty); err != nil && !errors.Is(err, errNoManifest) {
		t.Fatalf("err = %v", err)
	}
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff, "true": uiModeOn} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Errorf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Error("invalid mode accepted")
	}
	var buf bytes.Buffer
	if shouldUseTUI(uiModeAuto, "json", false, &buf) {
		t.Error("auto mode enabled the TUI for json output")
	}
	if shouldUseTUI(uiModeAuto, "pretty", false, &buf) {
		t.Error("auto mode enabled the TUI for a non-terminal writer")
	}
	if !shouldUseTUI(uiModeOn, "json", true, &buf) {
		t.Error("--ui on must force the TUI")
	}
}

func TestOnlyErrors(t *testing.T) {
	diags := []diag.Diagnostic{
		diag.New(diag.SevWarning, diag.ProjBrokenModule, source.Span{}, "w"),
		diag.New(diag.SevError, diag.SemaTraitUnknownBound, source.Span{}, "e"),
	}
	got := onlyErrors(diags)
	if len(got) != 1 || got[0].Message != "e" {
		t.Fatalf("onlyErrors = %+v", got)
	}
	if len(diags) != 2 {
		t.Fatal("input modified")
	}
}
