package driver

import (
	"context"
	"encoding/binary"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"strata/internal/diag"
	"strata/internal/observ"
	"strata/internal/sema"
	"strata/internal/symbols"
	"strata/internal/trace"
	"strata/internal/workspace"
)

// CheckOptions control a check run.
type CheckOptions struct {
	Jobs           int // 0 means GOMAXPROCS
	MaxDiagnostics int // per module; 0 means 100
	Cache          *DiskCache
	Timer          *observ.Timer
	Progress       ProgressSink
}

// TraitSummary is the serializable outcome of resolving one trait.
type TraitSummary struct {
	Name        string   `json:"name"`
	Resolved    bool     `json:"resolved"`
	Generics    []string `json:"generics,omitempty"`
	Attributes  []string `json:"attributes,omitempty"`
	Diagnostics int      `json:"diagnostics"`
}

// ModuleResult содержит результат проверки одного модуля.
type ModuleResult struct {
	Module symbols.ModuleID
	Name   string
	Digest workspace.Digest
	Traits []TraitSummary
	Bag    *diag.Bag
	Cached bool
	// Truncated is set when diagnostics past MaxDiagnostics were dropped.
	Truncated bool
}

// CheckResult collects per-module results in declaration order.
type CheckResult struct {
	Modules []ModuleResult
}

// Diagnostics merges every module's diagnostics in module order.
func (r *CheckResult) Diagnostics() []diag.Diagnostic {
	var out []diag.Diagnostic
	for i := range r.Modules {
		out = append(out, r.Modules[i].Bag.Items()...)
	}
	return out
}

func (r *CheckResult) HasErrors() bool {
	for i := range r.Modules {
		if r.Modules[i].Bag.HasErrors() {
			return true
		}
	}
	return false
}

// CacheHits counts modules served from the disk cache.
func (r *CheckResult) CacheHits() int {
	n := 0
	for i := range r.Modules {
		if r.Modules[i].Cached {
			n++
		}
	}
	return n
}

// Check resolves every trait of every module of ws through db. Modules are
// processed in parallel; results keep declaration order.
func Check(ctx context.Context, ws *workspace.Workspace, db *sema.Database, opts CheckOptions) (*CheckResult, error) {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = 100
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	ctx, span := trace.Start(ctx, trace.ScopePass, "check")
	defer span.End("")
	span.WithExtra("session", db.Session().String())

	modules := ws.Modules()
	result := &CheckResult{Modules: make([]ModuleResult, len(modules))}
	for _, mod := range modules {
		emit(opts.Progress, Event{Module: ws.ModuleName(mod), Stage: StageCache, Status: StatusQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(modules))))
	for i, mod := range modules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := checkModule(gctx, ws, db, mod, opts)
			if err != nil {
				return err
			}
			result.Modules[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	span.WithExtra("modules", strconv.Itoa(len(modules))).
		WithExtra("cache_hits", strconv.Itoa(result.CacheHits()))
	return result, nil
}

func checkModule(ctx context.Context, ws *workspace.Workspace, db *sema.Database, mod symbols.ModuleID, opts CheckOptions) (ModuleResult, error) {
	name := ws.ModuleName(mod)
	_, span := trace.Start(ctx, trace.ScopeModule, "module:"+name)
	phase := opts.Timer.Begin("module " + name)
	started := time.Now()
	emit(opts.Progress, Event{Module: name, Stage: StageCache, Status: StatusWorking})

	res := ModuleResult{
		Module: mod,
		Name:   name,
		Digest: ws.Digest(mod),
		Bag:    diag.NewBag(opts.MaxDiagnostics),
	}

	key := cacheKey(res.Digest, opts.MaxDiagnostics)
	var payload DiskPayload
	hit, err := opts.Cache.Get(key, &payload)
	if err != nil {
		// a corrupt entry is rebuilt below
		trace.Point(trace.FromContext(ctx), trace.ScopeModule, "cache", "corrupt", span.ID(), map[string]string{"error": err.Error()})
		hit = false
	}
	if hit {
		res.Cached = true
		res.Traits = payload.Traits
		res.Truncated = payload.Truncated
		res.Bag.AddAll(decodeDiagnostics(ws.Files, payload.Diagnostics))
	} else {
		emit(opts.Progress, Event{Module: name, Stage: StageResolve, Status: StatusWorking, Elapsed: time.Since(started)})
		res.Bag.AddAll(ws.LoadDiagnostics(mod))
		for _, trait := range ws.ModuleTraitIDs(mod) {
			if err := ctx.Err(); err != nil {
				span.End("cancelled")
				emit(opts.Progress, Event{Module: name, Stage: StageResolve, Status: StatusError, Err: err, Elapsed: time.Since(started)})
				return res, err
			}
			summary := SummarizeTrait(ws, db, trait)
			res.Traits = append(res.Traits, summary)
			res.Bag.AddAll(db.TraitDiagnostics(trait).Items())
		}
	}
	res.Bag.Sort()
	res.Bag.Dedup()
	if res.Bag.Truncate(opts.MaxDiagnostics) {
		res.Truncated = true
	}

	if !hit {
		err := opts.Cache.Put(key, &DiskPayload{
			Module:      name,
			Digest:      key,
			Traits:      res.Traits,
			Diagnostics: encodeDiagnostics(ws.Files, res.Bag.Items()),
			Truncated:   res.Truncated,
		})
		if err != nil {
			opts.Timer.End(phase, "cache write failed")
			span.End("error")
			err = fmt.Errorf("module %s: cache write: %w", name, err)
			emit(opts.Progress, Event{Module: name, Stage: StageCache, Status: StatusError, Err: err, Elapsed: time.Since(started)})
			return res, err
		}
	}

	note := fmt.Sprintf("%d traits, %d diagnostics", len(res.Traits), res.Bag.Len())
	if res.Cached {
		note += " (cached)"
	}
	opts.Timer.End(phase, note)
	span.WithExtra("traits", strconv.Itoa(len(res.Traits))).
		WithExtra("diagnostics", strconv.Itoa(res.Bag.Len())).
		WithExtra("cached", strconv.FormatBool(res.Cached))
	span.End("")

	final := Event{Module: name, Stage: StageResolve, Status: StatusDone, Elapsed: time.Since(started)}
	switch {
	case res.Bag.HasErrors():
		final.Status = StatusError
	case res.Cached:
		final.Stage, final.Status = StageCache, StatusCached
	}
	emit(opts.Progress, final)
	return res, nil
}

// cacheKey mixes the diagnostic limit into the module digest; a bag cut at one
// limit must not be served under another.
func cacheKey(digest workspace.Digest, limit int) workspace.Digest {
	var l workspace.Digest
	binary.BigEndian.PutUint64(l[:8], uint64(max(0, limit))) //nolint:gosec // clamped
	return workspace.Combine(digest, l)
}

// SummarizeTrait goes through the derived accessors, not the raw resolver.
func SummarizeTrait(ws *workspace.Workspace, db *sema.Database, trait symbols.TraitID) TraitSummary {
	s := TraitSummary{
		Name:        ws.TraitName(trait),
		Diagnostics: db.TraitDiagnostics(trait).Len(),
	}
	params, ok := db.TraitGenericParams(trait)
	if !ok {
		return s
	}
	s.Resolved = true
	s.Generics = make([]string, 0, len(params))
	for _, p := range params {
		s.Generics = append(s.Generics, ws.GenericParamName(p))
	}
	if attrs, ok := db.TraitAttributes(trait); ok {
		s.Attributes = make([]string, 0, len(attrs))
		for _, a := range attrs {
			s.Attributes = append(s.Attributes, sema.FormatAttribute(a))
		}
	}
	return s
}
