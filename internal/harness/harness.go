package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/spruceid/treeldr-sub002/internal/compiler"
	"github.com/spruceid/treeldr-sub002/internal/format"
	"github.com/spruceid/treeldr-sub002/internal/hydrate"
	"github.com/spruceid/treeldr-sub002/internal/layout"
	"github.com/spruceid/treeldr-sub002/internal/rdf"
	"github.com/spruceid/treeldr-sub002/internal/store"
	"github.com/spruceid/treeldr-sub002/internal/testutil"
)

// backend is a dataset the harness can load documents into and hydrate
// from.
type backend interface {
	rdf.Interner
	rdf.ReverseInterpretation
	rdf.PatternMatchingDataset

	load(ctx context.Context, doc string, prefixes store.PrefixGenerator) error
	lookup(ctx context.Context, t rdf.Term) (rdf.Resource, bool, error)
	Close() error
}

type memoryBackend struct {
	*rdf.Interpretation
	*rdf.Dataset
}

func (b *memoryBackend) load(_ context.Context, doc string, prefixes store.PrefixGenerator) error {
	_, err := rdf.Load(b.Interpretation, b.Dataset, strings.NewReader(doc), rdf.WithBlankPrefix(prefixes.Generate()))
	return err
}

func (b *memoryBackend) lookup(_ context.Context, t rdf.Term) (rdf.Resource, bool, error) {
	r, ok := b.Interpretation.Lookup(t)
	return r, ok, nil
}

func (b *memoryBackend) Close() error { return nil }

type sqliteBackend struct {
	*store.Store
}

func (b *sqliteBackend) load(ctx context.Context, doc string, prefixes store.PrefixGenerator) error {
	_, err := b.Import(ctx, strings.NewReader(doc), store.WithPrefixGenerator(prefixes))
	return err
}

func (b *sqliteBackend) lookup(ctx context.Context, t rdf.Term) (rdf.Resource, bool, error) {
	return b.Lookup(ctx, t)
}

func openBackend(name string) (backend, error) {
	switch name {
	case "", BackendMemory:
		return &memoryBackend{Interpretation: rdf.NewInterpretation(), Dataset: rdf.NewDataset()}, nil
	case BackendSQLite:
		// Each scenario runs in a fresh in-memory database for isolation.
		st, err := store.Open(":memory:")
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory store: %w", err)
		}
		return &sqliteBackend{Store: st}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", name)
	}
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Open the backend and load the datasets
//  2. Compile and validate the layouts
//  3. Hydrate the layout from the inputs
//  4. Compare the outcome with the expectation and evaluate assertions
//
// An error is returned when the scenario itself cannot run (bad CUE,
// malformed N-Quads, undeclared layout). Hydration failures are outcomes.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with an explicit context.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	result, err := execute(ctx, scenario)
	if err != nil {
		return nil, err
	}

	if scenario.Expect.Error != "" {
		if result.ErrorCode != scenario.Expect.Error {
			got := result.ErrorCode
			if got == "" {
				got = "success"
			}
			result.AddError(fmt.Sprintf("expected error %s, got %s", scenario.Expect.Error, got))
		}
		return result, nil
	}

	if result.Failed() {
		result.AddError(fmt.Sprintf("expected a value, got error %s: %s", result.ErrorCode, result.ErrorMessage))
		return result, nil
	}

	var expected any
	if err := scenario.Expect.Value.Decode(&expected); err != nil {
		return nil, fmt.Errorf("decode expected value: %w", err)
	}
	normalized, err := normalize(expected)
	if err != nil {
		return nil, fmt.Errorf("normalize expected value: %w", err)
	}
	if !valuesEqual(normalized, result.Value) {
		result.AddError(fmt.Sprintf("value mismatch\n  Expected: %s\n  Actual: %s", describe(normalized), describe(result.Value)))
	}

	for _, msg := range EvaluateAssertions(result.Value, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// execute hydrates the scenario without judging the outcome.
func execute(ctx context.Context, scenario *Scenario) (*Result, error) {
	b, err := openBackend(scenario.Backend)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	// A single document keeps its blank node labels so inputs can name
	// them; several documents are scoped "doc1-", "doc2-", ...
	var prefixes store.PrefixGenerator = testutil.NewFixedPrefixGenerator("")
	if len(scenario.Datasets) > 1 {
		prefixes = testutil.NewSequentialPrefixGenerator("doc")
	}
	for i, doc := range scenario.Datasets {
		if err := b.load(ctx, doc, prefixes); err != nil {
			return nil, fmt.Errorf("datasets[%d]: %w", i, err)
		}
	}

	v := cuecontext.New().CompileString(scenario.Layouts, cue.Filename(scenario.Name+".cue"))
	reg, err := compiler.CompileLayouts(v, b)
	if err != nil {
		return nil, fmt.Errorf("compile layouts: %w", err)
	}

	result := NewResult()
	if errs := compiler.Validate(reg); len(errs) > 0 {
		result.ErrorCode = errs[0].Code
		msgs := make([]string, len(errs))
		for i, e := range errs {
			msgs[i] = e.Error()
		}
		result.ErrorMessage = strings.Join(msgs, "; ")
		return result, nil
	}

	ref, ok, err := b.lookup(ctx, rdf.IRI(scenario.Layout))
	if err != nil {
		return nil, err
	}
	if _, declared := reg.Get(layout.Ref(ref)); !ok || !declared {
		return nil, fmt.Errorf("layout %s is not declared", scenario.Layout)
	}

	inputs := make([]rdf.Resource, len(scenario.Inputs))
	for i, in := range scenario.Inputs {
		if inputs[i], err = b.InternTerm(ParseTerm(in)); err != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", i, err)
		}
	}

	graph := rdf.NoResource
	if scenario.Graph != "" {
		if graph, err = b.InternTerm(ParseTerm(scenario.Graph)); err != nil {
			return nil, fmt.Errorf("graph: %w", err)
		}
	}

	opts := []hydrate.Option{hydrate.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}
	if scenario.Options.MaxListLength > 0 {
		opts = append(opts, hydrate.WithMaxListLength(scenario.Options.MaxListLength))
	}
	if scenario.Options.MaxDepth > 0 {
		opts = append(opts, hydrate.WithMaxDepth(scenario.Options.MaxDepth))
	}

	value, err := hydrate.HydrateWith(b, reg, b, graph, layout.Ref(ref), inputs, opts...)
	if err != nil {
		code, ok := hydrate.CodeOf(err)
		if !ok {
			return nil, fmt.Errorf("hydrate: %w", err)
		}
		result.ErrorCode = string(code)
		result.ErrorMessage = err.Error()
		return result, nil
	}

	if result.Value, err = format.ToAny(value); err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return result, nil
}

// ParseTerm reads a resource reference: "_:label" is a blank node,
// anything else an IRI.
func ParseTerm(s string) rdf.Term {
	if label, ok := strings.CutPrefix(s, "_:"); ok {
		return rdf.Blank(label)
	}
	return rdf.IRI(s)
}
