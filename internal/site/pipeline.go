// Package site orchestrates the content pipeline: discover source files,
// parse front matter, resolve collections, paginate, and emit a
// deterministic output tree.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/sitegen/internal/collections"
	"git.home.luguber.info/inful/sitegen/internal/config"
	"git.home.luguber.info/inful/sitegen/internal/content"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
	"git.home.luguber.info/inful/sitegen/internal/metrics"
	"git.home.luguber.info/inful/sitegen/internal/paginate"
	"git.home.luguber.info/inful/sitegen/internal/permalink"
	"git.home.luguber.info/inful/sitegen/internal/source"
	"git.home.luguber.info/inful/sitegen/internal/state"
)

// State is the pipeline's position in the build state machine. Failed is
// terminal and reachable from every non-terminal state.
type State string

const (
	StateDiscovering State = "discovering"
	StateParsing     State = "parsing"
	StateResolving   State = "resolving"
	StatePaginating  State = "paginating"
	StateEmitting    State = "emitting"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Builder runs builds for one configuration. Configurations are explicit
// values, never process globals, so independent Builders can coexist.
type Builder struct {
	cfg         *config.Config
	recorder    metrics.Recorder
	writer      Writer
	store       *state.Store
	incremental bool
	force       bool
}

// Option customizes a Builder.
type Option func(*Builder)

// WithRecorder injects a metrics recorder (NoopRecorder by default).
func WithRecorder(r metrics.Recorder) Option { return func(b *Builder) { b.recorder = r } }

// WithWriter injects the output writer collaborator. Without one, the build
// assembles the tree in memory only (used by discover and by tests).
func WithWriter(w Writer) Option { return func(b *Builder) { b.writer = w } }

// WithStore injects the build-state store used for incremental skip and
// build history.
func WithStore(s *state.Store) Option { return func(b *Builder) { b.store = s } }

// WithIncremental skips emission when the input signature matches the last
// successful build. force bypasses the comparison while still recording.
func WithIncremental(force bool) Option {
	return func(b *Builder) { b.incremental, b.force = true, force }
}

// NewBuilder constructs a Builder for cfg.
func NewBuilder(cfg *config.Config, opts ...Option) *Builder {
	b := &Builder{cfg: cfg, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Result is a completed build: the assembled output tree and its report.
// Tree is nil when the build was skipped.
type Result struct {
	Tree    *OutputTree
	Report  *Report
	Skipped bool
}

// Build is the convenience entry point: one build of root under cfg.
func Build(ctx context.Context, root string, cfg *config.Config) (*Result, error) {
	return NewBuilder(cfg).Build(ctx, root)
}

// buildState carries intermediate results between stages. Each stage reads
// the prior stage's output and writes only its own; documents are not
// mutated after emission completes.
type buildState struct {
	root       string
	files      []source.File
	docs       []*content.Document
	set        *collections.Set
	pagination map[string][]*paginate.Page
	tree       *OutputTree
	report     *Report
	skipped    bool
}

type stage struct {
	name  string
	state State
	fn    func(context.Context, *buildState) error
}

// Build runs the pipeline over root (cfg.Source.Root when empty).
//
// A failed build returns a *BuildError carrying the terminal-state payload;
// no output is ever written for a failed build.
func (b *Builder) Build(ctx context.Context, root string) (*Result, error) {
	if root == "" {
		root = b.cfg.Source.Root
	}
	bs := &buildState{root: root, report: newReport(), tree: NewOutputTree()}
	slog.Info("Starting build", logfields.BuildID(bs.report.BuildID), logfields.Path(root))

	stages := []stage{
		{"discover", StateDiscovering, b.stageDiscover},
		{"parse", StateParsing, b.stageParse},
		{"resolve", StateResolving, b.stageResolve},
		{"paginate", StatePaginating, b.stagePaginate},
		{"emit", StateEmitting, b.stageEmit},
	}

	for _, st := range stages {
		start := time.Now()
		err := st.fn(ctx, bs)
		elapsed := time.Since(start)
		bs.report.Timings[st.name] = elapsed
		b.recorder.ObserveStageDuration(st.name, elapsed)

		if err != nil {
			b.recorder.IncStageResult(st.name, metrics.ResultFatal)
			return b.fail(ctx, bs, st.state, err)
		}
		b.recorder.IncStageResult(st.name, metrics.ResultSuccess)
		slog.Debug("Stage complete", logfields.Stage(st.name),
			logfields.DurationMS(float64(elapsed.Milliseconds())))

		if bs.skipped {
			return b.finish(ctx, bs, OutcomeSkipped)
		}
	}

	return b.finish(ctx, bs, OutcomeSuccess)
}

func (b *Builder) fail(ctx context.Context, bs *buildState, st State, err error) (*Result, error) {
	buildErr, ok := err.(*BuildError)
	if !ok {
		buildErr = &BuildError{State: st, Err: err}
	}
	bs.report.finish(StateFailed, OutcomeFailed)
	b.recorder.ObserveBuildDuration(bs.report.Duration)
	b.recorder.IncBuildOutcome(OutcomeFailed)
	b.record(ctx, bs)
	slog.Error("Build failed", logfields.BuildID(bs.report.BuildID),
		logfields.State(string(st)), logfields.Error(buildErr))
	return &Result{Report: bs.report}, buildErr
}

func (b *Builder) finish(ctx context.Context, bs *buildState, outcome string) (*Result, error) {
	bs.report.finish(StateDone, outcome)
	b.recorder.ObserveBuildDuration(bs.report.Duration)
	b.recorder.IncBuildOutcome(outcome)
	b.record(ctx, bs)

	res := &Result{Report: bs.report, Skipped: outcome == OutcomeSkipped}
	if !res.Skipped {
		res.Tree = bs.tree
	}
	slog.Info("Build finished", logfields.BuildID(bs.report.BuildID),
		logfields.Outcome(outcome), logfields.Count(bs.report.Emitted),
		logfields.DurationMS(float64(bs.report.Duration.Milliseconds())))
	return res, nil
}

func (b *Builder) record(ctx context.Context, bs *buildState) {
	if b.store == nil {
		return
	}
	err := b.store.Record(ctx, state.BuildRecord{
		ID:        bs.report.BuildID,
		Signature: bs.report.Signature,
		Outcome:   bs.report.Outcome,
		Documents: bs.report.Documents,
	})
	if err != nil {
		slog.Warn("Failed to record build state", logfields.Error(err))
	}
}

// stageDiscover enumerates source files and, for incremental builds,
// compares the input signature against the last successful build.
func (b *Builder) stageDiscover(ctx context.Context, bs *buildState) error {
	files, err := source.NewWalker(bs.root, b.cfg.Source.Exclude).Walk()
	if err != nil {
		return err
	}
	bs.files = files

	if b.store != nil || b.incremental {
		sig, sigErr := state.ComputeSignature(files, b.cfg)
		if sigErr != nil {
			return fmt.Errorf("compute build signature: %w", sigErr)
		}
		bs.report.Signature = sig
	}
	if b.incremental && !b.force && b.store != nil {
		last, lastErr := b.store.LastSuccessfulSignature(ctx)
		if lastErr != nil {
			return lastErr
		}
		if last != "" && last == bs.report.Signature {
			slog.Info("Input unchanged since last successful build, skipping",
				logfields.BuildID(bs.report.BuildID))
			bs.skipped = true
		}
	}
	return nil
}

// stageParse runs the front-matter parser over every file on a worker pool.
// Collected parse errors fail the build as one batch.
func (b *Builder) stageParse(_ context.Context, bs *buildState) error {
	workers := b.cfg.Build.ParseConcurrency
	b.recorder.SetParseWorkers(workers)
	slog.Debug("Parsing content", logfields.Workers(workers), logfields.Count(len(bs.files)))

	docs, parseErrs := parseAll(bs.files, workers)
	if len(parseErrs) > 0 {
		return &BuildError{State: StateParsing, FrontMatter: parseErrs}
	}
	bs.docs = docs
	bs.report.Documents = len(docs)
	for _, d := range docs {
		if d.IsAsset() {
			bs.report.Assets++
		}
	}
	b.recorder.ObserveDocumentsParsed(len(docs))
	return nil
}

// stageResolve groups the complete parsed document set into collections.
// The ambiguity check is global, so this stage runs single-threaded over
// the full set.
func (b *Builder) stageResolve(_ context.Context, bs *buildState) error {
	set, err := collections.Resolve(bs.docs, b.cfg)
	if err != nil {
		return err
	}
	bs.set = set
	return nil
}

// stagePaginate splits each paginated collection into linked pages.
func (b *Builder) stagePaginate(_ context.Context, bs *buildState) error {
	bs.pagination = make(map[string][]*paginate.Page)
	for _, col := range bs.set.Collections {
		if !col.Config.Paginate || !col.Config.CollectionOutput() {
			continue
		}
		pages, err := paginate.Paginate(col.Name, col.Docs, b.cfg.Pagination.PageSize)
		if err != nil {
			return err
		}
		if pages != nil {
			bs.pagination[col.Name] = pages
		}
	}
	return nil
}

// stageEmit resolves permalinks, runs the aggregate collision check, renders
// everything into the output tree, and only then writes output. A collision
// aborts before any file is written; partial trees are never persisted.
func (b *Builder) stageEmit(ctx context.Context, bs *buildState) error {
	emit, err := b.planEmission(bs)
	if err != nil {
		return err
	}

	resolved := make(map[string]string, len(emit)+8)
	for _, doc := range emit {
		resolved[doc.RelPath] = outputFilePath(doc.OutputPath)
	}
	for name, pages := range bs.pagination {
		for _, p := range pages {
			key := fmt.Sprintf("%s (listing page %d)", name, p.Index)
			resolved[key] = outputFilePath(indexPagePath(name, p.Index))
		}
	}
	if err := permalink.CheckCollisions(resolved); err != nil {
		return err
	}

	for _, doc := range emit {
		if err := renderDocument(doc, b.cfg.Site); err != nil {
			return err
		}
		if err := bs.tree.Add(outputFilePath(doc.OutputPath), doc.Output); err != nil {
			return err
		}
	}
	for name, pages := range bs.pagination {
		for _, p := range pages {
			rendered, renderErr := renderIndexPage(p, b.cfg.Site)
			if renderErr != nil {
				return renderErr
			}
			if err := bs.tree.Add(outputFilePath(indexPagePath(name, p.Index)), rendered); err != nil {
				return err
			}
		}
	}
	bs.report.Emitted = bs.tree.Len()

	if b.writer != nil {
		if err := b.writer.Write(ctx, bs.tree); err != nil {
			return err
		}
	}
	return nil
}

// planEmission computes every emitted document's output path.
//
// Collection members expand the collection's permalink pattern; ungrouped
// pages and dateless members derive a path from their source location;
// assets keep their source path verbatim. Members of collections with
// output disabled are not emitted.
func (b *Builder) planEmission(bs *buildState) ([]*content.Document, error) {
	var emit []*content.Document

	for _, col := range bs.set.Collections {
		if !col.Config.CollectionOutput() {
			continue
		}
		pattern, err := permalink.Compile(b.cfg.PermalinkFor(col.Config))
		if err != nil {
			return nil, err
		}
		for _, doc := range col.Docs {
			pl, expandErr := pattern.Expand(doc)
			if expandErr != nil {
				return nil, expandErr
			}
			doc.OutputPath = pl
			emit = append(emit, doc)
		}
		// Dateless members cannot satisfy date placeholders; they emit at
		// their source-derived path like ungrouped pages.
		for _, doc := range col.Dateless {
			doc.OutputPath = sourcePermalink(doc)
			emit = append(emit, doc)
		}
	}

	for _, doc := range bs.set.Pages {
		doc.OutputPath = sourcePermalink(doc)
		emit = append(emit, doc)
	}
	return emit, nil
}

// sourcePermalink derives an output path from a document's source location:
// markdown pages get directory-style pretty URLs, everything else keeps its
// relative path.
func sourcePermalink(doc *content.Document) string {
	if doc.IsAsset() || !doc.IsMarkdown() {
		return "/" + doc.RelPath
	}
	dir := ""
	if idx := lastSlash(doc.RelPath); idx >= 0 {
		dir = doc.RelPath[:idx+1]
	}
	stem := doc.Stem()
	if stem == "index" {
		return "/" + dir
	}
	return "/" + dir + stem + "/"
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
