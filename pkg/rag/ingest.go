package rag

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"path/filepath"
	"strings"

	"github.com/clemens865/phago/pkg/colony"
	"github.com/clemens865/phago/pkg/core"
)

// IngestOptions tunes how files are chunked and digested.
type IngestOptions struct {
	ChunkSize        int    `yaml:"chunk_size"`
	ChunkOverlap     int    `yaml:"chunk_overlap"`
	TicksPerDocument uint64 `yaml:"ticks_per_document"`
}

// DefaultIngestOptions returns the standard ingestion settings.
func DefaultIngestOptions() IngestOptions {
	return IngestOptions{ChunkSize: 500, ChunkOverlap: 50, TicksPerDocument: 15}
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	Files        int    `json:"files"`
	Chunks       int    `json:"chunks"`
	NodesCreated int    `json:"nodes_created"`
	EdgesCreated int    `json:"edges_created"`
	Tick         uint64 `json:"tick"`
}

// Ingestor loads files, chunks them and stages the chunks on the
// colony substrate, then runs the colony long enough to digest them.
type Ingestor struct {
	colony *colony.Colony
	loader Loader
	opts   IngestOptions
	log    *slog.Logger
	staged int
}

func NewIngestor(c *colony.Colony, opts IngestOptions, logger *slog.Logger) *Ingestor {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 500
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = 0
	}
	if opts.TicksPerDocument == 0 {
		opts.TicksPerDocument = 15
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{
		colony: c,
		loader: NewAutoLoader(),
		opts:   opts,
		log:    logger.With("component", "rag"),
	}
}

// splitterFor picks header-aware chunking for markdown, generic
// recursive chunking for everything else.
func (in *Ingestor) splitterFor(path string) Splitter {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return NewMarkdownSplitter(in.opts.ChunkSize, in.opts.ChunkOverlap)
	default:
		return NewRecursiveSplitter(in.opts.ChunkSize, in.opts.ChunkOverlap)
	}
}

// stagePosition spreads successive chunks around the substrate origin
// so digesters fan out instead of piling onto one spot.
func (in *Ingestor) stagePosition() core.Position {
	// golden-angle placement keeps neighboring chunks apart
	theta := float64(in.staged) * 2.399963229728653
	r := 3.0 + float64(in.staged)*0.5
	in.staged++
	return core.Position{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
}

// IngestFile loads one file, chunks it and runs the colony until the
// chunks are digested.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (IngestReport, error) {
	before := in.colony.Stats()

	chunks, err := in.stageFile(path)
	if err != nil {
		return IngestReport{}, err
	}
	if chunks == 0 {
		return IngestReport{Files: 1, Tick: before.Tick}, nil
	}

	in.colony.EnsureKind(core.KindDigester)
	if err := in.colony.Run(ctx, in.opts.TicksPerDocument*uint64(chunks)); err != nil {
		return IngestReport{}, err
	}

	after := in.colony.Stats()
	report := IngestReport{
		Files:        1,
		Chunks:       chunks,
		NodesCreated: after.Nodes - before.Nodes,
		EdgesCreated: after.Edges - before.Edges,
		Tick:         after.Tick,
	}
	in.log.Info("file ingested", "path", path, "chunks", chunks,
		"nodes_created", report.NodesCreated, "edges_created", report.EdgesCreated)
	return report, nil
}

// IngestDir walks a directory tree, stages every regular file and runs
// the colony until everything is digested. Hidden files and
// directories are skipped.
func (in *Ingestor) IngestDir(ctx context.Context, dir string) (IngestReport, error) {
	before := in.colony.Stats()
	files, chunks := 0, 0

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		n, err := in.stageFile(path)
		if err != nil {
			return fmt.Errorf("stage %s: %w", path, err)
		}
		files++
		chunks += n
		return nil
	})
	if err != nil {
		return IngestReport{}, err
	}

	if chunks > 0 {
		in.colony.EnsureKind(core.KindDigester)
		if err := in.colony.Run(ctx, in.opts.TicksPerDocument*uint64(chunks)); err != nil {
			return IngestReport{}, err
		}
	}

	after := in.colony.Stats()
	report := IngestReport{
		Files:        files,
		Chunks:       chunks,
		NodesCreated: after.Nodes - before.Nodes,
		EdgesCreated: after.Edges - before.Edges,
		Tick:         after.Tick,
	}
	in.log.Info("directory ingested", "dir", dir, "files", files, "chunks", chunks,
		"nodes_created", report.NodesCreated, "edges_created", report.EdgesCreated)
	return report, nil
}

func (in *Ingestor) stageFile(path string) (int, error) {
	text, err := in.loader.Load(path)
	if err != nil {
		return 0, err
	}
	chunks := in.splitterFor(path).SplitText(text)

	title := filepath.Base(path)
	staged := 0
	for i, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}
		name := title
		if len(chunks) > 1 {
			name = fmt.Sprintf("%s#%d", title, i+1)
		}
		in.colony.IngestDocument(name, chunk, in.stagePosition())
		staged++
	}
	return staged, nil
}
