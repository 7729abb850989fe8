// Command pepalign provides a CLI for mass based peptide alignment.
//
// Usage:
//
//	pepalign [command] [options]
//
// Commands:
//
//	info        Show peptide information
//	align       Align two peptides
//	decode      Rebuild an alignment from its path
//	search      Align queries against a FASTA database
//	stats       Calculate database statistics
//	version     Show version information
package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/aria-lang/pepalign/internal/alignment"
	"github.com/aria-lang/pepalign/internal/fingerprint"
	"github.com/aria-lang/pepalign/internal/mass"
	"github.com/aria-lang/pepalign/internal/peptide"
	"github.com/aria-lang/pepalign/pkg/pepalign"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]

	var err error
	switch command {
	case "info":
		err = infoCmd(os.Args[2:])
	case "align":
		err = alignCmd(os.Args[2:])
	case "decode":
		err = decodeCmd(os.Args[2:])
	case "search":
		err = searchCmd(os.Args[2:])
	case "stats":
		err = statsCmd(os.Args[2:])
	case "version":
		fmt.Println(pepalign.Info())
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if errors.Is(err, errUsage) {
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`pepalign - Mass Based Peptide Alignment Tool

Usage:
  pepalign <command> [options]

Commands:
  info      Show peptide information
  align     Align two peptides
  decode    Rebuild an alignment from its path
  search    Align queries against a FASTA database
  stats     Calculate database statistics
  version   Show version information
  help      Show this help message

Use "pepalign <command> -h" for more information about a command.`)
}

// errUsage is returned after the usage of a command has been printed.
var errUsage = errors.New("invalid arguments")

func usageError(fs *flag.FlagSet, msg string) error {
	fmt.Fprintln(os.Stderr, "Error: "+msg)
	fs.Usage()
	return errUsage
}

func newLogger() (*zap.Logger, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %w", err)
	}
	return logger, nil
}

// configFlags are the alignment settings shared by align, decode and search.
// Flags given on the command line override the scoring file.
type configFlags struct {
	fs        *flag.FlagSet
	file      *string
	depth     *int
	typ       *string
	tolerance *string
	massMode  *string
	pairMode  *string
	matrix    *string
}

func addConfigFlags(fs *flag.FlagSet) *configFlags {
	return &configFlags{
		fs:        fs,
		file:      fs.String("scoring", "", "YAML scoring file"),
		depth:     fs.Int("depth", pepalign.DefaultDepth, "Maximal number of residues in one step"),
		typ:       fs.String("type", "global", "Alignment type: local, global, global-a, global-b, either-global, glocal-ab, glocal-ba"),
		tolerance: fs.String("tolerance", "10ppm", "Mass tolerance, e.g. 10ppm or 0.02da"),
		massMode:  fs.String("mass-mode", "monoisotopic", "Mass mode: monoisotopic, average, most-abundant"),
		pairMode:  fs.String("pair-mode", "same", "Pair mode: same, database-to-peptidoform, peptidoform-to-database"),
		matrix:    fs.String("matrix", "blosum62", "Substitution matrix: blosum62, identity"),
	}
}

func (c *configFlags) load() (pepalign.Config, error) {
	cfg := pepalign.DefaultConfig()
	if *c.file != "" {
		var err error
		if cfg, err = pepalign.LoadConfig(*c.file); err != nil {
			return cfg, err
		}
	}

	set := make(map[string]bool)
	c.fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if set["depth"] {
		cfg.Depth = *c.depth
	}
	if set["type"] {
		t, err := alignment.ParseAlignType(*c.typ)
		if err != nil {
			return cfg, err
		}
		cfg.Type = t
	}
	if set["tolerance"] {
		t, err := mass.ParseTolerance(*c.tolerance)
		if err != nil {
			return cfg, err
		}
		cfg.Scoring.Tolerance = t
	}
	if set["mass-mode"] {
		m, err := peptide.ParseMassMode(*c.massMode)
		if err != nil {
			return cfg, err
		}
		cfg.Scoring.MassMode = m
	}
	if set["pair-mode"] {
		p, err := alignment.ParsePairMode(*c.pairMode)
		if err != nil {
			return cfg, err
		}
		cfg.Scoring.Pair = p
	}
	if set["matrix"] {
		m, ok := alignment.MatrixByName(*c.matrix)
		if !ok {
			return cfg, fmt.Errorf("unknown matrix %q", *c.matrix)
		}
		cfg.Scoring.Matrix = m
	}
	return cfg, cfg.Validate()
}

func parsePair(fs *flag.FlagSet, a, b string) (*pepalign.Peptide, *pepalign.Peptide, error) {
	if a == "" || b == "" {
		return nil, nil, usageError(fs, "-a and -b are required")
	}
	pa, err := pepalign.Parse(a)
	if err != nil {
		return nil, nil, fmt.Errorf("peptide a: %w", err)
	}
	pb, err := pepalign.Parse(b)
	if err != nil {
		return nil, nil, fmt.Errorf("peptide b: %w", err)
	}
	return pa, pb, nil
}

func infoCmd(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	file := fs.String("file", "", "FASTA file to analyze")
	seq := fs.String("seq", "", "Peptide to analyze")
	fs.Parse(args)

	if *file == "" && *seq == "" {
		return usageError(fs, "Either -file or -seq is required")
	}

	var peptides []*pepalign.Peptide
	if *file != "" {
		var err error
		if peptides, err = pepalign.ReadFASTA(*file); err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
	} else {
		p, err := pepalign.Parse(*seq)
		if err != nil {
			return fmt.Errorf("parsing peptide: %w", err)
		}
		peptides = []*pepalign.Peptide{p}
	}

	for i, p := range peptides {
		stats := pepalign.PeptideStats(p)
		fmt.Printf("Peptide %d:\n", i+1)
		if p.ID != "" {
			fmt.Printf("  ID: %s\n", p.ID)
		}
		fmt.Printf("  ProForma: %s\n", p)
		fmt.Printf("  Length: %d\n", stats.Length)
		fmt.Printf("  Monoisotopic mass: %.4f Da\n", stats.MonoisotopicMass)
		fmt.Printf("  Average mass: %.4f Da\n", stats.AverageMass)
		fmt.Printf("  Modified residues: %d\n", stats.ModifiedResidues)
		fmt.Println()
	}
	return nil
}

func alignCmd(args []string) error {
	fs := flag.NewFlagSet("align", flag.ExitOnError)
	a := fs.String("a", "", "First peptide (ProForma)")
	b := fs.String("b", "", "Second peptide (ProForma)")
	verbose := fs.Bool("v", false, "Log the alignment")
	cf := addConfigFlags(fs)
	fs.Parse(args)

	cfg, err := cf.load()
	if err != nil {
		return err
	}
	pa, pb, err := parsePair(fs, *a, *b)
	if err != nil {
		return err
	}

	start := time.Now()
	al, err := pepalign.AlignWithConfig(pa, pb, cfg)
	if err != nil {
		return fmt.Errorf("alignment failed: %w", err)
	}

	if *verbose {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()
		logger.Info("aligned", zap.Object("alignment", al), zap.Duration("elapsed", time.Since(start)))
	}

	fmt.Println(al.Format())
	return nil
}

func decodeCmd(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	a := fs.String("a", "", "First peptide (ProForma)")
	b := fs.String("b", "", "Second peptide (ProForma)")
	path := fs.String("path", "", "Alignment path, e.g. 1=1:2i1=")
	startA := fs.Int("start-a", 0, "Start of the path in the first peptide")
	startB := fs.Int("start-b", 0, "Start of the path in the second peptide")
	verbose := fs.Bool("v", false, "Log the alignment")
	cf := addConfigFlags(fs)
	fs.Parse(args)

	cfg, err := cf.load()
	if err != nil {
		return err
	}
	pa, pb, err := parsePair(fs, *a, *b)
	if err != nil {
		return err
	}

	al, err := pepalign.Decode(pa, pb, *startA, *startB, *path, cfg)
	if err != nil {
		return fmt.Errorf("decoding path: %w", err)
	}

	if *verbose {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		defer logger.Sync()
		logger.Info("decoded", zap.Object("alignment", al))
	}

	fmt.Println(al.Format())
	return nil
}

// hitWriter writes search hits as CSV or as an aligned table. The database
// entry is side A of every alignment, so it comes first.
type hitWriter struct {
	csv   *csv.Writer
	table *tabwriter.Writer
}

func newHitWriter(out io.Writer, asCSV bool) *hitWriter {
	if asCSV {
		w := &hitWriter{csv: csv.NewWriter(out)}
		w.csv.Write([]string{"database", "query", "path", "score", "absolute score", "maximal score",
			"identical", "mass similar", "gaps", "length"})
		return w
	}
	w := &hitWriter{table: tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)}
	fmt.Fprintln(w.table, "database\tquery\tpath\tscore\tidentity")
	return w
}

func (w *hitWriter) write(database, query string, al *pepalign.Alignment) {
	stats := al.Stats()
	if w.csv != nil {
		w.csv.Write([]string{
			database, query, al.Short(),
			strconv.FormatFloat(al.NormalisedScore(), 'f', 4, 64),
			strconv.Itoa(al.Score().Absolute),
			strconv.Itoa(al.Score().Max),
			strconv.Itoa(stats.Identical),
			strconv.Itoa(stats.MassSimilar),
			strconv.Itoa(stats.Gaps),
			strconv.Itoa(stats.Length),
		})
		return
	}
	fmt.Fprintf(w.table, "%s\t%s\t%s\t%.3f\t%.1f%%\n", database, query, al.Short(), al.NormalisedScore(), stats.Identity()*100)
}

func (w *hitWriter) flush() error {
	if w.csv != nil {
		w.csv.Flush()
		return w.csv.Error()
	}
	return w.table.Flush()
}

// alignmentProgress shows finished alignments on a bar. Parallel searches
// report within a query through update; entries dropped by preselection are
// counted when the query is done.
type alignmentProgress struct {
	bar   *mpb.Bar
	base  int64
	shown *atomic.Int64
}

func newAlignmentProgress(pbs *mpb.Progress, total int64) *alignmentProgress {
	bar := pbs.AddBar(total,
		mpb.PrependDecorators(
			decor.Name("alignments: ", decor.WC{W: len("alignments: "), C: decor.DindentRight}),
			decor.Name("", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.AverageETA(decor.ET_STYLE_GO),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)
	return &alignmentProgress{bar: bar, shown: atomic.NewInt64(0)}
}

// update is called concurrently with the number of alignments finished for
// the current query.
func (p *alignmentProgress) update(done int64) {
	current := p.base + done
	for {
		old := p.shown.Load()
		if current <= old {
			return
		}
		if p.shown.CompareAndSwap(old, current) {
			p.bar.SetCurrent(current)
			return
		}
	}
}

func (p *alignmentProgress) queryDone(entries int) {
	p.base += int64(entries)
	p.shown.Store(p.base)
	p.bar.SetCurrent(p.base)
}

func searchCmd(args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	dbFile := fs.String("db", "", "FASTA database")
	queryFile := fs.String("queries", "", "Queries, one peptide per line or FASTA")
	parallel := fs.Bool("parallel", false, "Align the database entries of a query in parallel")
	useFingerprint := fs.Bool("fingerprint", false, "Preselect database entries by mass fingerprints")
	minLength := fs.Int("min-length", 0, "Skip database entries shorter than this")
	top := fs.Int("top", 0, "Keep the best N hits per query, 0 keeps all")
	csvFile := fs.String("csv", "", "Write the hits as CSV to this file")
	quiet := fs.Bool("quiet", false, "Do not show a progress bar")
	verbose := fs.Bool("v", false, "Log every hit")
	cf := addConfigFlags(fs)
	fs.Parse(args)

	if *dbFile == "" || *queryFile == "" {
		return usageError(fs, "-db and -queries are required")
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()
	log := logger.Sugar()

	cfg, err := cf.load()
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	db, err := pepalign.ReadFASTA(*dbFile)
	if err != nil {
		return fmt.Errorf("reading database: %w", err)
	}
	queries, err := pepalign.ReadQueries(*queryFile)
	if err != nil {
		return fmt.Errorf("reading queries: %w", err)
	}

	opts := pepalign.SearchOptions{Config: cfg, Parallel: *parallel, Top: *top}
	if *useFingerprint {
		fp := fingerprint.DefaultOptions()
		opts.Fingerprint = &fp
	}
	if *minLength > 0 {
		opts.Filter = &pepalign.Filter{MinLength: *minLength}
	}

	timeStart := time.Now()
	searcher, err := pepalign.NewSearcher(db, opts)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}
	log.Infof("indexed %s database sequences in %s", humanize.Comma(int64(len(db))), time.Since(timeStart))
	if fp := searcher.Fingerprints(); fp != nil {
		log.Infof("fingerprints: %s", fp.Stats())
	}

	var out io.Writer = os.Stdout
	if *csvFile != "" {
		f, err := os.Create(*csvFile)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer f.Close()
		out = f
	}
	hw := newHitWriter(out, *csvFile != "")

	var pbs *mpb.Progress
	var prog *alignmentProgress
	if total := int64(len(queries)) * int64(len(db)); !*quiet && total > 0 {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		prog = newAlignmentProgress(pbs, total)
		if *parallel {
			searcher.Index().OnProgress = prog.update
		}
	}

	hitCount := 0
	timeStart = time.Now()
	for _, q := range queries {
		hits, err := searcher.Search(q)
		if err != nil {
			if prog != nil {
				prog.bar.Abort(false)
				pbs.Wait()
			}
			return fmt.Errorf("query %s: %w", q.ID, err)
		}
		hitCount += len(hits)

		for _, hit := range hits {
			d := searcher.Database(hit.Database)
			if *verbose {
				logger.Debug("hit", zap.String("database", d.ID), zap.String("query", q.ID), zap.Object("alignment", hit.Alignment))
			}
			hw.write(d.ID, q.ID, hit.Alignment)
		}
		if prog != nil {
			prog.queryDone(len(db))
		}
	}
	if pbs != nil {
		pbs.Wait()
	}

	if err := hw.flush(); err != nil {
		return fmt.Errorf("writing hits: %w", err)
	}
	log.Infof("aligned %s queries, %s hits in %s",
		humanize.Comma(int64(len(queries))), humanize.Comma(int64(hitCount)), time.Since(timeStart))
	return nil
}

func statsCmd(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	file := fs.String("file", "", "FASTA file to analyze")
	fs.Parse(args)

	if *file == "" {
		return usageError(fs, "-file is required")
	}

	peptides, err := pepalign.ReadFASTA(*file)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	stats, err := pepalign.PeptideSetStats(peptides)
	if err != nil {
		return fmt.Errorf("calculating statistics: %w", err)
	}
	fmt.Println(stats)
	return nil
}
