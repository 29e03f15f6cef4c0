// Command bookctl imports manuscript chapters and works with scene markup
// from the command line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kong"

	"github.com/dgallion1/bookcontrol/internal/export"
	"github.com/dgallion1/bookcontrol/internal/importer"
	"github.com/dgallion1/bookcontrol/internal/ledger"
	"github.com/dgallion1/bookcontrol/internal/logging"
	"github.com/dgallion1/bookcontrol/internal/manuscript"
	"github.com/dgallion1/bookcontrol/internal/parser"
	"github.com/dgallion1/bookcontrol/internal/pathstore"
	"github.com/dgallion1/bookcontrol/internal/scenemd"
	"github.com/dgallion1/bookcontrol/internal/segment"
)

// Globals are flags shared by every command.
type Globals struct {
	LogLevel  string `name:"log-level" default:"warn" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format"`
	Policy    string `name:"policy" default:"center" enum:"center,style" env:"SEGMENT_POLICY" help:"How scene titles are recognized"`
}

func (g *Globals) logger() *slog.Logger {
	log, _ := logging.New(logging.Options{Level: g.LogLevel, Format: g.LogFormat}, os.Stderr)
	return log
}

func (g *Globals) policy() (segment.Policy, error) {
	return segment.ParsePolicy(g.Policy)
}

// CLI defines the command-line interface for bookctl.
var CLI struct {
	Globals

	Import    ImportCmd    `cmd:"" help:"Import one chapter document and print it as JSON"`
	ImportDir ImportDirCmd `cmd:"" name:"import-dir" help:"Import every chapter document in a book directory"`
	Scene     SceneGroup   `cmd:"" help:"Scene markup operations"`
	Export    ExportCmd    `cmd:"" help:"Export a chapter as docx, pdf or markdown"`
	Ledger    LedgerCmd    `cmd:"" help:"List the files recorded in an import ledger"`
}

// StoreFlags select where imported chapters go.
type StoreFlags struct {
	PathstoreURL string `name:"pathstore-url" env:"PATHSTORE_URL" help:"Store chapters in this pathstore"`
	PathstoreKey string `name:"pathstore-key" env:"PATHSTORE_API_KEY" help:"Pathstore API key"`
	Ledger       string `name:"ledger" type:"path" help:"Import ledger database"`
}

// open returns the sink and ledger named by the flags. Either may be nil.
func (f StoreFlags) open() (importer.Sink, *ledger.Ledger, func(), error) {
	var sink importer.Sink
	closers := []func(){}
	if f.PathstoreURL != "" {
		c := pathstore.NewClient(f.PathstoreURL, f.PathstoreKey)
		sink = pathstore.NewSink(c)
		closers = append(closers, c.Close)
	}
	var led *ledger.Ledger
	if f.Ledger != "" {
		var err error
		led, err = ledger.Open(f.Ledger)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, nil, err
		}
		closers = append(closers, func() { led.Close() })
	}
	return sink, led, func() {
		for _, c := range closers {
			c()
		}
	}, nil
}

func (f StoreFlags) newImporter(g *Globals) (*importer.Importer, func(), error) {
	policy, err := g.policy()
	if err != nil {
		return nil, nil, err
	}
	sink, led, closeAll, err := f.open()
	if err != nil {
		return nil, nil, err
	}
	im := &importer.Importer{Policy: policy, Sink: sink, Log: g.logger()}
	if led != nil {
		im.Ledger = led
	}
	return im, closeAll, nil
}

// ImportCmd imports a single chapter.
type ImportCmd struct {
	StoreFlags
	File string `arg:"" type:"existingfile" help:"Chapter document (.docx, .html, .pdf)"`
}

func (c *ImportCmd) Run(g *Globals) error {
	im, closeAll, err := c.newImporter(g)
	if err != nil {
		return err
	}
	defer closeAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := im.ImportFile(ctx, c.File)
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, res.Chapter)
}

// ImportDirCmd imports a book directory.
type ImportDirCmd struct {
	StoreFlags
	Dir    string `arg:"" type:"existingdir" help:"Book directory"`
	DryRun bool   `name:"dry-run" help:"List the files that would be imported"`
}

func (c *ImportDirCmd) Run(g *Globals) error {
	if c.DryRun {
		files, err := importer.ListDir(c.Dir)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
		for _, f := range files {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", f.Name, f.Size, f.Modified.Format(time.RFC3339))
		}
		return tw.Flush()
	}

	im, closeAll, err := c.newImporter(g)
	if err != nil {
		return err
	}
	defer closeAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := im.ImportDir(ctx, c.Dir)
	if res != nil {
		if perr := printJSON(os.Stdout, res); perr != nil && err == nil {
			err = perr
		}
	}
	return err
}

// SceneGroup contains scene markup commands.
type SceneGroup struct {
	Parse   SceneParseCmd   `cmd:"" help:"Parse scene markup and print the result as JSON"`
	Compile SceneCompileCmd `cmd:"" help:"Build scene markup from a title and content"`
}

// SceneParseCmd parses scene markup.
type SceneParseCmd struct {
	File string `arg:"" default:"-" help:"Markup file, or - for stdin"`
}

func (c *SceneParseCmd) Run() error {
	src, err := readInput(c.File)
	if err != nil {
		return err
	}
	res, err := scenemd.Parse(string(src))
	if err != nil {
		return err
	}
	return printJSON(os.Stdout, res)
}

// SceneCompileCmd serializes a scene.
type SceneCompileCmd struct {
	Title   string `required:"" help:"Scene title"`
	Content string `help:"Scene content; - reads stdin"`
}

func (c *SceneCompileCmd) Run() error {
	content := c.Content
	if content == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return err
		}
		content = string(b)
	}
	_, err := io.WriteString(os.Stdout, scenemd.Compile(c.Title, content))
	return err
}

// ExportCmd writes a chapter back out.
type ExportCmd struct {
	File   string `arg:"" type:"existingfile" help:"Chapter document or chapter JSON"`
	Format string `help:"Output format (docx, pdf, md); defaults to the --out extension"`
	Out    string `short:"o" help:"Output file; stdout when empty"`
}

func (c *ExportCmd) Run(g *Globals) error {
	policy, err := g.policy()
	if err != nil {
		return err
	}
	format := c.Format
	if format == "" {
		format = c.Out
	}
	if format == "" {
		return fmt.Errorf("--format or --out is required")
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return err
	}

	ch, err := loadChapter(c.File, policy)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if c.Out != "" {
		out, err := os.Create(c.Out)
		if err != nil {
			return fmt.Errorf("create %s: %w", c.Out, err)
		}
		defer out.Close()
		w = out
	}
	if err := export.Write(w, f, ch, export.Options{Policy: policy}); err != nil {
		return fmt.Errorf("export %s: %w", c.File, err)
	}
	g.logger().Info("chapter exported", "chapter", ch.Title, "format", string(f), "out", c.Out)
	return nil
}

// LedgerCmd lists ledger entries.
type LedgerCmd struct {
	Path string `arg:"" type:"existingfile" help:"Ledger database"`
}

func (c *LedgerCmd) Run() error {
	led, err := ledger.Open(c.Path)
	if err != nil {
		return err
	}
	defer led.Close()

	entries, err := led.Entries(context.Background())
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tCHAPTER\tSCENES\tIMPORTED")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", e.Path, e.ChapterTitle, e.SceneCount, e.LastImported.Format(time.RFC3339))
	}
	return tw.Flush()
}

// loadChapter reads a chapter from a source document, or decodes it when
// path is a chapter JSON file.
func loadChapter(path string, policy segment.Policy) (*manuscript.Chapter, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var ch manuscript.Chapter
		if err := json.Unmarshal(data, &ch); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		return &ch, nil
	}
	doc, err := parser.Load(path)
	if err != nil {
		return nil, err
	}
	return segment.SegmentDocument(doc, policy)
}

func readInput(name string) ([]byte, error) {
	if name == "" || name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("bookctl"),
		kong.Description("Import manuscript chapters and edit scene markup"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run(&CLI.Globals)
	ctx.FatalIfErrorf(err)
}
