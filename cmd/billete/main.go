// Command-line entry point for billete.
//
// convert reads a booking code dump (as copied from the reservation
// terminal, continuation lines and all) and prints the itinerary. trace
// shows how every logical line was classified, which is the quickest way to
// see why a flight line was dropped. The import commands load the legacy
// fly.txt airport list and history.json log into the configured store.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"billete/internal/app"
	"billete/internal/config"
	"billete/internal/convert"
	"billete/internal/logger"
	"billete/internal/storage"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "billete - commands:")
	fmt.Fprintln(w, "  convert          - convert a booking code to an itinerary")
	fmt.Fprintln(w, "  trace            - show the per-line classification of a booking code")
	fmt.Fprintln(w, "  import-airports  - load a CODE:Name[:Zone] airport list")
	fmt.Fprintln(w, "  import-history   - load a legacy history.json log")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  billete convert [-input pnr.txt] [-json] [-save] [-hand-count N] [-hand-weight KG] [-pack-count N] [-pack-weight KG]")
	fmt.Fprintln(w, "  billete trace [-input pnr.txt]")
	fmt.Fprintln(w, "  billete import-airports -input fly.txt")
	fmt.Fprintln(w, "  billete import-history -input history.json")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Common flags:")
	fmt.Fprintln(w, "  -config PATH   YAML configuration file")
	fmt.Fprintln(w, "  -db PATH       SQLite database (overrides config)")
	fmt.Fprintln(w, "  -v             debug logging to stderr")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	var err error
	switch cmd {
	case "convert":
		err = runConvert(os.Args[2:], os.Stdin, os.Stdout)
	case "trace":
		err = runTrace(os.Args[2:], os.Stdin, os.Stdout)
	case "import-airports":
		err = runImportAirports(os.Args[2:], os.Stdout)
	case "import-history":
		err = runImportHistory(os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		usage(os.Stdout)
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "billete %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

// common holds the flags every command accepts.
type common struct {
	configPath string
	dbPath     string
	verbose    bool
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "YAML configuration file")
	fs.StringVar(&c.dbPath, "db", "", "SQLite database path (overrides config)")
	fs.BoolVar(&c.verbose, "v", false, "Debug logging to stderr")
}

// open builds the application. -db forces a local SQLite store with no
// archive.
func (c *common) open(ctx context.Context, opts ...app.Option) (*app.App, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.dbPath != "" {
		cfg.Storage.SQLitePath = c.dbPath
		cfg.Storage.Postgres.URL = ""
		cfg.Storage.Postgres.Host = ""
		cfg.Storage.ClickHouse.Enabled = false
	}

	level := "error"
	if c.verbose {
		level = "debug"
	}
	var log logger.Logger = logger.Nop()
	if zl, err := logger.New(level); err == nil {
		log = zl
	}

	return app.New(ctx, cfg, log, opts...)
}

func readInput(path string, stdin io.Reader) (string, error) {
	if path == "" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(b), nil
}

func runConvert(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	var c common
	c.register(fs)
	inPath := fs.String("input", "", "Booking code file (default: stdin)")
	asJSON := fs.Bool("json", false, "Print the full JSON response")
	pretty := fs.Bool("pretty", false, "Pretty-print JSON output")
	save := fs.Bool("save", false, "Record the conversion in the history log")
	handCount := fs.Int("hand-count", -1, "Hand luggage pieces (default: config)")
	handWeight := fs.Int("hand-weight", -1, "Hand luggage kg per piece (default: config)")
	packCount := fs.Int("pack-count", -1, "Checked bags (default: config)")
	packWeight := fs.Int("pack-weight", -1, "Checked bag kg per piece (default: config)")
	_ = fs.Parse(args)

	code, err := readInput(*inPath, stdin)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var opts []app.Option
	if !*save {
		opts = append(opts, app.WithoutHistory())
	}
	a, err := c.open(ctx, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	req := convert.Request{Code: code}
	for _, f := range []struct {
		v   int
		dst *convert.Number
	}{
		{*handCount, &req.HandCount},
		{*handWeight, &req.HandWeight},
		{*packCount, &req.PackCount},
		{*packWeight, &req.PackWeight},
	} {
		if f.v >= 0 {
			*f.dst = convert.N(f.v)
		}
	}

	resp, err := a.Service.Convert(ctx, req)
	if err != nil {
		return err
	}

	if *asJSON {
		b, err := marshalJSON(resp, *pretty)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, string(b))
		return err
	}
	_, err = io.WriteString(stdout, resp.Result)
	return err
}

func runTrace(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("trace", flag.ExitOnError)
	var c common
	c.register(fs)
	inPath := fs.String("input", "", "Booking code file (default: stdin)")
	_ = fs.Parse(args)

	code, err := readInput(*inPath, stdin)
	if err != nil {
		return err
	}

	ctx := context.Background()
	a, err := c.open(ctx, app.WithoutHistory())
	if err != nil {
		return err
	}
	defer a.Close()

	res, lines, err := a.Service.Trace(ctx, code)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tKIND\tOUTCOME\tLINE")
	for _, l := range lines {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", l.Index, l.Kind, l.Outcome, l.Line)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "\npassengers=%d segments=%d layovers=%d unmatched=%d dropped=%d\n",
		len(res.Passengers), len(res.Segments), len(res.Layovers), len(res.Unmatched), res.Dropped)
	return err
}

func runImportAirports(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import-airports", flag.ExitOnError)
	var c common
	c.register(fs)
	inPath := fs.String("input", "fly.txt", "Airport list, one CODE:Name[:Zone] per line")
	_ = fs.Parse(args)

	f, err := os.Open(*inPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	ctx := context.Background()
	a, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := storage.ImportAirports(ctx, f, a.DB)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "imported %d airports from %s\n", n, *inPath)
	return err
}

func runImportHistory(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("import-history", flag.ExitOnError)
	var c common
	c.register(fs)
	inPath := fs.String("input", "history.json", "Legacy history log")
	_ = fs.Parse(args)

	f, err := os.Open(*inPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	ctx := context.Background()
	a, err := c.open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := storage.ImportHistory(ctx, f, a.DB)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(stdout, "imported %d history entries from %s\n", n, *inPath)
	return err
}

func marshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}
