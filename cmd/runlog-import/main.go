package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/lucasjlepore/runlog/config"
	"github.com/lucasjlepore/runlog/importer"
	rlog "github.com/lucasjlepore/runlog/log"
	"github.com/lucasjlepore/runlog/pipeline"
	"github.com/lucasjlepore/runlog/store"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to optional YAML config")
		storePath   = flag.String("store", "", "Override store path from config")
		timezone    = flag.String("tz", "", "Override timezone used for local days (IANA name)")
		restore     = flag.String("restore", "", "Merge a runlog JSON backup by id instead of importing files")
		watchDir    = flag.String("watch", "", "Watch a directory and import files dropped into it")
		metricsFile = flag.String("metrics-textfile", "", "Write import metrics in Prometheus text format to this path")
		jsonOut     = flag.Bool("json", false, "Emit the import summary as JSON")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <activity files...>\n       %s --watch <dir>\n       %s --restore backup.json\n",
			filepath.Base(os.Args[0]), filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 && strings.TrimSpace(*watchDir) == "" && strings.TrimSpace(*restore) == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	if *timezone != "" {
		cfg.Import.Timezone = *timezone
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	rlog.Configure(rlog.Config{Level: cfg.Log.Level, Console: cfg.Log.Console, Service: "runlog-import"})

	loc, err := cfg.Location()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	st, err := store.Open(cfg.Store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(st, importer.New(importer.WithLocation(loc)), pipeline.Options{
		CompanionFile: cfg.Import.CompanionFile,
	})

	code := run(ctx, p, *restore, *watchDir, flag.Args(), *jsonOut)
	if *metricsFile != "" {
		if err := pipeline.WriteMetricsTextfile(*metricsFile); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			code = 1
		}
	}
	if code != 0 {
		_ = st.Close()
		os.Exit(code)
	}
}

func run(ctx context.Context, p *pipeline.Pipeline, restore, watchDir string, paths []string, jsonOut bool) int {
	switch {
	case restore != "":
		data, err := os.ReadFile(restore)
		if err != nil {
			fmt.Fprintf(os.Stderr, "read backup: %v\n", err)
			return 1
		}
		summary, err := p.RestoreBackup(ctx, filepath.Base(restore), data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "restore failed: %v\n", err)
			return 1
		}
		printSummary(summary, jsonOut)

	case watchDir != "":
		err := p.Watch(ctx, watchDir, pipeline.WatchOptions{
			OnImport: func(s pipeline.Summary, err error) {
				if err == nil {
					printSummary(s, jsonOut)
				}
			},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "watch failed: %v\n", err)
			return 1
		}

	default:
		summary, err := p.ImportFiles(ctx, paths)
		if err != nil {
			if errors.Is(err, pipeline.ErrImportInProgress) {
				fmt.Fprintln(os.Stderr, "another import is running; try again")
			} else {
				fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
			}
			return 1
		}
		printSummary(summary, jsonOut)
	}
	return 0
}

func printSummary(s pipeline.Summary, jsonOut bool) {
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
		}
		return
	}

	for _, f := range s.Files {
		format := f.Format
		if format == "" {
			format = "?"
		}
		fmt.Printf("- %-32s | %-4s | %-15s | +%d ~%d =%d skipped %d\n",
			f.FileName, format, f.Outcome, f.Added, f.Updated, f.Duplicates, f.Skipped)
		if f.Error != "" {
			fmt.Printf("  %s\n", f.Error)
		}
	}
	fmt.Printf("Added:      %d\n", s.Added)
	fmt.Printf("Updated:    %d\n", s.Updated)
	fmt.Printf("Duplicates: %d\n", s.Duplicates)
	fmt.Printf("Skipped:    %d\n", s.Skipped)
	fmt.Printf("Total:      %d\n", s.Total)
	if !s.Saved {
		fmt.Println("Nothing new to save.")
	}
}
