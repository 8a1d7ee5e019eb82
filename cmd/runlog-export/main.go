package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/runlog/config"
	rlog "github.com/lucasjlepore/runlog/log"
	"github.com/lucasjlepore/runlog/pipeline"
	"github.com/lucasjlepore/runlog/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to optional YAML config")
		storePath  = flag.String("store", "", "Override store path from config")
		out        = flag.String("out", "", "Output file")
		format     = flag.String("format", "", "Export format: parquet|csv|json (defaults to config)")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --out sessions.parquet [--format parquet|csv|json]\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	if strings.TrimSpace(*out) == "" {
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
	if *format == "" {
		*format = cfg.Export.Format
	}
	rlog.Configure(rlog.Config{Level: cfg.Log.Level, Console: cfg.Log.Console, Service: "runlog-export"})

	st, err := store.Open(cfg.Store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	n, err := pipeline.Export(context.Background(), st, *out, *format)
	if err != nil {
		_ = st.Close()
		fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Export complete\n")
	fmt.Printf("Output:   %s\n", *out)
	fmt.Printf("Format:   %s\n", *format)
	fmt.Printf("Sessions: %d\n", n)
}
