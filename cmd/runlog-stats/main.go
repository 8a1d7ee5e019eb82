package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lucasjlepore/runlog"
	"github.com/lucasjlepore/runlog/config"
	rlog "github.com/lucasjlepore/runlog/log"
	"github.com/lucasjlepore/runlog/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to optional YAML config")
		storePath  = flag.String("store", "", "Override store path from config")
		window     = flag.String("window", "all", "Statistics window: week|month|year|all")
		from       = flag.String("from", "", "Start day YYYY-MM-DD (overrides --window)")
		to         = flag.String("to", "", "End day YYYY-MM-DD (overrides --window)")
		monthly    = flag.Bool("monthly", false, "Include month-by-month totals in text output")
		jsonOut    = flag.Bool("json", false, "Emit statistics as JSON")

		add       = flag.Bool("add", false, "Add a session from the entry flags below instead of reporting")
		date      = flag.String("date", "", "Entry day YYYY-MM-DD (defaults to today)")
		distance  = flag.Float64("distance", 0, "Entry distance in km")
		duration  = flag.String("duration", "", "Entry duration HH:MM:SS")
		category  = flag.String("type", string(runlog.CategoryTraining), "Entry type: training|intervals|race")
		location  = flag.String("location", "", "Entry location")
		notes     = flag.String("notes", "", "Entry notes")
		equipment = flag.String("equipment", "", "Entry equipment")
		gain      = flag.Int("gain", 0, "Entry elevation gain in m")
		loss      = flag.Int("loss", 0, "Entry elevation loss in m")
		remove    = flag.String("remove", "", "Remove the session with this id")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [--window week|month|year|all] [--from D --to D] [--json]\n       %s --add --distance 10 --duration 00:50:00 [--type race]\n       %s --remove <id>\n",
			filepath.Base(os.Args[0]), filepath.Base(os.Args[0]), filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *storePath != "" {
		cfg.Store.Path = *storePath
	}
	rlog.Configure(rlog.Config{Level: cfg.Log.Level, Console: cfg.Log.Console, Service: "runlog-stats"})

	st, err := store.Open(cfg.Store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	sessions, err := st.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load sessions: %v\n", err)
		os.Exit(1)
	}
	now := time.Now()

	switch {
	case *add:
		day := *date
		if day == "" {
			day = runlog.DateOf(now, nil)
		}
		s, err := runlog.NewEntry(runlog.Entry{
			Date:           day,
			DistanceKm:     *distance,
			Duration:       *duration,
			Category:       runlog.Category(*category),
			Location:       *location,
			Notes:          *notes,
			ElevationGainM: *gain,
			ElevationLossM: *loss,
			Equipment:      *equipment,
		}, now)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
		if err := st.Save(ctx, append(sessions, s)); err != nil {
			fmt.Fprintf(os.Stderr, "save sessions: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Added session %s (%s, %.2f km, %s)\n", s.ID, s.Date, s.DistanceKm, s.Duration)
		return

	case *remove != "":
		kept, found := runlog.RemoveSession(sessions, *remove)
		if !found {
			fmt.Fprintf(os.Stderr, "no session with id %q\n", *remove)
			os.Exit(1)
		}
		if err := st.Save(ctx, kept); err != nil {
			fmt.Fprintf(os.Stderr, "save sessions: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed session %s\n", *remove)
		return
	}

	w, err := runlog.ParseWindow(*window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	r := runlog.WindowBounds(w, now)
	if *from != "" || *to != "" {
		r, err = runlog.ParseRange(*from, *to)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(2)
		}
	}
	summary := runlog.Summarize(sessions, r)

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		payload := struct {
			Summary runlog.Summary      `json:"summary"`
			Monthly []runlog.MonthTotal `json:"monthly,omitempty"`
		}{Summary: summary}
		if *monthly {
			payload.Monthly = runlog.MonthlyTotals(sessions)
		}
		if err := enc.Encode(payload); err != nil {
			fmt.Fprintf(os.Stderr, "json encode failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println(runlog.BuildSummaryNotes(summary))
	if *monthly {
		months := runlog.MonthlyTotals(sessions)
		if len(months) > 0 {
			fmt.Println()
			fmt.Println("Monthly Totals")
			for _, m := range months {
				fmt.Printf("- %s | %3d sessions | %8.2f km | %7.0f min\n", m.Month, m.Count, m.DistanceKm, m.Minutes)
			}
		}
	}
}
