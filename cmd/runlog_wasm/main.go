//go:build js && wasm

package main

import (
	"encoding/json"
	"fmt"
	"syscall/js"
	"time"
	_ "time/tzdata"

	"github.com/lucasjlepore/runlog"
	"github.com/lucasjlepore/runlog/importer"
	"github.com/lucasjlepore/runlog/pipeline"
)

func main() {
	js.Global().Set("importActivity", js.FuncOf(importActivity))
	js.Global().Set("summarizeSessions", js.FuncOf(summarizeSessions))
	select {}
}

func importActivity(_ js.Value, args []js.Value) any {
	if len(args) < 2 {
		return failure("expected arguments: fileBytes(Uint8Array), options(object)")
	}
	fileArg := args[0]
	optsArg := args[1]
	if fileArg.IsUndefined() || fileArg.IsNull() || fileArg.Get("length").Int() == 0 {
		return failure("activity file bytes are required")
	}

	fileBytes := make([]byte, fileArg.Get("length").Int())
	if n := js.CopyBytesToGo(fileBytes, fileArg); n == 0 {
		return failure("failed to read file bytes from JS input")
	}

	loc := time.Local
	if tz := getString(optsArg, "timezone", ""); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return failure(fmt.Sprintf("load timezone: %v", err))
		}
		loc = l
	}

	res := importer.New(importer.WithLocation(loc)).Parse(getString(optsArg, "file_name", "activity"), fileBytes)
	out := map[string]any{
		"ok":       res.Err == nil,
		"format":   string(res.Format),
		"outcome":  string(res.Outcome()),
		"skipped":  res.Skipped,
		"sessions": len(res.Sessions),
	}
	if res.Err != nil {
		out["error"] = res.Err.Error()
		return out
	}

	data, err := pipeline.MarshalSessions(getString(optsArg, "format", pipeline.FormatJSON), res.Sessions)
	if err != nil {
		return failure(err.Error())
	}
	payload := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(payload, data)
	out["data"] = payload
	return out
}

// summarizeSessions takes a runlog JSON backup string and a window name and returns the
// rendered summary text.
func summarizeSessions(_ js.Value, args []js.Value) any {
	if len(args) < 1 || args[0].Type() != js.TypeString {
		return failure("expected arguments: backupJSON(string), window(string)")
	}
	sessions, err := importer.ParseBackup([]byte(args[0].String()))
	if err != nil {
		return failure(err.Error())
	}
	window := "all"
	if len(args) > 1 && args[1].Type() == js.TypeString {
		window = args[1].String()
	}
	w, err := runlog.ParseWindow(window)
	if err != nil {
		return failure(err.Error())
	}

	summary := runlog.Summarize(sessions, runlog.WindowBounds(w, time.Now()))
	raw, err := json.Marshal(summary)
	if err != nil {
		return failure(err.Error())
	}
	return map[string]any{
		"ok":      true,
		"notes":   runlog.BuildSummaryNotes(summary),
		"summary": string(raw),
	}
}

func failure(msg string) map[string]any {
	return map[string]any{
		"ok":    false,
		"error": msg,
	}
}

func getString(v js.Value, key, fallback string) string {
	if v.IsUndefined() || v.IsNull() {
		return fallback
	}
	out := v.Get(key)
	if out.IsUndefined() || out.IsNull() {
		return fallback
	}
	s := out.String()
	if s == "" || s == "undefined" || s == "null" {
		return fallback
	}
	return s
}
