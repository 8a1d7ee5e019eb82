package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lucasjlepore/runlog"
)

// StorageKey is the field that wraps sessions in an exported backup document.
const StorageKey = "runningSessions"

// ParseBackup decodes a runlog JSON backup: either a bare array of sessions or an object
// holding the array under StorageKey. Records are normalized; ids are kept.
func ParseBackup(data []byte) ([]runlog.Session, error) {
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(data) == 0 {
		return nil, errors.New("empty backup")
	}

	var raw []backupRecord
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode backup array: %w", err)
		}
	case '{':
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode backup document: %w", err)
		}
		payload, ok := doc[StorageKey]
		if !ok {
			return nil, fmt.Errorf("backup document has no %q key", StorageKey)
		}
		if err := json.Unmarshal(payload, &raw); err != nil {
			return nil, fmt.Errorf("decode %s: %w", StorageKey, err)
		}
	default:
		return nil, errors.New("backup is not a JSON array or object")
	}

	out := make([]runlog.Session, 0, len(raw))
	for _, rec := range raw {
		s := rec.Session
		s.ID = rec.id()
		out = append(out, s.Normalize())
	}
	return out, nil
}

// backupRecord accepts ids written either as strings or as bare millisecond numbers.
type backupRecord struct {
	runlog.Session
	ID json.RawMessage `json:"id"`
}

func (r backupRecord) id() string {
	raw := bytes.TrimSpace(r.ID)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func (p *parser) backup(data []byte) Result {
	sessions, err := ParseBackup(data)
	if err != nil {
		return Result{Err: fmt.Errorf("%w: %v", ErrUnrecognizedFormat, err)}
	}
	var res Result
	for i, s := range sessions {
		if !s.Valid() {
			p.skip(&res, i+1, "non-positive distance or duration")
			continue
		}
		res.Sessions = append(res.Sessions, s)
	}
	return res
}
