//go:build js

package pipeline

import (
	"errors"

	"github.com/lucasjlepore/runlog"
)

func marshalSessionsParquet([]runlog.Session) ([]byte, error) {
	return nil, errors.New("parquet export is not available in js builds; use csv or json")
}
