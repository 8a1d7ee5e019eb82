//go:build !js

package pipeline

import (
	parquetbuffer "github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/lucasjlepore/runlog"
)

type sessionParquetRow struct {
	ID              string  `parquet:"name=id, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date            string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	DistanceKm      float64 `parquet:"name=distance_km, type=DOUBLE"`
	Duration        string  `parquet:"name=duration, type=BYTE_ARRAY, convertedtype=UTF8"`
	DurationMinutes float64 `parquet:"name=duration_minutes, type=DOUBLE"`
	Category        string  `parquet:"name=type, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Location        string  `parquet:"name=location, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
	Notes           string  `parquet:"name=notes, type=BYTE_ARRAY, convertedtype=UTF8"`
	ElevationGainM  int64   `parquet:"name=elevation_gain_m, type=INT64"`
	ElevationLossM  int64   `parquet:"name=elevation_loss_m, type=INT64"`
	Equipment       string  `parquet:"name=equipment, type=BYTE_ARRAY, convertedtype=UTF8, encoding=PLAIN_DICTIONARY"`
}

func marshalSessionsParquet(sessions []runlog.Session) ([]byte, error) {
	fw := parquetbuffer.NewBufferFile()
	pw, err := writer.NewParquetWriter(fw, new(sessionParquetRow), 4)
	if err != nil {
		return nil, err
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY
	for _, s := range sessions {
		row := sessionParquetRow{
			ID:              s.ID,
			Date:            s.Date,
			DistanceKm:      s.DistanceKm,
			Duration:        s.Duration,
			DurationMinutes: s.DurationMinutes,
			Category:        string(s.Category),
			Location:        s.Location,
			Notes:           s.Notes,
			ElevationGainM:  int64(s.ElevationGainM),
			ElevationLossM:  int64(s.ElevationLossM),
			Equipment:       s.Equipment,
		}
		if err := pw.Write(row); err != nil {
			_ = pw.WriteStop()
			return nil, err
		}
	}
	if err := pw.WriteStop(); err != nil {
		return nil, err
	}
	if err := fw.Close(); err != nil {
		return nil, err
	}
	return append([]byte(nil), fw.Bytes()...), nil
}
