package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureWritesJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Output: &buf, Service: "runlog-test"})
	t.Cleanup(func() { Configure(Config{}) })

	l := WithComponent("importer")
	l.Debug().Str(FieldFile, "a.gpx").Msg("parsed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "runlog-test", entry[FieldService])
	assert.Equal(t, "importer", entry[FieldComponent])
	assert.Equal(t, "a.gpx", entry[FieldFile])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigureRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Level: "warn", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	l := Base()
	l.Info().Msg("hidden")
	assert.Empty(t, buf.String())
	l.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestFromContextAddsImportID(t *testing.T) {
	var buf bytes.Buffer
	Configure(Config{Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	ctx := ContextWithImportID(context.Background(), "batch-1")
	assert.Equal(t, "batch-1", ImportIDFromContext(ctx))
	l := FromContext(ctx)
	l.Info().Msg("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "batch-1", entry[FieldImportID])
}
