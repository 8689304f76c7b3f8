package sensor

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/timelink/internal/ports"
)

func writeAttrs(t *testing.T, attrs map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, value := range attrs {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(value), 0o644))
	}
	return dir
}

func TestHwmon_IIODevice(t *testing.T) {
	dir := writeAttrs(t, map[string]string{
		"in_temp_input":             "21530\n",
		"in_pressure_input":         "101.325\n",
		"in_humidityrelative_input": "48211\n",
	})
	h, err := NewHwmon(dir)
	require.NoError(t, err)

	got, err := h.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ports.Reading{
		{Label: "temp", Value: "21.5C"},
		{Label: "pressure", Value: "1013hPa"},
		{Label: "humidity", Value: "48%"},
	}, got)
}

func TestHwmon_TemperatureOnly(t *testing.T) {
	dir := writeAttrs(t, map[string]string{"temp1_input": "45000"})
	h, err := NewHwmon(dir)
	require.NoError(t, err)

	got, err := h.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ports.Reading{{Label: "temp", Value: "45.0C"}}, got)
}

func TestHwmon_NoChannels(t *testing.T) {
	h, err := NewHwmon(t.TempDir())
	require.NoError(t, err)

	_, err = h.Read(context.Background())
	assert.Error(t, err)
}

func TestHwmon_GarbageValueSkipped(t *testing.T) {
	dir := writeAttrs(t, map[string]string{
		"temp1_input":       "n/a",
		"in_pressure_input": "99.8",
	})
	h, err := NewHwmon(dir)
	require.NoError(t, err)

	got, err := h.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ports.Reading{{Label: "pressure", Value: "998hPa"}}, got)
}

func TestNewHwmon_Missing(t *testing.T) {
	_, err := NewHwmon(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}
