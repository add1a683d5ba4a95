package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSpec(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoaderResolvesXMLBeforeJSON(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "plant.xml", `<ModbusSpec><RegisterMap><Device id="from-xml" unitId="1"/></RegisterMap></ModbusSpec>`)
	writeSpec(t, dir, "plant.json", `{"devices": [{"id": "from-json", "unit_id": 1}]}`)

	l, err := NewLoader([]string{dir})
	require.NoError(t, err)

	res, err := l.Load("plant")
	require.NoError(t, err)
	require.Len(t, res.Devices, 1)
	assert.Equal(t, "from-xml", res.Devices[0].ID())
}

func TestLoaderFallsBackToJSON(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "pump.json", `{"devices": [{"id": "pump", "unit_id": 3}]}`)

	l, err := NewLoader([]string{dir})
	require.NoError(t, err)

	res, err := l.Load("pump")
	require.NoError(t, err)
	require.Len(t, res.Devices, 1)
	assert.Equal(t, "pump", res.Devices[0].ID())
}

func TestLoaderCachesUntilReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plant.xml")
	writeSpec(t, dir, "plant.xml", `<ModbusSpec><RegisterMap><Device id="v1" unitId="1"/></RegisterMap></ModbusSpec>`)

	l, err := NewLoader([]string{dir})
	require.NoError(t, err)

	res, err := l.Load("plant")
	require.NoError(t, err)
	assert.Equal(t, "v1", res.Devices[0].ID())

	require.NoError(t, os.WriteFile(path, []byte(`<ModbusSpec><RegisterMap><Device id="v2" unitId="1"/></RegisterMap></ModbusSpec>`), 0o644))

	res, err = l.Load("plant")
	require.NoError(t, err)
	assert.Equal(t, "v1", res.Devices[0].ID(), "Load serves the cached result")

	res, err = l.Reload("plant")
	require.NoError(t, err)
	assert.Equal(t, "v2", res.Devices[0].ID())
}

func TestLoaderNotFound(t *testing.T) {
	l, err := NewLoader([]string{t.TempDir()})
	require.NoError(t, err)

	_, err = l.Load("missing")
	require.Error(t, err)
	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}
