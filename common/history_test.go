package common

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryConfigKeepsUnknownKeys(t *testing.T) {
	var cfg HistoryConfig
	require.NoError(t, json.Unmarshal([]byte(`{"enabled":true,"retention":31536000,"changesOnly":false,"customField":"x"}`), &cfg))

	require.NotNil(t, cfg.Enabled)
	assert.True(t, *cfg.Enabled)
	require.NotNil(t, cfg.Retention)
	assert.Equal(t, 31536000.0, *cfg.Retention)
	require.NotNil(t, cfg.ChangesOnly)
	assert.False(t, *cfg.ChangesOnly)
	assert.Nil(t, cfg.Round)
	assert.Equal(t, map[string]interface{}{`customField`: `x`}, cfg.Extra)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"enabled":true,"retention":31536000,"changesOnly":false,"customField":"x"}`, string(out))
}

func TestHistoryConfigOmitsUnset(t *testing.T) {
	debounce := 1000.0
	out, err := json.Marshal(HistoryConfig{Debounce: &debounce})
	require.NoError(t, err)
	assert.JSONEq(t, `{"debounce":1000}`, string(out))
}

func TestObjectHelpers(t *testing.T) {
	var obj Object
	require.NoError(t, json.Unmarshal([]byte(`{
		"_id": "enum.rooms.kitchen",
		"type": "enum",
		"common": {"name": {"en": "Kitchen", "de": "Küche"}, "members": ["hue.0.lamp", 5, "zigbee.0.sensor"]}
	}`), &obj))

	assert.Equal(t, `enum.rooms.kitchen`, obj.ID)
	assert.Equal(t, `Küche`, obj.Name(`de`))
	assert.Equal(t, `Kitchen`, obj.Name(`fr`))
	assert.Equal(t, []string{`hue.0.lamp`, `zigbee.0.sensor`}, obj.Members())

	plain := &Object{Common: map[string]interface{}{`name`: `Lamp`}}
	assert.Equal(t, `Lamp`, plain.Name(`de`))

	var missing *Object
	assert.Empty(t, missing.Name(`en`))
	assert.Nil(t, missing.Members())
}

func TestProgressOrder(t *testing.T) {
	assert.Less(t, ProgressConnecting, ProgressConnected)
	assert.Less(t, ProgressConnected, ProgressObjectsLoaded)
	assert.Less(t, ProgressObjectsLoaded, ProgressReady)
	assert.Equal(t, `ready`, ProgressReady.String())
	assert.Equal(t, `unknown`, Progress(42).String())
}

func TestLogLevelValid(t *testing.T) {
	assert.True(t, LogSilly.Valid())
	assert.True(t, LogError.Valid())
	assert.False(t, LogLevel(`fatal`).Valid())
}

func TestIsPattern(t *testing.T) {
	assert.True(t, IsPattern(`javascript.0.*`))
	assert.True(t, IsPattern(`*`))
	assert.False(t, IsPattern(`javascript.0.counter`))
}
