package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
[Mqtt1]
type = mqttClient
version = 4
keepAlive = 300
cleanSession = yes

[Modbus1]
type = tcpClient
serverIP = 10.0.0.5
port = 502
endpoint[1].method = GET
endpoint[2].method = POST
`

func TestParseAndGet(t *testing.T) {
	c, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	v, ok := c.Get(`Mqtt1`, `type`)
	require.True(t, ok)
	assert.Equal(t, `mqttClient`, v)

	_, ok = c.Get(`Mqtt1`, `missing`)
	assert.False(t, ok)

	assert.Equal(t, `fallback`, c.GetDefault(`Mqtt1`, `missing`, `fallback`))
}

func TestIndexedKeys(t *testing.T) {
	c, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	v, ok := c.Get(`Modbus1`, IndexedKey(`endpoint`, 1, `method`))
	require.True(t, ok)
	assert.Equal(t, `GET`, v)

	v, ok = c.Get(`Modbus1`, IndexedKey(`endpoint`, 2, `method`))
	require.True(t, ok)
	assert.Equal(t, `POST`, v)
}

func TestTypedCoercions(t *testing.T) {
	c, err := Parse(strings.NewReader(sample))
	require.NoError(t, err)

	n, err := c.GetInt(`Mqtt1`, `keepAlive`, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 300, n)

	b, err := c.GetBool(`Mqtt1`, `cleanSession`, false)
	require.NoError(t, err)
	assert.True(t, b)

	d, err := c.GetDuration(`Mqtt1`, `keepAlive`, 0)
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, d)
}

func TestUncoercibleValueErrors(t *testing.T) {
	c, err := Parse(strings.NewReader("[S]\nn = notanumber\n"))
	require.NoError(t, err)

	_, err = c.GetInt(`S`, `n`, 0)
	assert.Error(t, err)
}

func TestKeyOutsideSectionIsError(t *testing.T) {
	_, err := Parse(strings.NewReader("k = v\n"))
	assert.Error(t, err)
}
