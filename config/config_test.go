package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func env(values map[string]string) func(string) string {
	return func(key string) string {
		return values[key]
	}
}

func TestNew(t *testing.T) {
	c := New()

	assert.Equal(t, &Config{
		Region:         "us-west-2",
		Port:           3000,
		UpdateResponse: "no-content",
		LogLevel:       "info",
	}, c)
	assert.Equal(t, ":3000", c.Addr())
}

func TestFromEnv(t *testing.T) {
	c, err := fromEnv(env(map[string]string{
		"API_GATEWAY_URL":     "https://example.com/prod/dispatch",
		"DISPATCHER_FUNCTION": "todo-dispatcher",
		"TABLE_NAME":          "todos",
		"AWS_REGION":          "eu-west-1",
		"DYNAMO_ENDPOINT":     "http://localhost:8000",
		"PORT":                "8080",
		"UPDATE_RESPONSE":     "updated",
		"LOG_LEVEL":           "debug",
	}))

	assert.NoError(t, err)
	assert.Equal(t, &Config{
		Endpoint:       "https://example.com/prod/dispatch",
		Function:       "todo-dispatcher",
		Table:          "todos",
		Region:         "eu-west-1",
		DynamoEndpoint: "http://localhost:8000",
		Port:           8080,
		UpdateResponse: "updated",
		LogLevel:       "debug",
	}, c)
}

func TestFromEnv_defaults(t *testing.T) {
	c, err := fromEnv(env(nil))

	assert.NoError(t, err)
	assert.Equal(t, New(), c)
}

func TestFromEnv_error(t *testing.T) {
	cases := []struct {
		values   map[string]string
		expected string
	}{
		{map[string]string{"PORT": "http"}, `invalid PORT 'http': strconv.Atoi: parsing "http": invalid syntax`},
		{map[string]string{"PORT": "70000"}, "port 70000 out of range"},
		{map[string]string{"UPDATE_RESPONSE": "all"}, "update_response must be 'no-content' or 'updated', got 'all'"},
	}

	for _, c := range cases {
		_, err := fromEnv(env(c.values))

		assert.Error(t, err)
		assert.Equal(t, c.expected, err.Error())
	}
}

func TestFromJSON(t *testing.T) {
	c, err := FromJSON(`{"table":"todos","endpoint":"http://localhost:9000","port":4000}`)

	assert.NoError(t, err)
	assert.Equal(t, "todos", c.Table)
	assert.Equal(t, "http://localhost:9000", c.Endpoint)
	assert.Equal(t, 4000, c.Port)
	assert.Equal(t, "us-west-2", c.Region)
	assert.Equal(t, "no-content", c.UpdateResponse)
	assert.Equal(t, "info", c.LogLevel)
}

func TestFromJSON_error(t *testing.T) {
	_, err := FromJSON(`{"table":`)
	assert.Error(t, err)

	_, err = FromJSON(`{"port":-1}`)
	assert.Error(t, err)
	assert.Equal(t, "port -1 out of range", err.Error())
}

func TestConfig_RequireTable(t *testing.T) {
	c := New()
	assert.EqualError(t, c.RequireTable(), "table is required")

	c.Table = "todos"
	assert.NoError(t, c.RequireTable())
}

func TestConfig_RequireDispatcher(t *testing.T) {
	c := New()
	assert.EqualError(t, c.RequireDispatcher(), "endpoint or function is required")

	c.Function = "todo-dispatcher"
	assert.NoError(t, c.RequireDispatcher())

	c = New()
	c.Endpoint = "http://localhost:9000"
	assert.NoError(t, c.RequireDispatcher())
}

func TestParse(t *testing.T) {
	c, err := Parse(`{"table":"todos"}`)

	assert.NoError(t, err)
	assert.Equal(t, &Config{Table: "todos"}, c)
}
