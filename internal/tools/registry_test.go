package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) *Tool {
	return &Tool{
		Name:        name,
		Description: "echoes its message",
		InputSchema: json.RawMessage(`{"type":"object","properties":{"message":{"type":"string","minLength":1,"maxLength":10}},"required":["message"]}`),
		Handler: func(ctx context.Context, input json.RawMessage) (*Result, error) {
			var in struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(input, &in); err != nil {
				return nil, err
			}
			return TextResult("echo: %s", in.Message), nil
		},
	}
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry(nil)

	require.NoError(t, reg.Register(echoTool("echo")))

	t.Run("duplicate name collides", func(t *testing.T) {
		err := reg.Register(echoTool("echo"))
		assert.ErrorIs(t, err, ErrToolCollision)
	})

	t.Run("rejects missing handler", func(t *testing.T) {
		err := reg.Register(&Tool{
			Name:        "broken",
			InputSchema: json.RawMessage(`{"type":"object"}`),
		})
		assert.Error(t, err)
	})

	t.Run("rejects malformed schema", func(t *testing.T) {
		tool := echoTool("bad-schema")
		tool.InputSchema = json.RawMessage(`{"type":"array"}`)
		assert.Error(t, reg.Register(tool))
	})

	t.Run("rejects undeclared required property", func(t *testing.T) {
		tool := echoTool("bad-required")
		tool.InputSchema = json.RawMessage(`{"type":"object","properties":{},"required":["ghost"]}`)
		assert.Error(t, reg.Register(tool))
	})
}

func TestRegistry_ListOrder(t *testing.T) {
	reg := NewRegistry(nil)
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, reg.Register(echoTool(name)))
	}

	listed := reg.List()
	require.Len(t, listed, 3)
	assert.Equal(t, "charlie", listed[0].Name)
	assert.Equal(t, "alpha", listed[1].Name)
	assert.Equal(t, "bravo", listed[2].Name)
}

func TestRegistry_Invoke(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(echoTool("echo")))

	ctx := context.Background()

	t.Run("valid input runs the handler", func(t *testing.T) {
		res, err := reg.Invoke(ctx, "echo", json.RawMessage(`{"message":"hi"}`))
		require.NoError(t, err)
		require.Len(t, res.Content, 1)
		assert.Equal(t, "echo: hi", res.Content[0].Text)
		assert.False(t, res.IsError)
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := reg.Invoke(ctx, "missing", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ErrToolNotFound)
	})

	t.Run("missing required property skips handler", func(t *testing.T) {
		_, err := reg.Invoke(ctx, "echo", json.RawMessage(`{}`))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("wrong type skips handler", func(t *testing.T) {
		_, err := reg.Invoke(ctx, "echo", json.RawMessage(`{"message":42}`))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("maxLength enforced", func(t *testing.T) {
		_, err := reg.Invoke(ctx, "echo", json.RawMessage(`{"message":"far too long for this"}`))
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("handler error becomes isError result", func(t *testing.T) {
		failing := &Tool{
			Name:        "fail",
			InputSchema: json.RawMessage(`{"type":"object","properties":{}}`),
			Handler: func(ctx context.Context, input json.RawMessage) (*Result, error) {
				return nil, fmt.Errorf("disk on fire")
			},
		}
		require.NoError(t, reg.Register(failing))

		res, err := reg.Invoke(ctx, "fail", nil)
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, res.Content[0].Text, "disk on fire")
	})
}

func TestValidateInput(t *testing.T) {
	schemaRaw := json.RawMessage(`{
		"type": "object",
		"properties": {
			"name":  {"type": "string", "minLength": 2},
			"count": {"type": "integer"},
			"tags":  {"type": "array"},
			"meta":  {"type": "object"},
			"live":  {"type": "boolean"}
		},
		"required": ["name"]
	}`)

	cases := []struct {
		desc  string
		input string
		ok    bool
	}{
		{"all valid", `{"name":"ok","count":3,"tags":[],"meta":{},"live":true}`, true},
		{"only required", `{"name":"ok"}`, true},
		{"unknown property ignored", `{"name":"ok","extra":"fine"}`, true},
		{"missing required", `{"count":1}`, false},
		{"null required", `{"name":null}`, false},
		{"non-object input", `[1,2]`, false},
		{"string too short", `{"name":"x"}`, false},
		{"integer gets float", `{"name":"ok","count":1.5}`, false},
		{"array gets object", `{"name":"ok","tags":{}}`, false},
		{"boolean gets string", `{"name":"ok","live":"yes"}`, false},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			err := ValidateInput(schemaRaw, json.RawMessage(tc.input))
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidInput)
			}
		})
	}

	t.Run("empty input treated as empty object", func(t *testing.T) {
		err := ValidateInput(json.RawMessage(`{"type":"object","properties":{}}`), nil)
		assert.NoError(t, err)
	})
}
