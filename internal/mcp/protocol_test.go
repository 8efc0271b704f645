// ABOUTME: Tests for method parsing and JSON-RPC envelope helpers.

package mcp

import (
	"encoding/json"
	"testing"
)

func TestParseMethod(t *testing.T) {
	cases := []struct {
		in   string
		want method
	}{
		{"initialize", methodInitialize},
		{"ping", methodPing},
		{"tools/list", methodToolsList},
		{"tools/call", methodToolsCall},
		{"notifications/initialized", methodNotification},
		{"notifications/cancelled", methodNotification},
		{"resources/list", methodUnknown},
		{"Initialize", methodUnknown},
		{"", methodUnknown},
	}

	for _, tc := range cases {
		if got := parseMethod(tc.in); got != tc.want {
			t.Errorf("parseMethod(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsNotification(t *testing.T) {
	cases := []struct {
		desc string
		id   string
		want bool
	}{
		{"absent id", "", true},
		{"null id", "null", true},
		{"numeric id", "1", false},
		{"zero id", "0", false},
		{"string id", `"abc"`, false},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			req := JSONRPCRequest{ID: json.RawMessage(tc.id)}
			if tc.id == "" {
				req.ID = nil
			}
			if got := req.IsNotification(); got != tc.want {
				t.Errorf("IsNotification() = %v, want %v", got, tc.want)
			}
		})
	}
}
