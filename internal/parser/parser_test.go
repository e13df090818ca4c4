package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribblerbot/scribbler/pkg/core"
)

func TestParseIntFromFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"integer", "3", 3, false},
		{"zero", "0", 0, false},
		{"float with trailing zero", "3.0", 3, false},
		{"negative", "-2", -2, false},
		{"fractional rejects", "1.5", 0, true},
		{"empty string", "", 0, true},
		{"non-numeric", "abc", 0, true},
		{"nan", "NaN", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIntFromFloat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseSync(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  core.AgentStatus
	}{
		{"running tracie", "tracie True False", core.AgentStatus{Program: "tracie", Running: true}},
		{"can reset", "sequential False True", core.AgentStatus{Program: "sequential", CanReset: true}},
		{"lowercase is false", "calib true true", core.AgentStatus{Program: "calib"}},
		{"trailing newline", "nomyro True True\n", core.AgentStatus{Program: "nomyro", Running: true, CanReset: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSync(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSync_WrongFieldCount(t *testing.T) {
	for _, input := range []string{"", "tracie", "tracie True", "tracie True False extra"} {
		_, err := ParseSync(input)
		assert.ErrorIs(t, err, core.ErrMalformedResponse, "input %q", input)
	}
}

func TestParseParamHelp(t *testing.T) {
	help, err := ParseParamHelp(`{"sp": "drive speed", "rs": "rotation speed"}`)
	require.NoError(t, err)
	assert.Equal(t, "drive speed", help["sp"])
	assert.Equal(t, []string{"rs", "sp"}, help.SortedCodes())

	empty, err := ParseParamHelp(`{}`)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestParseParamHelp_Invalid(t *testing.T) {
	for _, input := range []string{"", "null", "[1,2]", `{"sp": 3}`, "not json"} {
		_, err := ParseParamHelp(input)
		assert.ErrorIs(t, err, core.ErrMalformedResponse, "input %q", input)
	}
}
