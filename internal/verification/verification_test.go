package verification

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/retroenv/ir2decomp/internal/parser"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
)

func TestVerify(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "main only",
			input: "MAIN:\nWAIT 0i8\nSET_VAR_FLOAT &8 0x1.800000p+0f\n",
		},
		{
			name:  "windows line endings",
			input: "MAIN:\r\nWAIT 0i8\r\n",
		},
		{
			name: "blocks and interleaved defines",
			input: strings.Join([]string{
				"#DEFINE_MODEL ARMY",
				"WAIT 0i8",
				"#DEFINE_STREAM BIKE",
				"#MISSION_BLOCK_START 0",
				"SCRIPT_NAME 'INTRO'",
				"#MISSION_BLOCK_END",
				"#STREAMED_BLOCK_START 0",
				"IR2_HEX 1i8 -1i8",
				"#STREAMED_BLOCK_END",
			}, "\n"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := parser.Parse(strings.NewReader(tt.input))
			assert.NoError(t, err)
			assert.NoError(t, Verify(log.NewTestLogger(t), []byte(tt.input), b))
		})
	}
}

func TestVerifyMismatch(t *testing.T) {
	b, err := parser.Parse(strings.NewReader("WAIT 0i8\nWAIT 1i8\n"))
	assert.NoError(t, err)

	tests := []struct {
		name  string
		input string
		count string
	}{
		{name: "changed line", input: "WAIT 0i8\nWAIT 2i8\n", count: "1 mismatched lines"},
		{name: "missing line", input: "WAIT 0i8\n", count: "1 mismatched lines"},
		{name: "extra define", input: "#DEFINE_MODEL ARMY\nWAIT 0i8\nWAIT 1i8\n", count: "1 mismatched lines"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := log.NewWithConfig(log.Config{Output: buf, TimeFormat: "-"})

			err := Verify(logger, []byte(tt.input), b)
			assert.True(t, errors.Is(err, ErrMismatch))
			assert.ErrorContains(t, err, tt.count)
			assert.Contains(t, buf.String(), "Serialized line does not match the input")
		})
	}
}

func TestInputLines(t *testing.T) {
	assert.Equal(t, 0, len(inputLines(nil)))
	assert.Equal(t, []line{{1, "A"}, {2, ""}, {3, "B"}}, inputLines([]byte("A\r\n\nB")))
}
