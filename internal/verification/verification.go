// Package verification verifies that the parsed bytecode recreates the input.
package verification

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/retroenv/ir2decomp/internal/bytecode"
	"github.com/retroenv/retrogolib/log"
	"github.com/zeebo/blake3"
)

// ErrMismatch is returned when the serialized bytecode differs from the input.
var ErrMismatch = errors.New("serialized bytecode does not match the input")

const maxReportedMismatches = 10

const definePrefix = "#DEFINE_"

type line struct {
	number int // 1 based line number in the input, 0 for serialized lines
	text   string
}

// Verify serializes the bytecode back to IR2 text and compares it line by
// line with the input. The define directives are compared separately from
// the instructions as the serialization writes all of them first.
func Verify(logger *log.Logger, input []byte, b *bytecode.Bytecode) error {
	serialized := b.Lines()

	inputDefines, inputInstructions := split(inputLines(input))
	defines, instructions := split(toLines(serialized))

	mismatches := compare(logger, inputDefines, defines)
	mismatches += compare(logger, inputInstructions, instructions)

	inputSum := blake3.Sum256(input)
	outputSum := blake3.Sum256([]byte(strings.Join(serialized, "\n") + "\n"))
	logger.Debug("Verification checksums",
		log.String("input", hex.EncodeToString(inputSum[:])),
		log.String("serialized", hex.EncodeToString(outputSum[:])))

	if mismatches > 0 {
		return fmt.Errorf("%w: %d mismatched lines", ErrMismatch, mismatches)
	}
	return nil
}

// compare returns the number of mismatches between the expected and the
// actual lines and logs the first of them.
func compare(logger *log.Logger, expected, actual []line) int {
	mismatches := 0
	for i := range max(len(expected), len(actual)) {
		var want, got line
		if i < len(expected) {
			want = expected[i]
		}
		if i < len(actual) {
			got = actual[i]
		}
		if want.text == got.text && i < len(expected) && i < len(actual) {
			continue
		}

		mismatches++
		if mismatches <= maxReportedMismatches {
			logger.Error("Serialized line does not match the input",
				log.Int("line", want.number),
				log.String("expected", want.text),
				log.String("actual", got.text))
		}
	}
	return mismatches
}

// inputLines splits the input into lines without line terminators.
func inputLines(input []byte) []line {
	text := strings.TrimSuffix(string(input), "\n")
	if text == "" {
		return nil
	}

	parts := strings.Split(text, "\n")
	lines := make([]line, 0, len(parts))
	for i, part := range parts {
		lines = append(lines, line{number: i + 1, text: strings.TrimSuffix(part, "\r")})
	}
	return lines
}

func toLines(texts []string) []line {
	lines := make([]line, 0, len(texts))
	for _, text := range texts {
		lines = append(lines, line{text: text})
	}
	return lines
}

// split separates the define directives from the other lines.
func split(lines []line) ([]line, []line) {
	var defines, others []line
	for _, l := range lines {
		if strings.HasPrefix(l.text, definePrefix) {
			defines = append(defines, l)
		} else {
			others = append(others, l)
		}
	}
	return defines, others
}
