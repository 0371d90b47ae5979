package scope

import (
	"errors"
	"strings"
	"testing"

	"github.com/retroenv/ir2decomp/internal/address"
	"github.com/retroenv/ir2decomp/internal/bytecode"
	"github.com/retroenv/ir2decomp/internal/parser"
	"github.com/retroenv/retrogolib/assert"
)

const testInput = `MAIN:
START_NEW_SCRIPT @WORKER
GOSUB_FILE @GOSUB_START @GOSUB_TARGET
WAIT 0i8
WORKER:
SCRIPT_NAME 'WORKER'
TERMINATE_THIS_SCRIPT
GOSUB_START:
RETURN
GOSUB_TARGET:
RETURN
#MISSION_BLOCK_START 0
SCRIPT_NAME 'INTRO'
START_NEW_SCRIPT @MISSION_HELPER
TERMINATE_THIS_SCRIPT
MISSION_HELPER:
TERMINATE_THIS_SCRIPT
#MISSION_BLOCK_END
#MISSION_BLOCK_START 1
SCRIPT_NAME 'FINALE'
TERMINATE_THIS_SCRIPT
#MISSION_BLOCK_END
#STREAMED_BLOCK_START 0
SCRIPT_NAME 'BIKE'
TERMINATE_THIS_SCRIPT
#STREAMED_BLOCK_END
`

func parse(t *testing.T, input string) *bytecode.Bytecode {
	t.Helper()
	b, err := parser.Parse(strings.NewReader(input))
	assert.NoError(t, err)
	return b
}

func TestDiscover(t *testing.T) {
	b := parse(t, testInput)

	scopes, err := Discover(b)
	assert.NoError(t, err)

	var starts []address.Address
	for _, s := range scopes {
		starts = append(starts, s.Start)
	}
	assert.Equal(t, []address.Address{
		address.New(address.Main, 0, 0),
		address.New(address.Main, 0, 4),
		address.New(address.Main, 0, 9),
		address.New(address.Mission, 0, 0),
		address.New(address.Mission, 0, 3),
		address.New(address.Mission, 1, 0),
		address.New(address.Streamed, 0, 0),
	}, starts)

	// the last scope of each stream is open ended
	assert.True(t, scopes[2].End == nil)
	assert.True(t, scopes[5].End == nil)
	assert.True(t, scopes[6].End == nil)
	assert.True(t, scopes[0].End != nil)
	assert.Equal(t, address.New(address.Main, 0, 4), *scopes[0].End)
}

func TestDiscoverGosubTarget(t *testing.T) {
	b := parse(t, testInput)

	scopes, err := Discover(b)
	assert.NoError(t, err)

	target, ok := b.LabelAddress("GOSUB_TARGET")
	assert.True(t, ok)

	s, ok := Containing(scopes, target)
	assert.True(t, ok)
	assert.Equal(t, target, s.Start)

	enclosing, ok := Containing(scopes, address.New(address.Main, 0, 2))
	assert.True(t, ok)
	assert.True(t, enclosing.Start != s.Start)
}

func TestPartition(t *testing.T) {
	b := parse(t, testInput)

	scopes, err := Discover(b)
	assert.NoError(t, err)

	for i := 1; i < len(scopes); i++ {
		assert.True(t, scopes[i-1].Start.Less(scopes[i].Start))
		if end := scopes[i-1].End; end != nil {
			assert.False(t, scopes[i].Start.Less(*end))
		}
	}

	for addr := range b.All() {
		covering := 0
		for _, s := range scopes {
			if s.Contains(addr) {
				covering++
			}
		}
		assert.Equal(t, 1, covering)

		s, ok := Containing(scopes, addr)
		assert.True(t, ok)
		assert.True(t, s.Contains(addr))
	}
}

func TestContainingGap(t *testing.T) {
	b := parse(t, "#MISSION_BLOCK_START 0\nWAIT 0i8\n#MISSION_BLOCK_END\n")

	scopes, err := Discover(b)
	assert.NoError(t, err)
	assert.Len(t, scopes, 1)

	_, ok := Containing(scopes, address.New(address.Main, 0, 0))
	assert.False(t, ok)
	_, ok = Containing(scopes, address.New(address.Streamed, 0, 0))
	assert.False(t, ok)
	_, ok = Containing(scopes, address.New(address.Mission, 0, 0))
	assert.True(t, ok)
}

func TestDiscoverEmptyBlock(t *testing.T) {
	b := parse(t, strings.Join([]string{
		"#MISSION_BLOCK_START 0",
		"SCRIPT_NAME 'INTRO'",
		"#MISSION_BLOCK_END",
		"#MISSION_BLOCK_START 1",
		"#MISSION_BLOCK_END",
		"#MISSION_BLOCK_START 2",
		"SCRIPT_NAME 'FINALE'",
		"#MISSION_BLOCK_END",
	}, "\n"))

	scopes, err := Discover(b)
	assert.NoError(t, err)
	assert.Len(t, scopes, 3)

	assert.True(t, scopes[0].End != nil)
	assert.Equal(t, b.MissionAddress(1), *scopes[0].End)
	assert.False(t, scopes[0].Contains(b.MissionAddress(1)))

	s, ok := Containing(scopes, b.MissionAddress(1))
	assert.True(t, ok)
	assert.Equal(t, b.MissionAddress(1), s.Start)
	assert.True(t, s.Empty(b))
	_, ok = s.ScriptName(b)
	assert.False(t, ok)

	assert.False(t, scopes[2].Empty(b))
	name, ok := scopes[2].ScriptName(b)
	assert.True(t, ok)
	assert.Equal(t, "FINALE", name)
}

func TestInstructionsAndScriptName(t *testing.T) {
	b := parse(t, testInput)

	scopes, err := Discover(b)
	assert.NoError(t, err)

	var lines []string
	for _, ins := range scopes[1].Instructions(b) {
		lines = append(lines, ins.String())
	}
	assert.Equal(t, []string{"WORKER:", "SCRIPT_NAME 'WORKER'", "TERMINATE_THIS_SCRIPT", "GOSUB_START:", "RETURN"}, lines)

	name, ok := scopes[1].ScriptName(b)
	assert.True(t, ok)
	assert.Equal(t, "WORKER", name)

	_, ok = scopes[0].ScriptName(b)
	assert.False(t, ok)

	name, ok = scopes[6].ScriptName(b)
	assert.True(t, ok)
	assert.Equal(t, "BIKE", name)
}

func TestDiscoverErrors(t *testing.T) {
	_, err := Discover(parse(t, "START_NEW_SCRIPT @MISSING\n"))
	assert.True(t, errors.Is(err, ErrUnresolvedLabel))

	_, err = Discover(parse(t, "START_NEW_SCRIPT 1i8\n"))
	assert.ErrorContains(t, err, "not a label")

	_, err = Discover(parse(t, "CALL @A\nA:\n"))
	assert.ErrorContains(t, err, "missing label argument")
}
