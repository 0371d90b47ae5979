package audit

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-test/deep"
	"github.com/retroenv/ir2decomp/internal/address"
	"github.com/retroenv/ir2decomp/internal/catalog"
	"github.com/retroenv/ir2decomp/internal/parser"
	"github.com/retroenv/retrogolib/assert"
)

const testCatalog = `<GTA3Script>
  <Constants>
    <Enum Name="DEFAULTMODEL">
      <Constant Name="INFERNUS" Value="411"/>
    </Enum>
    <Enum Name="WEATHER">
      <Constant Name="SUNNY"/>
      <Constant Name="RAINY"/>
    </Enum>
  </Constants>
  <Commands>
    <Command Name="WAIT"><Args><Arg Type="INT"/></Args></Command>
    <Command Name="FORCE_WEATHER"><Args><Arg Type="INT" Enum="WEATHER"/></Args></Command>
    <Command Name="CREATE_CAR"><Args><Arg Type="INT" Enum="MODEL"/><Arg Type="INT" Out="true"/></Args></Command>
    <Command Name="START_NEW_SCRIPT"><Args><Arg Type="LABEL"/><Arg Type="PARAM" Optional="true"/></Args></Command>
    <Command Name="OLD_COMMAND" Supported="false"/>
  </Commands>
</GTA3Script>`

func runAudit(t *testing.T, source string) *Report {
	t.Helper()

	cat := catalog.New()
	assert.NoError(t, cat.Read(strings.NewReader(testCatalog)))

	b, err := parser.Parse(strings.NewReader(source))
	assert.NoError(t, err)
	return Run(cat, b)
}

//nolint:funlen // test functions can be long
func TestRun(t *testing.T) {
	source := strings.Join([]string{
		"#DEFINE_MODEL ARMY",
		"MAIN:",
		"WAIT 0i8",
		"UNKNOWN_B",
		"UNKNOWN_A 1i8",
		"UNKNOWN_B",
		"OLD_COMMAND",
		"WAIT",
		"WAIT 1i8 2i8",
		"WAIT 3i8 4i8",
		"START_NEW_SCRIPT @MAIN 1i8 2i8 3i8",
		"FORCE_WEATHER 1i8",
		"FORCE_WEATHER 7i8",
		"FORCE_WEATHER 7i8",
		"FORCE_WEATHER &8",
		"CREATE_CAR -1i8 &12",
		"CREATE_CAR 411i16 &12",
		"CREATE_CAR 400i16 &12",
	}, "\n")

	report := runAudit(t, source)

	expected := &Report{
		Missing: []CommandCount{
			{Name: "UNKNOWN_A", Count: 1},
			{Name: "UNKNOWN_B", Count: 2},
		},
		Unsupported: []CommandCount{
			{Name: "OLD_COMMAND", Count: 1},
		},
		ArgMismatches: []ArgMismatch{
			{Command: "WAIT", Args: 0, Declared: 1, First: address.New(address.Main, 0, 6), Count: 1},
			{Command: "WAIT", Args: 2, Declared: 1, First: address.New(address.Main, 0, 7), Count: 2},
		},
		UnnamedValues: []UnnamedValue{
			{Enum: "DEFAULTMODEL", Value: 400, Command: "CREATE_CAR"},
			{Enum: "WEATHER", Value: 7, Command: "FORCE_WEATHER"},
		},
	}
	if diff := deep.Equal(report, expected); diff != nil {
		t.Error(diff)
	}
	assert.False(t, report.Empty())

	var buf bytes.Buffer
	assert.NoError(t, report.Write(&buf))
	assert.Equal(t, strings.Join([]string{
		"Missing command UNKNOWN_A used 1 times",
		"Missing command UNKNOWN_B used 2 times",
		"Command OLD_COMMAND is marked unsupported but used 1 times",
		"Command WAIT used with 0 arguments instead of 1 at main:0:6 (1 times)",
		"Command WAIT used with 2 arguments instead of 1 at main:0:7 (2 times)",
		"Unknown value 400 of enum DEFAULTMODEL used by CREATE_CAR",
		"Unknown value 7 of enum WEATHER used by FORCE_WEATHER",
	}, "\n")+"\n", buf.String())
}

func TestRunClean(t *testing.T) {
	report := runAudit(t, "WAIT 0i8\nFORCE_WEATHER 0i8\nSTART_NEW_SCRIPT @MAIN\nMAIN:")
	assert.True(t, report.Empty())

	var buf bytes.Buffer
	assert.NoError(t, report.Write(&buf))
	assert.Equal(t, "", buf.String())
}
