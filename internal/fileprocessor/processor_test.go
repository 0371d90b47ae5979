package fileprocessor

import (
	"context"
	"testing"

	"github.com/retroenv/ir2decomp/internal/options"
	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/spf13/afero"
)

const testCatalog = `<GTA3Script>
  <Commands>
    <Command Name="WAIT"><Args><Arg Type="INT"/></Args></Command>
  </Commands>
</GTA3Script>`

func TestGetFilesToProcess(t *testing.T) {
	fs := afero.NewMemMapFs()
	for _, name := range []string{"dumps/a.ir2", "dumps/b.ir2", "dumps/readme.txt"} {
		assert.NoError(t, afero.WriteFile(fs, name, []byte("WAIT 0i8\n"), 0o644))
	}

	files, err := GetFilesToProcess(fs, options.Program{Parameters: options.Parameters{Batch: "dumps/*.ir2"}})
	assert.NoError(t, err)
	assert.Equal(t, []string{"dumps/a.ir2", "dumps/b.ir2"}, files)

	files, err = GetFilesToProcess(fs, options.Program{Parameters: options.Parameters{Input: "main.ir2"}})
	assert.NoError(t, err)
	assert.Equal(t, []string{"main.ir2"}, files)

	_, err = GetFilesToProcess(fs, options.Program{Parameters: options.Parameters{Batch: "dumps/[.ir2"}})
	assert.ErrorContains(t, err, "globbing batch pattern")
}

func TestGenerateOutputDirectory(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"main.ir2", "main_sc"},
		{"dumps/sa.txt", "dumps/sa_sc"},
		{"main", "main_sc"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateOutputDirectory(tt.input))
		})
	}
}

func TestProcessFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	assert.NoError(t, afero.WriteFile(fs, "commands.xml", []byte(testCatalog), 0o644))
	assert.NoError(t, afero.WriteFile(fs, "main.ir2", []byte("WAIT 5i8\n"), 0o644))

	opts := options.Program{
		Parameters: options.Parameters{
			Input:   "main.ir2",
			Output:  GenerateOutputDirectory("main.ir2"),
			Catalog: "commands.xml",
		},
		Decompiler: options.NewDecompiler(),
	}

	err := ProcessFile(context.Background(), log.NewTestLogger(t), fs, opts)
	assert.NoError(t, err)

	exists, err := afero.Exists(fs, "main_sc/main.sc")
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = afero.DirExists(fs, "main_sc/main/missions")
	assert.NoError(t, err)
	assert.True(t, exists)
}
