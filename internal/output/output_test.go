package output

import (
	"fmt"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/spf13/afero"
)

func TestNew(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := New(fs, "out")
	assert.NoError(t, err)

	for _, dir := range []string{"out/main", "out/main/missions", "out/main/streams"} {
		exists, err := afero.DirExists(fs, dir)
		assert.NoError(t, err)
		assert.True(t, exists)
	}
}

func TestCreate(t *testing.T) {
	fs := afero.NewMemMapFs()
	tree, err := New(fs, "out")
	assert.NoError(t, err)

	file, err := tree.Create(ScriptPath(MissionsDir + "/" + FileName("intro")))
	assert.NoError(t, err)
	assert.Equal(t, "main/missions/intro.sc", file.Name())

	_, err = fmt.Fprintln(file, "MISSION_START")
	assert.NoError(t, err)

	// buffered until closed
	data, err := afero.ReadFile(fs, tree.Path(file.Name()))
	assert.NoError(t, err)
	assert.Empty(t, data)

	assert.NoError(t, file.Close())

	data, err = afero.ReadFile(fs, "out/main/missions/intro.sc")
	assert.NoError(t, err)
	assert.Equal(t, "MISSION_START\n", string(data))
}

func TestCreateReadOnly(t *testing.T) {
	fs := afero.NewReadOnlyFs(afero.NewMemMapFs())

	_, err := New(fs, "out")
	assert.Error(t, err)
}
