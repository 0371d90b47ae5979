package consts

import (
	"strings"
	"testing"

	"github.com/retroenv/ir2decomp/internal/catalog"
	"github.com/retroenv/retrogolib/assert"
)

const testEnums = `<GTA3Script>
  <Constants>
    <Enum Name="DEFAULTMODEL">
      <Constant Name="INFERNUS" Value="141"/>
      <Constant Name="CHEETAH"/>
    </Enum>
    <Enum Name="WEATHER">
      <Constant Name="SUNNY"/>
      <Constant Name="RAINY"/>
    </Enum>
    <Enum Name="PEDTYPE">
      <Constant Name="CIVMALE" Value="4"/>
    </Enum>
  </Constants>
</GTA3Script>`

type mockModels []string

func (m mockModels) Model(i int) (string, bool) {
	if i < 0 || i >= len(m) {
		return "", false
	}
	return m[i], true
}

func testCatalog(t *testing.T, document string) *catalog.Catalog {
	t.Helper()

	c := catalog.New()
	assert.NoError(t, c.Read(strings.NewReader(document)))
	return c
}

func TestArgument(t *testing.T) {
	c := New(testCatalog(t, testEnums), mockModels{"ARMY", "SWAT"})

	weather := catalog.Arg{Type: catalog.TypeInt, Enums: []string{"WEATHER"}}
	model := catalog.Arg{Type: catalog.TypeInt, Enums: []string{ModelEnum}}
	missing := catalog.Arg{Type: catalog.TypeInt, Enums: []string{"MISSING"}}
	boolean := catalog.Arg{Type: catalog.TypeInt, Desc: "BoolIsEnabled"}
	plain := catalog.Arg{Type: catalog.TypeInt}

	tests := []struct {
		name  string
		value int32
		slot  catalog.Arg
		want  string
		found bool
	}{
		{"enum value", 1, weather, "RAINY", true},
		{"enum missing value", 7, weather, "", false},
		{"first model", -1, model, "ARMY", true},
		{"second model", -2, model, "SWAT", true},
		{"model out of table", -3, model, "", false},
		{"default model", 142, model, "CHEETAH", true},
		{"default model missing", 0, model, "", false},
		{"unknown enum", 1, missing, "", false},
		{"bool false", 0, boolean, "FALSE", true},
		{"bool true", 1, boolean, "TRUE", true},
		{"bool other", 2, boolean, "", false},
		{"plain", 1, plain, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, ok := c.Argument(tt.value, tt.slot)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestModelWithEmptyDefaultModels(t *testing.T) {
	c := New(testCatalog(t, `<GTA3Script><Constants><Enum Name="DEFAULTMODEL"/></Constants></GTA3Script>`),
		mockModels{"ARMY"})
	model := catalog.Arg{Type: catalog.TypeInt, Enums: []string{ModelEnum}}

	name, ok := c.Argument(-1, model)
	assert.True(t, ok)
	assert.Equal(t, "ARMY", name)

	_, ok = c.Argument(0, model)
	assert.False(t, ok)
}

func TestForTags(t *testing.T) {
	c := New(testCatalog(t, testEnums), mockModels{"ARMY"})

	name, ok := c.ForTags(4, []string{"WEATHER", "PEDTYPE"})
	assert.True(t, ok)
	assert.Equal(t, "CIVMALE", name)

	name, ok = c.ForTags(0, []string{"WEATHER"})
	assert.True(t, ok)
	assert.Equal(t, "SUNNY", name)

	name, ok = c.ForTags(141, nil)
	assert.True(t, ok)
	assert.Equal(t, "INFERNUS", name)

	name, ok = c.ForTags(-1, []string{ModelEnum})
	assert.True(t, ok)
	assert.Equal(t, "ARMY", name)

	_, ok = c.ForTags(99, []string{"WEATHER"})
	assert.False(t, ok)
}

func TestUsed(t *testing.T) {
	c := New(testCatalog(t, testEnums), mockModels{"ARMY"})
	assert.Empty(t, c.Used())

	_, _ = c.Argument(1, catalog.Arg{Enums: []string{"WEATHER"}})
	_, _ = c.Argument(-1, catalog.Arg{Enums: []string{ModelEnum}})
	_, _ = c.Argument(5, catalog.Arg{Enums: []string{"PEDTYPE"}})

	assert.Equal(t, []string{ModelEnum, "WEATHER"}, c.Used())
}
