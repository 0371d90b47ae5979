package catalog

import (
	"io"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/elliotchance/orderedmap/v2"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

const catalogExtension = ".xml"

// Load reads the catalog from a file or from all .xml files of a directory.
func Load(fs afero.Fs, path string) (*Catalog, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading catalog '%s'", path)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = catalogFiles(fs, path)
		if err != nil {
			return nil, err
		}
	}

	c := New()
	for _, file := range files {
		if err := c.readFile(fs, file); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Read parses one catalog document and adds its content to the catalog.
// Entries with a name that was loaded before replace the previous entry.
func (c *Catalog) Read(reader io.Reader) error {
	doc, err := xmlquery.Parse(reader)
	if err != nil {
		return errors.Wrap(err, "parsing xml")
	}

	alternators, err := xmlquery.QueryAll(doc, "/GTA3Script/Alternators/Alternator")
	if err != nil {
		return errors.Wrap(err, "querying alternators")
	}
	for _, node := range alternators {
		c.addAlternator(alternatorFromNode(node))
	}

	commands, err := xmlquery.QueryAll(doc, "/GTA3Script/Commands/Command")
	if err != nil {
		return errors.Wrap(err, "querying commands")
	}
	for _, node := range commands {
		cmd, err := commandFromNode(node)
		if err != nil {
			return err
		}
		c.commands.Set(cmd.Name, cmd)
	}

	enums, err := xmlquery.QueryAll(doc, "/GTA3Script/Constants/Enum")
	if err != nil {
		return errors.Wrap(err, "querying enums")
	}
	for _, node := range enums {
		enum, err := enumFromNode(node)
		if err != nil {
			return err
		}
		c.addEnum(enum)
	}
	return nil
}

func (c *Catalog) readFile(fs afero.Fs, path string) error {
	file, err := fs.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening catalog file '%s'", path)
	}
	defer func() { _ = file.Close() }()

	if err := c.Read(file); err != nil {
		return errors.Wrapf(err, "reading catalog file '%s'", path)
	}
	return nil
}

func catalogFiles(fs afero.Fs, dir string) ([]string, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing catalog directory '%s'", dir)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), catalogExtension) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func alternatorFromNode(node *xmlquery.Node) *Alternator {
	alt := &Alternator{Name: node.SelectAttr("Name")}
	for _, child := range node.SelectElements("Alternative") {
		alt.Alternatives = append(alt.Alternatives, child.SelectAttr("Name"))
	}
	return alt
}

func commandFromNode(node *xmlquery.Node) (*Command, error) {
	cmd := &Command{Name: node.SelectAttr("Name")}
	var err error

	if cmd.ID, err = optionalInt(node, "ID"); err != nil {
		return nil, errors.Wrapf(err, "command %s", cmd.Name)
	}
	if cmd.Hash, err = optionalInt(node, "Hash"); err != nil {
		return nil, errors.Wrapf(err, "command %s", cmd.Name)
	}
	if cmd.Supported, err = boolAttr(node, "Supported", true); err != nil {
		return nil, errors.Wrapf(err, "command %s", cmd.Name)
	}
	if cmd.Internal, err = boolAttr(node, "Internal", false); err != nil {
		return nil, errors.Wrapf(err, "command %s", cmd.Name)
	}
	if cmd.Extension, err = boolAttr(node, "Extension", false); err != nil {
		return nil, errors.Wrapf(err, "command %s", cmd.Name)
	}

	if args := node.SelectElement("Args"); args != nil {
		for i, argNode := range args.SelectElements("Arg") {
			arg, err := argFromNode(argNode)
			if err != nil {
				return nil, errors.Wrapf(err, "command %s argument %d", cmd.Name, i)
			}
			cmd.Args = append(cmd.Args, arg)
		}
	}
	return cmd, nil
}

func argFromNode(node *xmlquery.Node) (Arg, error) {
	arg := Arg{
		Type:   node.SelectAttr("Type"),
		Desc:   node.SelectAttr("Desc"),
		Entity: node.SelectAttr("Entity"),
	}
	if enum := node.SelectAttr("Enum"); enum != "" {
		arg.Enums = []string{enum}
	}

	allowVar := arg.Type != TypeLabel
	flags := []struct {
		name  string
		def   bool
		value *bool
	}{
		{"Out", false, &arg.Out},
		{"Ref", false, &arg.Ref},
		{"Optional", false, &arg.Optional},
		{"AllowGlobalVar", allowVar, &arg.AllowGlobalVar},
		{"AllowLocalVar", allowVar, &arg.AllowLocalVar},
		{"AllowTextLabel", false, &arg.AllowTextLabel},
		{"AllowPointer", false, &arg.AllowPointer},
		{"PreserveCase", false, &arg.PreserveCase},
	}
	for _, flag := range flags {
		value, err := boolAttr(node, flag.name, flag.def)
		if err != nil {
			return Arg{}, err
		}
		*flag.value = value
	}

	// the constant default depends on the already parsed Out flag
	allowConst, err := boolAttr(node, "AllowConst", !arg.Out)
	if err != nil {
		return Arg{}, err
	}
	arg.AllowConst = allowConst
	return arg, nil
}

func enumFromNode(node *xmlquery.Node) (*Enum, error) {
	enum := &Enum{
		Name:      node.SelectAttr("Name"),
		Constants: orderedmap.NewOrderedMap[string, int32](),
	}

	var err error
	if enum.Global, err = boolAttr(node, "Global", false); err != nil {
		return nil, errors.Wrapf(err, "enum %s", enum.Name)
	}

	last := int64(-1)
	for _, constant := range node.SelectElements("Constant") {
		value := last + 1
		if raw, ok := attr(constant, "Value"); ok {
			value, err = strconv.ParseInt(raw, 0, 32)
			if err != nil {
				return nil, errors.Wrapf(err, "enum %s constant %s", enum.Name, constant.SelectAttr("Name"))
			}
		}
		enum.Constants.Set(constant.SelectAttr("Name"), int32(value))
		last = value
	}
	return enum, nil
}

func attr(node *xmlquery.Node, name string) (string, bool) {
	for _, a := range node.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func boolAttr(node *xmlquery.Node, name string, def bool) (bool, error) {
	raw, ok := attr(node, name)
	if !ok {
		return def, nil
	}
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, errors.Errorf("attribute %s has invalid boolean value '%s'", name, raw)
	}
}

func optionalInt(node *xmlquery.Node, name string) (*int64, error) {
	raw, ok := attr(node, name)
	if !ok {
		return nil, nil
	}
	value, err := strconv.ParseInt(raw, 0, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "attribute %s", name)
	}
	return &value, nil
}
