package input

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/teranos/bulkgraph/errors"
	"github.com/teranos/bulkgraph/idmapping"
)

// Header columns with a special meaning. Every other column becomes a string property.
const (
	ColumnID      = ":ID"
	ColumnLabel   = ":LABEL"
	ColumnStartID = ":START_ID"
	ColumnEndID   = ":END_ID"
	ColumnType    = ":TYPE"
)

// LabelSeparator splits multiple labels in one :LABEL cell
const LabelSeparator = ";"

// ID types of NewCSVInput
const (
	IDTypeActual = "actual"
	IDTypeString = "string"
)

// NewCSVInput reads nodes and relationships from two header-driven CSV files.
// With IDTypeActual the ids are numeric and used as record ids; with IDTypeString they are
// arbitrary strings and record ids are generated.
func NewCSVInput(nodesPath, relationshipsPath, idType string) (Input, error) {
	var (
		mapper    idmapping.IdMapper
		generator idmapping.IdGenerator
		parseID   func(string) (any, error)
	)
	switch idType {
	case IDTypeActual, "":
		mapper, generator = idmapping.Actual(), idmapping.ActualIds()
		parseID = func(s string) (any, error) {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "id %q is not numeric", s)
			}
			return n, nil
		}
	case IDTypeString:
		mapper, generator = idmapping.Strings(), idmapping.Incremental()
		parseID = func(s string) (any, error) { return s, nil }
	default:
		return Input{}, errors.Newf("unknown id type %q", idType)
	}

	return Input{
		Nodes: &csvIterable[InputNode]{
			path:     nodesPath,
			required: []string{ColumnID},
			decode:   nodeDecoder(parseID),
		},
		Relationships: &csvIterable[InputRelationship]{
			path:     relationshipsPath,
			required: []string{ColumnStartID, ColumnEndID, ColumnType},
			decode:   relationshipDecoder(parseID),
		},
		IdMapper:    mapper,
		IdGenerator: generator,
	}, nil
}

type header map[string]int

func (h header) cell(row []string, column string) string {
	if i, ok := h[column]; ok && i < len(row) {
		return row[i]
	}
	return ""
}

func (h header) properties(names []string, row []string) []Property {
	var props []Property
	for i, name := range names {
		if strings.HasPrefix(name, ":") || i >= len(row) || row[i] == "" {
			continue
		}
		props = append(props, Property{Key: name, Value: row[i]})
	}
	return props
}

type csvIterable[T any] struct {
	path     string
	required []string
	decode   func(h header, names, row []string) (T, error)
}

func (c *csvIterable[T]) Iterator() (Iterator[T], error) {
	f, err := os.Open(c.path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", c.path)
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.ReuseRecord = false

	names, err := r.Read()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to read header of %s", c.path)
	}
	h := header{}
	for i, name := range names {
		names[i] = strings.TrimSpace(name)
		h[names[i]] = i
	}
	for _, column := range c.required {
		if _, ok := h[column]; !ok {
			f.Close()
			return nil, errors.Newf("%s: missing %s column", c.path, column)
		}
	}

	return &csvIterator[T]{file: f, reader: r, header: h, names: names, decode: c.decode, path: c.path}, nil
}

type csvIterator[T any] struct {
	file   *os.File
	reader *csv.Reader
	header header
	names  []string
	decode func(h header, names, row []string) (T, error)
	path   string
	closed bool
}

func (it *csvIterator[T]) Next() (T, bool, error) {
	var zero T
	row, err := it.reader.Read()
	if err == io.EOF {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, errors.Wrapf(err, "failed to read %s", it.path)
	}
	item, err := it.decode(it.header, it.names, row)
	if err != nil {
		line, _ := it.reader.FieldPos(0)
		return zero, false, errors.Wrapf(err, "%s:%d", it.path, line)
	}
	return item, true, nil
}

func (it *csvIterator[T]) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	return it.file.Close()
}

func nodeDecoder(parseID func(string) (any, error)) func(header, []string, []string) (InputNode, error) {
	return func(h header, names, row []string) (InputNode, error) {
		id, err := parseID(h.cell(row, ColumnID))
		if err != nil {
			return InputNode{}, err
		}
		var labels []string
		for _, label := range strings.Split(h.cell(row, ColumnLabel), LabelSeparator) {
			if label = strings.TrimSpace(label); label != "" {
				labels = append(labels, label)
			}
		}
		return InputNode{ID: id, Labels: labels, Properties: h.properties(names, row)}, nil
	}
}

func relationshipDecoder(parseID func(string) (any, error)) func(header, []string, []string) (InputRelationship, error) {
	return func(h header, names, row []string) (InputRelationship, error) {
		start, err := parseID(h.cell(row, ColumnStartID))
		if err != nil {
			return InputRelationship{}, err
		}
		end, err := parseID(h.cell(row, ColumnEndID))
		if err != nil {
			return InputRelationship{}, err
		}
		relType := h.cell(row, ColumnType)
		if relType == "" {
			return InputRelationship{}, errors.New("empty relationship type")
		}
		return InputRelationship{
			StartNode:  start,
			EndNode:    end,
			Type:       relType,
			Properties: h.properties(names, row),
		}, nil
	}
}
