package swc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ErrMalformedLine is returned when a data line does not have exactly seven
// fields, or has a non-finite coordinate or a negative radius
var ErrMalformedLine = errors.New("swc: malformed line")

// fieldsPerLine is the number of columns of an SWC data line
const fieldsPerLine = 7

// ParseError reports the line that aborted a load
type ParseError struct {
	Line int    // 1-based line number
	Text string // Offending line, trimmed
	Err  error  // ErrMalformedLine or the strconv error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("swc: line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Model is an immutable, id-sorted set of morphology nodes
type Model struct {
	nodes []Node
}

// NewModel builds a model from nodes in any order
func NewModel(nodes []Node) *Model {
	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	// stable so duplicate ids resolve to the first one in input order
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	return &Model{nodes: sorted}
}

// Load reads an SWC file
func Load(path string) (*Model, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SWC file: %w", err)
	}
	defer file.Close()

	return Parse(file)
}

// LoadFile replaces the model contents with the nodes in path.
// On failure the model keeps its previous contents.
func (m *Model) LoadFile(path string) error {
	loaded, err := Load(path)
	if err != nil {
		return err
	}
	m.nodes = loaded.nodes
	return nil
}

// Parse reads SWC records from r. Any malformed data line fails the whole parse.
func Parse(r io.Reader) (*Model, error) {
	var nodes []Node

	scanner := bufio.NewScanner(r)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		node, err := parseLine(line)
		if err != nil {
			return nil, &ParseError{Line: lineNumber, Text: line, Err: err}
		}
		nodes = append(nodes, node)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read SWC data: %w", err)
	}

	return NewModel(nodes), nil
}

// parseLine decodes "id type x y z radius parent"
func parseLine(line string) (Node, error) {
	fields := strings.Fields(line)
	if len(fields) != fieldsPerLine {
		return Node{}, fmt.Errorf("%w: expected %d fields, got %d", ErrMalformedLine, fieldsPerLine, len(fields))
	}

	var ints [3]int64
	for i, idx := range [3]int{0, 1, 6} {
		v, err := strconv.ParseInt(fields[idx], 10, 32)
		if err != nil {
			return Node{}, err
		}
		ints[i] = v
	}
	if ints[1] < 0 || ints[1] > 255 {
		return Node{}, fmt.Errorf("%w: type %d out of range", ErrMalformedLine, ints[1])
	}

	var floats [4]float32
	for i := range floats {
		v, err := strconv.ParseFloat(fields[2+i], 32)
		if err != nil {
			return Node{}, err
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Node{}, fmt.Errorf("%w: field %d is not finite", ErrMalformedLine, 3+i)
		}
		floats[i] = float32(v)
	}
	if floats[3] < 0 {
		return Node{}, fmt.Errorf("%w: negative radius %g", ErrMalformedLine, floats[3])
	}

	node := Node{
		ID:     int32(ints[0]),
		Type:   Type(ints[1]),
		Radius: floats[3],
		Parent: int32(ints[2]),
	}
	node.Position.X = floats[0]
	node.Position.Y = floats[1]
	node.Position.Z = floats[2]
	return node, nil
}

// NodeCount returns the number of loaded nodes
func (m *Model) NodeCount() int {
	return len(m.nodes)
}

// FindNode looks up a node by id
func (m *Model) FindNode(id int32) (Node, bool) {
	i := sort.Search(len(m.nodes), func(i int) bool {
		return m.nodes[i].ID >= id
	})
	if i < len(m.nodes) && m.nodes[i].ID == id {
		return m.nodes[i], true
	}
	return Node{}, false
}

// Nodes returns the nodes sorted by id. The slice must not be modified.
func (m *Model) Nodes() []Node {
	return m.nodes
}

// Write serialises the model as SWC text. Floats use the shortest
// representation that parses back to the same float32.
func (m *Model) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, n := range m.nodes {
		_, err := fmt.Fprintf(bw, "%d %d %s %s %s %s %d\n",
			n.ID, uint8(n.Type),
			formatFloat(n.Position.X), formatFloat(n.Position.Y), formatFloat(n.Position.Z),
			formatFloat(n.Radius), n.Parent)
		if err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}
