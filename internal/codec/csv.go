package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pathfinder/internal/domain"
)

// File names LoadCSVDir reads, as laid out by the backend's seed data
const (
	NodesCSV = "nodes.csv"
	EdgesCSV = "edges.csv"
)

// CSVCodec imports seed data from CSV. A file with a name column lists
// nodes; a file with src_name, dst_name and weight columns lists edges.
type CSVCodec struct{}

// NewCSVCodec creates a new CSV codec
func NewCSVCodec() *CSVCodec {
	return &CSVCodec{}
}

// Format returns the codec format identifier
func (c *CSVCodec) Format() string {
	return "csv"
}

// Parse reads a nodes or edges CSV, picked by its header
func (c *CSVCodec) Parse(r io.Reader) (*domain.SeedFile, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.NewSeedFile(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	seed := domain.NewSeedFile()
	if _, ok := cols["name"]; ok {
		err = readNodes(reader, cols, seed)
	} else {
		err = readEdges(reader, cols, seed)
	}
	if err != nil {
		return nil, err
	}
	return seed, nil
}

func readNodes(reader *csv.Reader, cols map[string]int, seed *domain.SeedFile) error {
	return eachRow(reader, cols, func(line int, field func(string) string) error {
		name := field("name")
		if name == "" {
			return fmt.Errorf("line %d: name is required", line)
		}
		seed.AddNode(name)
		return nil
	})
}

func readEdges(reader *csv.Reader, cols map[string]int, seed *domain.SeedFile) error {
	for _, c := range []string{"src_name", "dst_name", "weight"} {
		if _, ok := cols[c]; !ok {
			return fmt.Errorf("CSV header needs a name column or src_name, dst_name and weight columns; missing %s", c)
		}
	}

	return eachRow(reader, cols, func(line int, field func(string) string) error {
		src, dst := field("src_name"), field("dst_name")
		if src == "" || dst == "" {
			return fmt.Errorf("line %d: src_name and dst_name are required", line)
		}
		weight, err := strconv.ParseFloat(field("weight"), 64)
		if err != nil {
			return fmt.Errorf("line %d: weight %q is not a number", line, field("weight"))
		}
		seed.AddEdge(domain.SeedEdge{Src: src, Dst: dst, Weight: weight})
		return nil
	})
}

// eachRow calls fn for every record, with field returning a trimmed column
// value or "" when the record is short
func eachRow(reader *csv.Reader, cols map[string]int, fn func(line int, field func(string) string) error) error {
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to parse CSV: %w", err)
		}
		line, _ := reader.FieldPos(0)

		field := func(name string) string {
			i := cols[name]
			if i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		if err := fn(line, field); err != nil {
			return err
		}
	}
}

// LoadCSVDir reads nodes.csv and edges.csv from dir into one seed file
func LoadCSVDir(dir string) (*domain.SeedFile, error) {
	seed := domain.NewSeedFile()
	c := NewCSVCodec()

	for _, name := range []string{NodesCSV, EdgesCSV} {
		part, err := parseCSVFile(c, filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		for _, n := range part.Nodes {
			seed.AddNode(n)
		}
		for _, e := range part.Edges {
			seed.AddEdge(e)
		}
	}
	return seed, nil
}

func parseCSVFile(c *CSVCodec, path string) (*domain.SeedFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seed, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return seed, nil
}
