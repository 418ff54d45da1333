package codec

import (
	"fmt"
	"strings"

	"pathfinder/internal/domain"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// document is the on-disk shape shared by seed files and exports. Exports
// carry ids alongside names; imports only need the names.
type document struct {
	Nodes []docNode `json:"nodes" yaml:"nodes"`
	Edges []docEdge `json:"edges" yaml:"edges"`
}

// docNode is written as {id, name} and read from either a bare name or an
// object with a name
type docNode struct {
	ID   int64  `json:"id,omitempty" yaml:"id,omitempty"`
	Name string `json:"name" yaml:"name" validate:"required"`
}

type docEdge struct {
	ID     int64   `json:"id,omitempty" yaml:"id,omitempty"`
	SrcID  int64   `json:"src_id,omitempty" yaml:"src_id,omitempty"`
	DstID  int64   `json:"dst_id,omitempty" yaml:"dst_id,omitempty"`
	Src    string  `json:"src" yaml:"src" validate:"required"`
	Dst    string  `json:"dst" yaml:"dst" validate:"required"`
	Weight float64 `json:"weight" yaml:"weight"`
}

func fromSnapshot(snap *domain.Snapshot) document {
	doc := document{
		Nodes: make([]docNode, 0),
		Edges: make([]docEdge, 0),
	}
	if snap == nil {
		return doc
	}
	for _, n := range snap.Nodes {
		doc.Nodes = append(doc.Nodes, docNode{ID: n.ID, Name: n.Name})
	}
	for _, e := range snap.Edges {
		doc.Edges = append(doc.Edges, docEdge{
			ID:     e.ID,
			SrcID:  e.SrcID,
			DstID:  e.DstID,
			Src:    snap.NodeName(e.SrcID),
			Dst:    snap.NodeName(e.DstID),
			Weight: e.Weight,
		})
	}
	return doc
}

func (d document) toSeed() (*domain.SeedFile, error) {
	seed := domain.NewSeedFile()
	for i, n := range d.Nodes {
		n.Name = strings.TrimSpace(n.Name)
		if err := validate.Struct(n); err != nil {
			return nil, fmt.Errorf("node %d: name is required", i+1)
		}
		seed.AddNode(n.Name)
	}
	for i, e := range d.Edges {
		e.Src, e.Dst = strings.TrimSpace(e.Src), strings.TrimSpace(e.Dst)
		if err := validate.Struct(e); err != nil {
			return nil, fmt.Errorf("edge %d: src and dst names are required", i+1)
		}
		seed.AddEdge(domain.SeedEdge{Src: e.Src, Dst: e.Dst, Weight: e.Weight})
	}
	return seed, nil
}
