package domain

// SeedFile describes nodes and edges to load in bulk. Edges reference nodes
// by name because server ids are unknown until the nodes exist.
type SeedFile struct {
	Nodes []string   `json:"nodes" yaml:"nodes"`
	Edges []SeedEdge `json:"edges" yaml:"edges"`
}

// SeedEdge is a directed edge between two named nodes
type SeedEdge struct {
	Src    string  `json:"src" yaml:"src"`
	Dst    string  `json:"dst" yaml:"dst"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// NewSeedFile creates an empty seed file
func NewSeedFile() *SeedFile {
	return &SeedFile{
		Nodes: make([]string, 0),
		Edges: make([]SeedEdge, 0),
	}
}

// AddNode appends a node name
func (f *SeedFile) AddNode(name string) {
	f.Nodes = append(f.Nodes, name)
}

// AddEdge appends an edge
func (f *SeedFile) AddEdge(edge SeedEdge) {
	f.Edges = append(f.Edges, edge)
}

// SeedFromSnapshot converts a snapshot into a seed file, resolving edge
// endpoints to names
func SeedFromSnapshot(s *Snapshot) *SeedFile {
	f := NewSeedFile()
	if s == nil {
		return f
	}
	for _, n := range s.Nodes {
		f.AddNode(n.Name)
	}
	for _, e := range s.Edges {
		f.AddEdge(SeedEdge{
			Src:    s.NodeName(e.SrcID),
			Dst:    s.NodeName(e.DstID),
			Weight: e.Weight,
		})
	}
	return f
}
