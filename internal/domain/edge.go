package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Edge is a directed, weighted connection from SrcID to DstID.
type Edge struct {
	ID     int64   `json:"id" yaml:"id"`
	SrcID  int64   `json:"src_id" yaml:"src_id"`
	DstID  int64   `json:"dst_id" yaml:"dst_id"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// References reports whether the edge has nodeID as either endpoint.
func (e Edge) References(nodeID int64) bool {
	return e.SrcID == nodeID || e.DstID == nodeID
}

// ParseWeight parses a user-supplied edge weight.
// The sign is not checked here; the backend decides whether negative or zero
// weights are acceptable. NaN and infinities are rejected because they cannot
// be sent as JSON numbers.
func ParseWeight(raw string) (float64, error) {
	w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, NewError(KindValidation, fmt.Sprintf("weight %q is not a number", raw))
	}
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, NewError(KindValidation, fmt.Sprintf("weight %q is not a finite number", raw))
	}
	return w, nil
}
