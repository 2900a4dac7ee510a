// Package models defines the core data structures exchanged between the
// discovery pipeline and the HTTP layer: entity records and graph shapes.
package models

// Node type tags as the visualization front end expects them.
const (
	NodeComputePool = "computePool"
	NodeService     = "service"
	NodeNotebook    = "notebook"
	NodeEAI         = "eai"
)

type GraphData struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

type GraphNode struct {
	ID   string         `json:"id"`
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type GraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}
