// Package parser converts raw introspection rows into typed entities and
// assembles entity collections into the graph served for visualization.
package parser

import (
	"fmt"

	"github.com/snowscape/core/internal/models"
)

// BuildGraph composes the entity collections into the node/edge graph.
// Nodes are emitted in a fixed order (pools, integrations, services with
// their edges, notebooks) and ids are deterministic functions of entity
// identity, so unchanged inputs produce an identical graph. An edge is
// emitted only when both endpoints exist as nodes; each dropped edge is
// reported as a warning naming the missing reference. Construction itself
// always succeeds.
func BuildGraph(
	pools []models.ComputePool,
	services []models.Service,
	notebooks []models.Notebook,
	integrations []models.ExternalAccessIntegration,
) (*models.GraphData, []string) {
	graph := &models.GraphData{
		Nodes: []models.GraphNode{},
		Edges: []models.GraphEdge{},
	}
	var warnings []string

	poolNames := make(map[string]bool, len(pools))
	for _, cp := range pools {
		poolNames[cp.Name] = true
		graph.Nodes = append(graph.Nodes, models.GraphNode{
			ID:   "cp-" + cp.Name,
			Type: models.NodeComputePool,
			Data: map[string]any{
				"name":           cp.Name,
				"state":          cp.State,
				"minNodes":       cp.MinNodes,
				"maxNodes":       cp.MaxNodes,
				"instanceFamily": cp.InstanceFamily,
				"owner":          cp.Owner,
			},
		})
	}

	eaiNames := make(map[string]bool, len(integrations))
	for _, eai := range integrations {
		eaiNames[eai.Name] = true
		graph.Nodes = append(graph.Nodes, models.GraphNode{
			ID:   "eai-" + eai.Name,
			Type: models.NodeEAI,
			Data: map[string]any{
				"name":    eai.Name,
				"type":    eai.Type,
				"enabled": eai.Enabled,
			},
		})
	}

	for _, svc := range services {
		fqn := svc.QualifiedName()
		nodeID := "svc-" + fqn

		eaiList := svc.ExternalAccessIntegrations
		if eaiList == nil {
			eaiList = []string{}
		}
		graph.Nodes = append(graph.Nodes, models.GraphNode{
			ID:   nodeID,
			Type: models.NodeService,
			Data: map[string]any{
				"name":             svc.Name,
				"database":         svc.DatabaseName,
				"schema":           svc.SchemaName,
				"owner":            svc.Owner,
				"computePool":      svc.ComputePool,
				"status":           svc.Status,
				"currentInstances": svc.CurrentInstances,
				"targetInstances":  svc.TargetInstances,
				"eaiList":          eaiList,
			},
		})

		if svc.ComputePool != "" {
			if poolNames[svc.ComputePool] {
				graph.Edges = append(graph.Edges, models.GraphEdge{
					ID:     "e-svc-cp-" + fqn,
					Source: nodeID,
					Target: "cp-" + svc.ComputePool,
					Label:  "runs on",
				})
			} else {
				warnings = append(warnings, fmt.Sprintf(
					"service %s references unknown compute pool %q", fqn, svc.ComputePool))
			}
		}

		for _, name := range svc.ExternalAccessIntegrations {
			if eaiNames[name] {
				graph.Edges = append(graph.Edges, models.GraphEdge{
					ID:     "e-svc-eai-" + fqn + "-" + name,
					Source: nodeID,
					Target: "eai-" + name,
					Label:  "uses",
				})
			} else {
				warnings = append(warnings, fmt.Sprintf(
					"service %s references unknown external access integration %q", fqn, name))
			}
		}
	}

	// Notebooks are standalone for now: the discovery commands expose no
	// reliable link from a notebook to a service or pool.
	for _, nb := range notebooks {
		graph.Nodes = append(graph.Nodes, models.GraphNode{
			ID:   "nb-" + nb.QualifiedName(),
			Type: models.NodeNotebook,
			Data: map[string]any{
				"name":        nb.Name,
				"database":    nb.DatabaseName,
				"schema":      nb.SchemaName,
				"owner":       nb.Owner,
				"warehouse":   nb.QueryWarehouse,
				"idleTimeout": nb.IdleAutoShutdownTimeSeconds,
			},
		})
	}

	return graph, warnings
}
