// Package discovery runs the introspection pipeline against the platform
// session, reconciles overlapping listings into entity collections, and
// produces the visualization graph.
package discovery

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/snowscape/core/internal/models"
	"github.com/snowscape/core/internal/parser"
	"github.com/snowscape/core/internal/snowflake"
)

// RowSource executes one introspection command and returns its rows.
// *snowflake.Session satisfies it; tests substitute fakes.
type RowSource interface {
	Execute(ctx context.Context, query string) ([]snowflake.Row, error)
}

// Explorer fetches managed-infrastructure entities and assembles them into
// a graph. Every call recomputes from live queries; nothing is cached.
// Queries run strictly sequentially because later steps depend on earlier
// results.
type Explorer struct {
	src RowSource
	log *slog.Logger
}

// New builds an Explorer over the given row source. A nil logger falls back
// to slog.Default.
func New(src RowSource, logger *slog.Logger) *Explorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Explorer{src: src, log: logger}
}

// ComputePools lists all compute pools. A query failure is fatal here:
// the pool listing is the first required step of every pipeline.
func (e *Explorer) ComputePools(ctx context.Context) ([]models.ComputePool, error) {
	rows, err := e.src.Execute(ctx, "SHOW COMPUTE POOLS")
	if err != nil {
		return nil, fmt.Errorf("listing compute pools: %w", err)
	}
	pools := make([]models.ComputePool, 0, len(rows))
	for _, row := range rows {
		pools = append(pools, parser.ParseComputePool(row))
	}
	return pools, nil
}

// Notebooks lists all notebooks.
func (e *Explorer) Notebooks(ctx context.Context) ([]models.Notebook, error) {
	rows, err := e.src.Execute(ctx, "SHOW NOTEBOOKS")
	if err != nil {
		return nil, fmt.Errorf("listing notebooks: %w", err)
	}
	notebooks := make([]models.Notebook, 0, len(rows))
	for _, row := range rows {
		notebooks = append(notebooks, parser.ParseNotebook(row))
	}
	return notebooks, nil
}

// Integrations lists all external access integrations.
func (e *Explorer) Integrations(ctx context.Context) ([]models.ExternalAccessIntegration, error) {
	rows, err := e.src.Execute(ctx, "SHOW EXTERNAL ACCESS INTEGRATIONS")
	if err != nil {
		return nil, fmt.Errorf("listing external access integrations: %w", err)
	}
	integrations := make([]models.ExternalAccessIntegration, 0, len(rows))
	for _, row := range rows {
		integrations = append(integrations, parser.ParseIntegration(row))
	}
	return integrations, nil
}

// Services returns the reconciled service collection. The pool listing is
// a prerequisite (the per-pool pass iterates it) and its failure is the
// only error this method surfaces; the discovery passes themselves degrade
// to whatever the other pass produced.
func (e *Explorer) Services(ctx context.Context) ([]models.Service, error) {
	pools, err := e.ComputePools(ctx)
	if err != nil {
		return nil, err
	}
	return e.reconcileServices(ctx, pools), nil
}

// reconcileServices merges two listings of the same services. The flat
// SHOW SERVICES pass runs first; then one pool-scoped pass per compute pool
// overwrites by qualified name. The pool-scoped listing is authoritative
// for the pool binding because the query itself is scoped to the pool, so
// last write wins on conflict. A failed pass contributes nothing and is
// only logged; an empty result means no services, not an error.
func (e *Explorer) reconcileServices(ctx context.Context, pools []models.ComputePool) []models.Service {
	merged := []models.Service{}
	index := map[string]int{}
	insert := func(svc models.Service) {
		key := svc.QualifiedName()
		if i, ok := index[key]; ok {
			merged[i] = svc
			return
		}
		index[key] = len(merged)
		merged = append(merged, svc)
	}

	rows, err := e.src.Execute(ctx, "SHOW SERVICES")
	if err != nil {
		e.log.Warn("flat service listing failed, relying on pool-scoped listings", "error", err)
	} else {
		for _, row := range rows {
			insert(e.parseService(ctx, row, ""))
		}
	}

	for _, pool := range pools {
		rows, err := e.src.Execute(ctx, "SHOW SERVICES IN COMPUTE POOL "+pool.Name)
		if err != nil {
			e.log.Warn("pool-scoped service listing failed", "computePool", pool.Name, "error", err)
			continue
		}
		for _, row := range rows {
			insert(e.parseService(ctx, row, pool.Name))
		}
	}

	return merged
}

// parseService parses one service row and resolves its integration
// references. A non-empty pool overrides whatever binding the row reports.
func (e *Explorer) parseService(ctx context.Context, row snowflake.Row, pool string) models.Service {
	svc := parser.ParseService(row)
	if pool != "" {
		svc.ComputePool = pool
	}
	svc.ExternalAccessIntegrations = e.serviceIntegrations(ctx, svc)
	return svc
}

// serviceIntegrations runs the describe query for one service and extracts
// its declared integrations. One malformed or unreachable service must not
// block listing the rest, so failures degrade to an empty list.
func (e *Explorer) serviceIntegrations(ctx context.Context, svc models.Service) []string {
	fqn := svc.QualifiedName()
	rows, err := e.src.Execute(ctx, "DESCRIBE SERVICE "+fqn)
	if err != nil {
		e.log.Warn("describe service failed", "service", fqn, "error", err)
		return []string{}
	}
	return parser.ServiceIntegrations(rows)
}

// Graph runs the full pipeline and assembles the graph. Only the pool
// listing failure is fatal; a failed notebook or integration listing is
// logged and contributes an empty collection, and dropped edges are logged
// with the missing reference.
func (e *Explorer) Graph(ctx context.Context) (*models.GraphData, error) {
	pools, err := e.ComputePools(ctx)
	if err != nil {
		return nil, err
	}

	services := e.reconcileServices(ctx, pools)

	notebooks, err := e.Notebooks(ctx)
	if err != nil {
		e.log.Warn("notebook listing failed, omitting notebooks from graph", "error", err)
		notebooks = []models.Notebook{}
	}

	integrations, err := e.Integrations(ctx)
	if err != nil {
		e.log.Warn("integration listing failed, omitting integrations from graph", "error", err)
		integrations = []models.ExternalAccessIntegration{}
	}

	graph, warnings := parser.BuildGraph(pools, services, notebooks, integrations)
	for _, warning := range warnings {
		e.log.Warn("dropped graph edge", "reason", warning)
	}
	return graph, nil
}
