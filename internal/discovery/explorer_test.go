// Package discovery runs the introspection pipeline against the platform
// session, reconciles overlapping listings into entity collections, and
// produces the visualization graph.
package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/snowscape/core/internal/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource answers queries from canned results and records the order in
// which they were issued.
type fakeSource struct {
	results map[string][]snowflake.Row
	errs    map[string]error
	queries []string
}

func (f *fakeSource) Execute(_ context.Context, query string) ([]snowflake.Row, error) {
	f.queries = append(f.queries, query)
	if err := f.errs[query]; err != nil {
		return nil, err
	}
	return f.results[query], nil
}

func poolRow(name string) snowflake.Row {
	return snowflake.RowOf(map[string]any{
		"name":            name,
		"state":           "ACTIVE",
		"min_nodes":       int64(1),
		"max_nodes":       int64(3),
		"instance_family": "CPU_X64_XS",
		"owner":           "ACCOUNTADMIN",
	})
}

func serviceRow(db, schema, name, pool string) snowflake.Row {
	return snowflake.RowOf(map[string]any{
		"name":          name,
		"database_name": db,
		"schema_name":   schema,
		"owner":         "ROLE1",
		"compute_pool":  pool,
		"status":        "RUNNING",
	})
}

func TestComputePools(t *testing.T) {
	t.Run("parses every row", func(t *testing.T) {
		src := &fakeSource{results: map[string][]snowflake.Row{
			"SHOW COMPUTE POOLS": {poolRow("POOL1"), poolRow("POOL2")},
		}}

		pools, err := New(src, nil).ComputePools(context.Background())

		require.NoError(t, err)
		require.Len(t, pools, 2)
		assert.Equal(t, "POOL1", pools[0].Name)
		assert.Equal(t, "POOL2", pools[1].Name)
	})

	t.Run("propagates a listing failure", func(t *testing.T) {
		src := &fakeSource{errs: map[string]error{
			"SHOW COMPUTE POOLS": errors.New("permission denied"),
		}}

		_, err := New(src, nil).ComputePools(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing compute pools")
	})

	t.Run("no pools is an empty collection, not an error", func(t *testing.T) {
		src := &fakeSource{results: map[string][]snowflake.Row{}}

		pools, err := New(src, nil).ComputePools(context.Background())

		require.NoError(t, err)
		assert.NotNil(t, pools)
		assert.Empty(t, pools)
	})
}

func TestServices(t *testing.T) {
	t.Run("pool-scoped listing overrides the flat pool binding", func(t *testing.T) {
		src := &fakeSource{results: map[string][]snowflake.Row{
			"SHOW COMPUTE POOLS": {poolRow("POOL1")},
			"SHOW SERVICES":      {serviceRow("DB", "SCH", "SVC1", "STALE_POOL")},
			"SHOW SERVICES IN COMPUTE POOL POOL1": {
				serviceRow("DB", "SCH", "SVC1", "ignored"),
			},
		}}

		services, err := New(src, nil).Services(context.Background())

		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, "DB.SCH.SVC1", services[0].QualifiedName())
		assert.Equal(t, "POOL1", services[0].ComputePool)
	})

	t.Run("flat listing failure degrades to pool-scoped results", func(t *testing.T) {
		src := &fakeSource{
			results: map[string][]snowflake.Row{
				"SHOW COMPUTE POOLS": {poolRow("POOL1")},
				"SHOW SERVICES IN COMPUTE POOL POOL1": {
					serviceRow("DB", "SCH", "SVC1", ""),
				},
			},
			errs: map[string]error{
				"SHOW SERVICES": errors.New("timeout"),
			},
		}

		services, err := New(src, nil).Services(context.Background())

		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, "POOL1", services[0].ComputePool)
	})

	t.Run("pool-scoped failure keeps the flat results", func(t *testing.T) {
		src := &fakeSource{
			results: map[string][]snowflake.Row{
				"SHOW COMPUTE POOLS": {poolRow("POOL1")},
				"SHOW SERVICES":      {serviceRow("DB", "SCH", "SVC1", "POOL1")},
			},
			errs: map[string]error{
				"SHOW SERVICES IN COMPUTE POOL POOL1": errors.New("timeout"),
			},
		}

		services, err := New(src, nil).Services(context.Background())

		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, "POOL1", services[0].ComputePool)
	})

	t.Run("pool listing failure is fatal", func(t *testing.T) {
		src := &fakeSource{errs: map[string]error{
			"SHOW COMPUTE POOLS": errors.New("permission denied"),
		}}

		_, err := New(src, nil).Services(context.Background())

		require.Error(t, err)
	})

	t.Run("services unique to either pass are all present", func(t *testing.T) {
		src := &fakeSource{results: map[string][]snowflake.Row{
			"SHOW COMPUTE POOLS": {poolRow("POOL1")},
			"SHOW SERVICES":      {serviceRow("DB", "SCH", "FLAT_ONLY", "POOL9")},
			"SHOW SERVICES IN COMPUTE POOL POOL1": {
				serviceRow("DB", "SCH", "SCOPED_ONLY", ""),
			},
		}}

		services, err := New(src, nil).Services(context.Background())

		require.NoError(t, err)
		require.Len(t, services, 2)
		assert.Equal(t, "FLAT_ONLY", services[0].Name)
		assert.Equal(t, "POOL9", services[0].ComputePool)
		assert.Equal(t, "SCOPED_ONLY", services[1].Name)
		assert.Equal(t, "POOL1", services[1].ComputePool)
	})

	t.Run("integration references come from the describe query", func(t *testing.T) {
		src := &fakeSource{results: map[string][]snowflake.Row{
			"SHOW COMPUTE POOLS": {poolRow("POOL1")},
			"SHOW SERVICES":      {serviceRow("DB", "SCH", "SVC1", "POOL1")},
			"SHOW SERVICES IN COMPUTE POOL POOL1": {
				serviceRow("DB", "SCH", "SVC1", ""),
			},
			"DESCRIBE SERVICE DB.SCH.SVC1": {
				snowflake.RowOf(map[string]any{
					"spec": "EXTERNAL_ACCESS_INTEGRATIONS: [EAI1, EAI2]",
				}),
			},
		}}

		services, err := New(src, nil).Services(context.Background())

		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.Equal(t, []string{"EAI1", "EAI2"}, services[0].ExternalAccessIntegrations)
	})

	t.Run("describe failure yields an empty integration list", func(t *testing.T) {
		src := &fakeSource{
			results: map[string][]snowflake.Row{
				"SHOW COMPUTE POOLS": {poolRow("POOL1")},
				"SHOW SERVICES":      {serviceRow("DB", "SCH", "SVC1", "POOL1")},
			},
			errs: map[string]error{
				"DESCRIBE SERVICE DB.SCH.SVC1":        errors.New("describe denied"),
				"SHOW SERVICES IN COMPUTE POOL POOL1": errors.New("timeout"),
			},
		}

		services, err := New(src, nil).Services(context.Background())

		require.NoError(t, err)
		require.Len(t, services, 1)
		assert.NotNil(t, services[0].ExternalAccessIntegrations)
		assert.Empty(t, services[0].ExternalAccessIntegrations)
	})

	t.Run("no services anywhere is an empty collection", func(t *testing.T) {
		src := &fakeSource{results: map[string][]snowflake.Row{
			"SHOW COMPUTE POOLS": {poolRow("POOL1")},
		}}

		services, err := New(src, nil).Services(context.Background())

		require.NoError(t, err)
		assert.NotNil(t, services)
		assert.Empty(t, services)
	})
}

func TestGraph(t *testing.T) {
	t.Run("assembles nodes and edges end to end", func(t *testing.T) {
		src := &fakeSource{results: map[string][]snowflake.Row{
			"SHOW COMPUTE POOLS": {poolRow("POOL1")},
			"SHOW SERVICES":      {serviceRow("DB", "SCH", "SVC1", "POOL1")},
			"SHOW SERVICES IN COMPUTE POOL POOL1": {
				serviceRow("DB", "SCH", "SVC1", ""),
			},
			"DESCRIBE SERVICE DB.SCH.SVC1": {
				snowflake.RowOf(map[string]any{
					"spec": "EXTERNAL_ACCESS_INTEGRATIONS: [EAI1]",
				}),
			},
			"SHOW EXTERNAL ACCESS INTEGRATIONS": {
				snowflake.RowOf(map[string]any{"name": "EAI1", "type": "EXTERNAL_ACCESS", "enabled": "true"}),
			},
		}}

		graph, err := New(src, nil).Graph(context.Background())

		require.NoError(t, err)
		require.Len(t, graph.Nodes, 3)
		assert.Equal(t, "cp-POOL1", graph.Nodes[0].ID)
		assert.Equal(t, "eai-EAI1", graph.Nodes[1].ID)
		assert.Equal(t, "svc-DB.SCH.SVC1", graph.Nodes[2].ID)
		require.Len(t, graph.Edges, 2)
		assert.Equal(t, "runs on", graph.Edges[0].Label)
		assert.Equal(t, "uses", graph.Edges[1].Label)
	})

	t.Run("pool listing failure is fatal", func(t *testing.T) {
		src := &fakeSource{errs: map[string]error{
			"SHOW COMPUTE POOLS": errors.New("permission denied"),
		}}

		_, err := New(src, nil).Graph(context.Background())

		require.Error(t, err)
	})

	t.Run("notebook and integration listing failures are absorbed", func(t *testing.T) {
		src := &fakeSource{
			results: map[string][]snowflake.Row{
				"SHOW COMPUTE POOLS": {poolRow("POOL1")},
			},
			errs: map[string]error{
				"SHOW NOTEBOOKS":                    errors.New("unavailable"),
				"SHOW EXTERNAL ACCESS INTEGRATIONS": errors.New("unavailable"),
			},
		}

		graph, err := New(src, nil).Graph(context.Background())

		require.NoError(t, err)
		require.Len(t, graph.Nodes, 1)
		assert.Equal(t, "cp-POOL1", graph.Nodes[0].ID)
	})

	t.Run("queries run in pipeline order", func(t *testing.T) {
		src := &fakeSource{results: map[string][]snowflake.Row{
			"SHOW COMPUTE POOLS": {poolRow("POOL1")},
		}}

		_, err := New(src, nil).Graph(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{
			"SHOW COMPUTE POOLS",
			"SHOW SERVICES",
			"SHOW SERVICES IN COMPUTE POOL POOL1",
			"SHOW NOTEBOOKS",
			"SHOW EXTERNAL ACCESS INTEGRATIONS",
		}, src.queries)
	})
}

func TestNotebooks(t *testing.T) {
	t.Run("parses every row", func(t *testing.T) {
		src := &fakeSource{results: map[string][]snowflake.Row{
			"SHOW NOTEBOOKS": {
				snowflake.RowOf(map[string]any{
					"name": "NB1", "database_name": "DB", "schema_name": "SCH",
				}),
			},
		}}

		notebooks, err := New(src, nil).Notebooks(context.Background())

		require.NoError(t, err)
		require.Len(t, notebooks, 1)
		assert.Equal(t, "DB.SCH.NB1", notebooks[0].QualifiedName())
	})

	t.Run("propagates a listing failure", func(t *testing.T) {
		src := &fakeSource{errs: map[string]error{
			"SHOW NOTEBOOKS": errors.New("unavailable"),
		}}

		_, err := New(src, nil).Notebooks(context.Background())

		require.Error(t, err)
	})
}

func TestIntegrations(t *testing.T) {
	t.Run("parses every row", func(t *testing.T) {
		src := &fakeSource{results: map[string][]snowflake.Row{
			"SHOW EXTERNAL ACCESS INTEGRATIONS": {
				snowflake.RowOf(map[string]any{"name": "EAI1", "enabled": "true"}),
			},
		}}

		integrations, err := New(src, nil).Integrations(context.Background())

		require.NoError(t, err)
		require.Len(t, integrations, 1)
		assert.Equal(t, "EAI1", integrations[0].Name)
		assert.True(t, integrations[0].Enabled)
	})

	t.Run("propagates a listing failure", func(t *testing.T) {
		src := &fakeSource{errs: map[string]error{
			"SHOW EXTERNAL ACCESS INTEGRATIONS": errors.New("unavailable"),
		}}

		_, err := New(src, nil).Integrations(context.Background())

		require.Error(t, err)
	})
}
