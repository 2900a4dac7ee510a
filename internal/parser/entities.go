// Package parser converts raw introspection rows into typed entities and
// assembles entity collections into the graph served for visualization.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/snowscape/core/internal/models"
	"github.com/snowscape/core/internal/snowflake"
)

// The parse functions are total: SHOW commands do not guarantee a stable
// column set across platform versions, so absent or malformed fields fall
// back to documented defaults instead of failing. Numbers default to 0,
// booleans to false, optional strings to nil, required strings to ""
// (state and status report "UNKNOWN" when absent).

// ParseComputePool converts one SHOW COMPUTE POOLS row.
func ParseComputePool(row snowflake.Row) models.ComputePool {
	return models.ComputePool{
		Name:            stringField(row, "name"),
		State:           stringOr(row, "state", "UNKNOWN"),
		MinNodes:        intField(row, "min_nodes"),
		MaxNodes:        intField(row, "max_nodes"),
		InstanceFamily:  stringField(row, "instance_family"),
		Owner:           stringField(row, "owner"),
		AutoResume:      boolField(row, "auto_resume"),
		AutoSuspendSecs: optIntField(row, "auto_suspend_secs"),
		CreatedOn:       optStringField(row, "created_on"),
	}
}

// ParseService converts one SHOW SERVICES row. The integration references
// come from a separate describe query, so the list starts empty.
func ParseService(row snowflake.Row) models.Service {
	return models.Service{
		Name:                       stringField(row, "name"),
		DatabaseName:               stringField(row, "database_name"),
		SchemaName:                 stringField(row, "schema_name"),
		Owner:                      stringField(row, "owner"),
		ComputePool:                stringField(row, "compute_pool"),
		DNSName:                    optStringField(row, "dns_name"),
		CurrentInstances:           intField(row, "current_instances"),
		TargetInstances:            intField(row, "target_instances"),
		MinInstances:               intField(row, "min_instances"),
		MaxInstances:               intField(row, "max_instances"),
		Status:                     stringOr(row, "status", "UNKNOWN"),
		ExternalAccessIntegrations: []string{},
	}
}

// ParseNotebook converts one SHOW NOTEBOOKS row.
func ParseNotebook(row snowflake.Row) models.Notebook {
	return models.Notebook{
		Name:                        stringField(row, "name"),
		DatabaseName:                stringField(row, "database_name"),
		SchemaName:                  stringField(row, "schema_name"),
		Owner:                       stringField(row, "owner"),
		Comment:                     optStringField(row, "comment"),
		CreatedOn:                   optStringField(row, "created_on"),
		QueryWarehouse:              optStringField(row, "query_warehouse"),
		IdleAutoShutdownTimeSeconds: optIntField(row, "idle_auto_shutdown_time_seconds"),
	}
}

// ParseIntegration converts one SHOW EXTERNAL ACCESS INTEGRATIONS row.
func ParseIntegration(row snowflake.Row) models.ExternalAccessIntegration {
	return models.ExternalAccessIntegration{
		Name:      stringField(row, "name"),
		Type:      stringField(row, "type"),
		Category:  optStringField(row, "category"),
		Enabled:   boolField(row, "enabled"),
		Comment:   optStringField(row, "comment"),
		CreatedOn: optStringField(row, "created_on"),
	}
}

func stringField(row snowflake.Row, column string) string {
	v, ok := row.Value(column)
	if !ok || v == nil {
		return ""
	}
	return asString(v)
}

func stringOr(row snowflake.Row, column, fallback string) string {
	v, ok := row.Value(column)
	if !ok || v == nil {
		return fallback
	}
	return asString(v)
}

func optStringField(row snowflake.Row, column string) *string {
	v, ok := row.Value(column)
	if !ok || v == nil {
		return nil
	}
	s := asString(v)
	return &s
}

func intField(row snowflake.Row, column string) int {
	if n, ok := asInt(row, column); ok {
		return n
	}
	return 0
}

func optIntField(row snowflake.Row, column string) *int {
	if n, ok := asInt(row, column); ok {
		return &n
	}
	return nil
}

func asInt(row snowflake.Row, column string) (int, bool) {
	v, ok := row.Value(column)
	if !ok || v == nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func boolField(row snowflake.Row, column string) bool {
	v, ok := row.Value(column)
	if !ok || v == nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(b)))
		return err == nil && parsed
	case int:
		return b != 0
	case int64:
		return b != 0
	default:
		return false
	}
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprint(s)
	}
}
