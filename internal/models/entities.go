// Package models defines the core data structures exchanged between the
// discovery pipeline and the HTTP layer: entity records and graph shapes.
package models

// ComputePool is a named cluster of compute nodes that runs containerized
// services. Identity is the pool name.
type ComputePool struct {
	Name            string  `json:"name"`
	State           string  `json:"state"`
	MinNodes        int     `json:"min_nodes"`
	MaxNodes        int     `json:"max_nodes"`
	InstanceFamily  string  `json:"instance_family"`
	Owner           string  `json:"owner"`
	AutoResume      bool    `json:"auto_resume"`
	AutoSuspendSecs *int    `json:"auto_suspend_secs"`
	CreatedOn       *string `json:"created_on"`
}

// Service is a containerized workload bound to a compute pool. Identity is
// the (database, schema, name) triple. ComputePool and the integration names
// may reference objects that no longer exist; graph assembly validates them.
type Service struct {
	Name                       string   `json:"name"`
	DatabaseName               string   `json:"database_name"`
	SchemaName                 string   `json:"schema_name"`
	Owner                      string   `json:"owner"`
	ComputePool                string   `json:"compute_pool"`
	DNSName                    *string  `json:"dns_name"`
	CurrentInstances           int      `json:"current_instances"`
	TargetInstances            int      `json:"target_instances"`
	MinInstances               int      `json:"min_instances"`
	MaxInstances               int      `json:"max_instances"`
	Status                     string   `json:"status"`
	ExternalAccessIntegrations []string `json:"external_access_integrations"`
}

// QualifiedName returns the dot-joined database.schema.name identity key.
func (s Service) QualifiedName() string {
	return s.DatabaseName + "." + s.SchemaName + "." + s.Name
}

// Notebook is a hosted notebook. Identity is the (database, schema, name)
// triple. Notebooks carry no validated cross-references yet.
type Notebook struct {
	Name                        string  `json:"name"`
	DatabaseName                string  `json:"database_name"`
	SchemaName                  string  `json:"schema_name"`
	Owner                       string  `json:"owner"`
	Comment                     *string `json:"comment"`
	CreatedOn                   *string `json:"created_on"`
	QueryWarehouse              *string `json:"query_warehouse"`
	IdleAutoShutdownTimeSeconds *int    `json:"idle_auto_shutdown_time_seconds"`
}

// QualifiedName returns the dot-joined database.schema.name identity key.
func (n Notebook) QualifiedName() string {
	return n.DatabaseName + "." + n.SchemaName + "." + n.Name
}

// ExternalAccessIntegration is an account-level grant that allows a service
// to reach specific external network endpoints. Identity is the name.
type ExternalAccessIntegration struct {
	Name      string  `json:"name"`
	Type      string  `json:"type"`
	Category  *string `json:"category"`
	Enabled   bool    `json:"enabled"`
	Comment   *string `json:"comment"`
	CreatedOn *string `json:"created_on"`
}
