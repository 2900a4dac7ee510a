// Package parser converts raw introspection rows into typed entities and
// assembles entity collections into the graph served for visualization.
package parser

import (
	"regexp"
	"strings"

	"github.com/snowscape/core/internal/snowflake"
)

// integrationKey is the specification key that declares a service's
// external access integrations.
const integrationKey = "EXTERNAL_ACCESS_INTEGRATIONS"

// The three textual forms the key is known to take inside service
// specifications, in match priority order: YAML colon form, assignment
// form, quoted JSON form.
var integrationListPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)` + integrationKey + `\s*:\s*\[([^\]]*)\]`),
	regexp.MustCompile(`(?i)` + integrationKey + `\s*=\s*\[([^\]]*)\]`),
	regexp.MustCompile(`(?i)"` + integrationKey + `"\s*:\s*\[([^\]]*)\]`),
}

// ServiceIntegrations extracts the external access integration names a
// service declares from its DESCRIBE result. Three strategies run in order,
// first success wins: a direct scan of columns named after the key, a scan
// of spec-like columns for the known textual forms, and a full-text
// fallback over every cell. Extraction is best effort and never fails; an
// unrecognized or absent declaration yields an empty list. Duplicates are
// not removed here; downstream existence filtering is idempotent.
func ServiceIntegrations(rows []snowflake.Row) []string {
	if names := integrationsFromColumns(rows); len(names) > 0 {
		return names
	}
	if names := integrationsFromSpecColumns(rows); len(names) > 0 {
		return names
	}
	if names := integrationsFromAnyCell(rows); len(names) > 0 {
		return names
	}
	return []string{}
}

// integrationsFromColumns reads columns whose name contains
// "external_access". A bracketed value is split as a list; anything else
// counts as a single name.
func integrationsFromColumns(rows []snowflake.Row) []string {
	var names []string
	for _, row := range rows {
		for _, col := range row.Columns() {
			if !strings.Contains(strings.ToLower(col), "external_access") {
				continue
			}
			v, ok := row.Value(col)
			if !ok || v == nil {
				continue
			}
			value := strings.TrimSpace(asString(v))
			if value == "" || strings.EqualFold(value, "null") {
				continue
			}
			names = append(names, splitNameList(value)...)
		}
	}
	return names
}

// integrationsFromSpecColumns searches columns whose name contains "spec"
// for the known textual forms of the declaration.
func integrationsFromSpecColumns(rows []snowflake.Row) []string {
	for _, row := range rows {
		for _, col := range row.Columns() {
			if !strings.Contains(strings.ToLower(col), "spec") {
				continue
			}
			v, ok := row.Value(col)
			if !ok || v == nil {
				continue
			}
			if names := IntegrationsFromText(asString(v)); len(names) > 0 {
				return names
			}
		}
	}
	return nil
}

// integrationsFromAnyCell is the last resort: any cell mentioning the key
// gets the textual forms re-applied.
func integrationsFromAnyCell(rows []snowflake.Row) []string {
	for _, row := range rows {
		for _, col := range row.Columns() {
			v, ok := row.Value(col)
			if !ok || v == nil {
				continue
			}
			text := asString(v)
			if !strings.Contains(strings.ToUpper(text), integrationKey) {
				continue
			}
			if names := IntegrationsFromText(text); len(names) > 0 {
				return names
			}
		}
	}
	return nil
}

// IntegrationsFromText applies the known textual forms of the declaration
// to one blob of specification text, returning the first form's names or
// nil when none match.
func IntegrationsFromText(text string) []string {
	for _, pattern := range integrationListPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if names := splitListBody(m[1]); len(names) > 0 {
			return names
		}
	}
	return nil
}

// splitNameList handles a raw cell value: either a bracketed list or a
// single bare name.
func splitNameList(value string) []string {
	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		return splitListBody(value[1 : len(value)-1])
	}
	if name := strings.Trim(value, `'"`); name != "" {
		return []string{name}
	}
	return nil
}

// splitListBody splits the inside of a bracketed list on commas, stripping
// whitespace and surrounding quotes from each element.
func splitListBody(body string) []string {
	var names []string
	for _, part := range strings.Split(body, ",") {
		name := strings.Trim(strings.TrimSpace(part), `'"`)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}
