// Package pagination provides the shared --limit and --sort handling for CLI
// list commands.
//
// This package contains:
//   - Params: limit and sort flag values with bounds validation
//   - Sorter: field-keyed stable sorting for history records and recommendations
//   - ListMeta: the count and truncation metadata attached to JSON list output
package pagination
