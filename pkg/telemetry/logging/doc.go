// Package logging builds the process-wide structured logger.
//
// Three output formats are supported: json for production ingestion, text
// for plain environments, and console for human-readable local development
// output.
package logging
