// Command sqlreport compiles report requests into PostgreSQL statements and
// serves them over HTTP.
//
// Usage:
//
//	sqlreport [flags] <command>
//
// Commands:
//   - serve: run the HTTP API
//   - compile: compile a request file and print the statement
//   - graph: inspect the relation graph
//   - doctor: check the relation graph and the database
//   - config: show the effective configuration
//   - version: print version information
package main

func main() {
	Execute()
}
