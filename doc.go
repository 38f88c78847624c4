// Package transnet builds molecular transmission networks from pairwise
// genetic-distance data and annotates them with per-subject attributes.
//
// What is transnet?
//
//	A single-threaded, in-memory pipeline that turns a CSV of pairwise
//	distances into a clustered, schema-stable JSON report:
//
//	  • ID parsing: Plain, AEH, LANL and caller-supplied Regex subject IDs
//	  • Ingestion: threshold filtering, dedup-by-minimum-distance edges
//	  • Clustering: adjacency rebuild + BFS connected-component labeling
//	  • Reporting: a canonical report object, stable under re-assembly
//	  • Annotation: keyed join of external attribute records into a report
//
// Everything is organized under sibling packages:
//
//	idparse/  — Format tagged variant and the four ID parsers
//	ingest/    — CSV reader, threshold filter, two-pass node/edge collection
//	subject/   — Subject, Edge and Network types; graph-builder mutations
//	             and the adjacency rebuild
//	cluster/   — BFS-based component labeling and component sizes
//	report/    — canonical Report assembly
//	annotate/  — schema-driven attribute join onto an assembled Report
//
// None of these packages touch a filesystem, a network socket or a clock
// beyond reading it once for the report's created timestamp; they accept
// an in-memory buffer and return an in-memory value. The cmd/hivcluster
// and cmd/hivannotate binaries are the only I/O boundary.
package transnet
