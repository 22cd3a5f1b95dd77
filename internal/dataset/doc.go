// Package dataset holds the in-memory table that flows through an ingestion run
// and the reader that loads it from delimited text.
//
// Cells are kept as strings exactly as read, so writing a Dataset back out
// reproduces the source values. Each row carries its source position in Index,
// which identifies the row after shuffling.
//
// Reader errors are typed:
//
//	- SourceNotFound when the path does not exist
//	- MalformedSource for inconsistent field counts, bad quoting or a missing header
//	- Read for other I/O failures
package dataset
