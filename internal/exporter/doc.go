// Package exporter writes datasets to delimited text files.
//
// CSVWriter is the low level writer. It truncates the target file and supports a
// custom delimiter.
//
// Persister saves a train/test partition as train.csv and test.csv under an output
// directory, creating the directory first. Failures are returned as Persist errors.
//
// Example usage:
//
//	persister := exporter.NewPersister(logger, ',')
//	msg, err := persister.Save(ctx, p.Train, p.Test, "data/raw")
package exporter
