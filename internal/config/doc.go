// Package config loads the inputs of an ingestion run.
//
// # Params File
//
// The pipeline parameters come from a YAML file, params.yaml by default:
//
//	data_ingestion:
//	  data_path: data/external/raw.csv
//	  save_path: data/raw
//	  test_size: 0.2
//	  random_state: 42
//
// LoadParams returns typed errors from the errors package:
//
//	- ConfigNotFound when the file does not exist
//	- ConfigParse when the YAML cannot be parsed
//	- ConfigLoad for anything else, including missing keys
//
// # Environment Variables
//
// Ambient settings are read with envconfig using the INGEST_ prefix:
//
//	INGEST_LOGGING_LEVEL=info
//	INGEST_LOGGING_FORMAT=text
//	INGEST_LOGGING_DIR=logs
//	INGEST_TELEMETRY_TRACE_EXPORTER=file
//	INGEST_TELEMETRY_METRICS_FILE=metrics/ingest.prom
//
// Settings never change the pipeline parameters.
package config
