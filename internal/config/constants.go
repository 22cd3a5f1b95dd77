package config

// Application constants
const (
	AppName    = "dataingest"
	AppVersion = "1.0.0"

	// EnvPrefix namespaces environment variables, e.g. INGEST_LOGGING_LEVEL
	EnvPrefix = "INGEST"

	// DefaultParamsPath is read relative to the working directory
	DefaultParamsPath = "params.yaml"

	// Output file names written under save_path
	TrainFileName = "train.csv"
	TestFileName  = "test.csv"

	DefaultLogsDir = "logs"
	LogFileExt     = ".log"
	TraceFileName  = "traces.json"

	// Trace exporters
	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
	TraceExporterFile   = "file"

	// Component names used for per-component loggers
	ComponentConfigLoader = "config_loader"
	ComponentReader       = "dataset_reader"
	ComponentPartitioner  = "partitioner"
	ComponentPersister    = "persister"
	ComponentPipeline     = "data_ingestion"

	// File permissions
	DirPerm  = 0755
	FilePerm = 0644

	MsgIngestionCompleted = "Data Ingestion completed successfully"
)
