package operations

// Ingestion step identifiers
const (
	StepIDLoadParams = "load_params"
	StepIDRead       = "read"
	StepIDSplit      = "split"
	StepIDPersist    = "persist"
)

// Ingestion step names
const (
	StepNameLoadParams = "Load Params"
	StepNameRead       = "Read Dataset"
	StepNameSplit      = "Train Test Split"
	StepNamePersist    = "Save Partitions"
)
