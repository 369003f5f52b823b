package log

// Attribute keys shared by every component. They follow a dotted naming
// convention so that log lines can be filtered by prefix.
const (
	// ModelNameKey identifies the estimator, e.g. "LogisticRegression".
	ModelNameKey = "model.name"

	// ComponentKey is set by GetLoggerWithName.
	ComponentKey = "component"

	// OperationKey specifies the operation: "fit", "predict", "transform", "split".
	OperationKey = "ml.operation"

	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"

	// PathKey is a file read or written by the workflow.
	PathKey = "io.path"

	DurationMsKey = "perf.duration_ms"
	AccuracyKey   = "metrics.accuracy"
	LossKey       = "metrics.loss"
	IterationKey  = "training.iteration"

	RandomSeedKey = "random.seed"
	TestSizeKey   = "split.test_size"

	ErrorKey = "error"
)

// Standard values for OperationKey.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationSplit     = "split"
	OperationSave      = "save"
	OperationLoad      = "load"
)
