package previewtool

// HTTP status code constants.
const (
	StatusOK         = 200
	StatusBadRequest = 400
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
)
