package shared

// Asynq queue names.
const (
	QueueDefault = "default"
	QueueLoans   = "loans"
)

// Asynq task types.
const (
	TypeMarkLateLoans = "loan:mark_late"
)
