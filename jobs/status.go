package jobs

// State is the current execution state of a job.
type State string

const (
	Init               State = "INIT"
	Accepted           State = "ACCEPTED"
	NoAvailableWorkers State = "NO_AVAILABLE_WORKERS"
	Error              State = "ERROR"
	Failed             State = "FAILED"
	Complete           State = "COMPLETE"
)

func (s State) String() string {
	return string(s)
}

type JobQueueStatus struct {
	JobsInit        int `json:"jobsInit"`
	JobsNotAccepted int `json:"jobsNotAccepted"`
	JobsAccepted    int `json:"jobsAccepted"`
	JobsErrored     int `json:"jobsErrored"`
	JobsFailed      int `json:"jobsFailed"`
	JobsCompleted   int `json:"jobsCompleted"`
}
