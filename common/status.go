package common

//go:generate go run github.com/dmarkham/enumer -json -type JobStatus -trimprefix JobStatus

// JobStatus is the state of a remote asynchronous job (upload, cascading deletion)
type JobStatus int

const (
	JobStatusPENDING JobStatus = iota
	JobStatusRUNNING
	JobStatusSUCCEEDED
	JobStatusFAILED
)

// Terminal returns true if the job will not change anymore
func (s JobStatus) Terminal() bool {
	return s == JobStatusSUCCEEDED || s == JobStatusFAILED
}
