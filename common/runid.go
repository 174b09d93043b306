package common

import "github.com/google/uuid"

// RunID identifies one invocation, the way the teacher tags every job
// with a JobID: the run logger names its log file after it and records
// it in the log preamble.
type RunID uuid.UUID

func NewRunID() RunID {
	return RunID(uuid.New())
}

func (r RunID) String() string {
	return uuid.UUID(r).String()
}

func (r RunID) IsEmpty() bool {
	return r == RunID{}
}
