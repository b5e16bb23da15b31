package job

import "context"

// Store persists job records so status survives a process restart.
type Store interface {
	LoadJobs(ctx context.Context) ([]*Job, error)
	UpsertJob(ctx context.Context, j *Job) error
	DeleteJob(ctx context.Context, jobID string) error
}
