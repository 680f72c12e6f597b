package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/time/rate"

	"github.com/desertthunder/playgraph/internal/docstore"
	"github.com/desertthunder/playgraph/internal/models"
)

// RepairResult contains the outcome of [Auditor.Repair].
type RepairResult struct {
	Documents int           `json:"documents"` // Documents that needed changes
	Repaired  int           `json:"repaired"`  // Documents whose updates all succeeded
	Failed    int           `json:"failed"`    // Documents with a failed update
	Updates   int           `json:"updates"`   // Updates applied
	Errors    []RepairError `json:"errors"`    // Failures, one per document
}

// RepairError records the document a repair could not finish.
type RepairError struct {
	Collection string
	Entity     string
	Err        error
}

func (e RepairError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Collection, e.Entity, e.Err)
}

func (e RepairError) Unwrap() error { return e.Err }

func (e RepairError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"collection": e.Collection,
		"entity":     e.Entity,
		"error":      e.Err.Error(),
	})
}

// repairJob holds every update for a single document, applied in order by one worker.
type repairJob struct {
	collection string
	entity     string
	updates    []docstore.Update
	issues     []Issue
}

type repairOutcome struct {
	job     repairJob
	applied int
	err     error
}

// Repair applies the updates that resolve every issue in report.
//
// Updates to the same document run in order on one worker; different documents are repaired concurrently
// by a bounded pool, throttled to the configured rate. Repair does not stop at the first failure: each
// failed document is listed in the result.
func (a *Auditor) Repair(ctx context.Context, progress chan<- ProgressUpdate, report *Report) (*RepairResult, error) {
	jobs := groupIssues(report.Issues)
	result := &RepairResult{Documents: len(jobs), Errors: []RepairError{}}
	if len(jobs) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(a.opts.RateLimit), 1)

	queue := make(chan repairJob, len(jobs))
	outcomes := make(chan repairOutcome, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < a.opts.NumWorkers; i++ {
		wg.Add(1)
		go a.repairWorker(ctx, &wg, limiter, queue, outcomes)
	}

	for _, job := range jobs {
		queue <- job
	}
	close(queue)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	completed := 0
	for out := range outcomes {
		completed++
		result.Updates += out.applied

		if out.err == nil {
			result.Repaired++
			sendProgress(progress, repairCompletedUpdate(completed, len(jobs), out.job))
			continue
		}

		result.Failed++
		result.Errors = append(result.Errors, RepairError{Collection: out.job.collection, Entity: out.job.entity, Err: out.err})
		sendProgress(progress, repairFailedUpdate(completed, len(jobs), out.job, out.err))
		a.logger.Warn("repair failed", "collection", out.job.collection, "entity", out.job.entity, "err", out.err)
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	a.logger.Info("repair complete", "documents", result.Documents, "repaired", result.Repaired, "failed", result.Failed)
	return result, nil
}

// repairWorker is a worker goroutine that applies the updates of jobs from the queue.
func (a *Auditor) repairWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	limiter *rate.Limiter,
	queue <-chan repairJob,
	outcomes chan<- repairOutcome,
) {
	defer wg.Done()

	for job := range queue {
		out := repairOutcome{job: job}
		for _, u := range job.updates {
			if err := limiter.Wait(ctx); err != nil {
				out.err = err
				break
			}
			if err := a.apply(ctx, job, u); err != nil {
				out.err = err
				break
			}
			out.applied++
		}
		outcomes <- out
	}
}

func (a *Auditor) apply(ctx context.Context, job repairJob, u docstore.Update) error {
	if job.collection == models.PlaylistsCollection {
		return a.playlists.Update(ctx, job.entity, u)
	}
	return a.users.Update(ctx, job.entity, u)
}

// groupIssues collects issues into one job per document, keeping the order issues were reported in.
func groupIssues(issues []Issue) []repairJob {
	index := map[string]int{}
	var jobs []repairJob

	for _, issue := range issues {
		key := issue.Collection + "\x00" + issue.Entity
		i, ok := index[key]
		if !ok {
			i = len(jobs)
			index[key] = i
			jobs = append(jobs, repairJob{collection: issue.Collection, entity: issue.Entity})
		}
		jobs[i].updates = append(jobs[i].updates, issue.Update())
		jobs[i].issues = append(jobs[i].issues, issue)
	}

	return jobs
}
