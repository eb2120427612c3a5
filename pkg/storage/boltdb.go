package storage

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ChenxingM/RenderQ/pkg/types"
)

var (
	bucketJobs    = []byte("jobs")
	bucketTasks   = []byte("tasks")
	bucketWorkers = []byte("workers")
)

// BoltStore implements Store on top of a single embedded bbolt file. Every
// mutation runs inside a db.Update closure; bbolt serializes writers, which
// is what makes NextTaskForWorker's concurrent-caller guarantee hold without
// any additional locking in this package.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (creating if absent) the database file under dataDir.
func NewBoltStore(dataDir string) (*BoltStore, error) {
	dbPath := filepath.Join(dataDir, "renderq.db")

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketJobs, bucketTasks, bucketWorkers} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// --- Jobs ---

func (s *BoltStore) CreateJob(job *types.Job) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketJobs), job.ID, job)
	})
}

func (s *BoltStore) GetJob(id string) (*types.Job, error) {
	var job types.Job
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketJobs), id, &job)
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *BoltStore) ListJobs() ([]*types.Job, error) {
	var jobs []*types.Job
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJobs).ForEach(func(_, v []byte) error {
			var job types.Job
			if err := json.Unmarshal(v, &job); err != nil {
				return err
			}
			jobs = append(jobs, &job)
			return nil
		})
	})
	return jobs, err
}

func (s *BoltStore) ListJobsByStatus(status types.JobStatus) ([]*types.Job, error) {
	all, err := s.ListJobs()
	if err != nil {
		return nil, err
	}
	var filtered []*types.Job
	for _, job := range all {
		if job.Status == status {
			filtered = append(filtered, job)
		}
	}
	return filtered, nil
}

func (s *BoltStore) UpdateJob(job *types.Job) error {
	return s.CreateJob(job)
}

func (s *BoltStore) DeleteJob(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketJobs).Delete([]byte(id))
	})
}

// --- Tasks ---

func (s *BoltStore) CreateTask(task *types.Task) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketTasks), task.ID, task)
	})
}

func (s *BoltStore) GetTask(id string) (*types.Task, error) {
	var task types.Task
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketTasks), id, &task)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *BoltStore) ListTasks() ([]*types.Task, error) {
	var tasks []*types.Task
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTasks).ForEach(func(_, v []byte) error {
			var task types.Task
			if err := json.Unmarshal(v, &task); err != nil {
				return err
			}
			tasks = append(tasks, &task)
			return nil
		})
	})
	return tasks, err
}

func (s *BoltStore) ListTasksByJob(jobID string) ([]*types.Task, error) {
	all, err := s.ListTasks()
	if err != nil {
		return nil, err
	}
	var filtered []*types.Task
	for _, task := range all {
		if task.JobID == jobID {
			filtered = append(filtered, task)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Index < filtered[j].Index })
	return filtered, nil
}

func (s *BoltStore) UpdateTask(task *types.Task) error {
	return s.CreateTask(task)
}

func (s *BoltStore) DeleteTask(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTasks).Delete([]byte(id))
	})
}

// --- Workers ---

func (s *BoltStore) CreateWorker(worker *types.Worker) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putJSON(tx.Bucket(bucketWorkers), worker.ID, worker)
	})
}

func (s *BoltStore) GetWorker(id string) (*types.Worker, error) {
	var worker types.Worker
	err := s.db.View(func(tx *bolt.Tx) error {
		return getJSON(tx.Bucket(bucketWorkers), id, &worker)
	})
	if err != nil {
		return nil, err
	}
	return &worker, nil
}

func (s *BoltStore) ListWorkers() ([]*types.Worker, error) {
	var workers []*types.Worker
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWorkers).ForEach(func(_, v []byte) error {
			var worker types.Worker
			if err := json.Unmarshal(v, &worker); err != nil {
				return err
			}
			workers = append(workers, &worker)
			return nil
		})
	})
	return workers, err
}

func (s *BoltStore) UpdateWorker(worker *types.Worker) error {
	return s.CreateWorker(worker)
}

func (s *BoltStore) DeleteWorker(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketWorkers).Delete([]byte(id))
	})
}

// --- Dispatcher ---

// candidate pairs a pending Task with the Job it belongs to, for sorting.
type candidate struct {
	task *types.Task
	job  *types.Job
}

// NextTaskForWorker picks the best eligible Task for worker: priority
// desc, submitted_at asc, task index asc, restricted to tasks whose job is
// queued/active, whose pool is
// served by the worker, whose plugin the worker declares capability for (if
// the worker declares any capabilities at all), and whose job dependencies
// are all completed. The whole read-modify-write happens inside one
// db.Update closure, so two concurrent pulls can never observe or claim the
// same Task.
func (s *BoltStore) NextTaskForWorker(worker *types.Worker) (*types.Task, error) {
	var won *types.Task

	err := s.db.Update(func(tx *bolt.Tx) error {
		jobsBucket := tx.Bucket(bucketJobs)
		tasksBucket := tx.Bucket(bucketTasks)

		jobs := make(map[string]*types.Job)
		if err := jobsBucket.ForEach(func(_, v []byte) error {
			var job types.Job
			if err := json.Unmarshal(v, &job); err != nil {
				return err
			}
			jobs[job.ID] = &job
			return nil
		}); err != nil {
			return err
		}

		var candidates []candidate
		if err := tasksBucket.ForEach(func(_, v []byte) error {
			var task types.Task
			if err := json.Unmarshal(v, &task); err != nil {
				return err
			}
			if task.Status != types.TaskPending {
				return nil
			}
			job, ok := jobs[task.JobID]
			if !ok {
				return nil
			}
			if !eligible(job, &task, worker, jobs) {
				return nil
			}
			candidates = append(candidates, candidate{task: &task, job: job})
			return nil
		}); err != nil {
			return err
		}

		if len(candidates) == 0 {
			return nil
		}

		sort.Slice(candidates, func(i, j int) bool {
			ci, cj := candidates[i], candidates[j]
			if ci.job.Priority != cj.job.Priority {
				return ci.job.Priority > cj.job.Priority
			}
			if !ci.job.SubmittedAt.Equal(cj.job.SubmittedAt) {
				return ci.job.SubmittedAt.Before(cj.job.SubmittedAt)
			}
			return ci.task.Index < cj.task.Index
		})

		picked := candidates[0]
		now := time.Now()

		picked.task.Status = types.TaskAssigned
		picked.task.AssignedWorker = worker.ID
		picked.task.StartedAt = &now
		if err := putJSON(tasksBucket, picked.task.ID, picked.task); err != nil {
			return err
		}

		worker.Status = types.WorkerBusy
		worker.CurrentTask = picked.task.ID
		if err := putJSON(tx.Bucket(bucketWorkers), worker.ID, worker); err != nil {
			return err
		}

		if picked.job.Status == types.JobQueued {
			picked.job.Status = types.JobActive
			if picked.job.StartedAt == nil {
				picked.job.StartedAt = &now
			}
			if err := putJSON(jobsBucket, picked.job.ID, picked.job); err != nil {
				return err
			}
		}

		won = picked.task
		return nil
	})

	return won, err
}

func eligible(job *types.Job, task *types.Task, worker *types.Worker, jobs map[string]*types.Job) bool {
	if job.Status != types.JobQueued && job.Status != types.JobActive {
		return false
	}
	if !containsString(worker.Pools, job.Pool) {
		return false
	}
	if len(worker.Capabilities) > 0 && !containsString(worker.Capabilities, job.Plugin) {
		return false
	}
	for _, dep := range job.DependentOn {
		depJob, ok := jobs[dep]
		if !ok || depJob.Status != types.JobCompleted {
			return false
		}
	}
	_ = task
	return true
}

func containsString(list []string, want string) bool {
	for _, item := range list {
		if item == want {
			return true
		}
	}
	return false
}

// --- Stats ---

func (s *BoltStore) Stats() (*types.Stats, error) {
	stats := &types.Stats{
		Jobs:    make(map[types.JobStatus]int),
		Workers: make(map[types.WorkerStatus]int),
	}

	err := s.db.View(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketJobs).ForEach(func(_, v []byte) error {
			var job types.Job
			if err := json.Unmarshal(v, &job); err != nil {
				return err
			}
			stats.Jobs[job.Status]++
			return nil
		}); err != nil {
			return err
		}
		return tx.Bucket(bucketWorkers).ForEach(func(_, v []byte) error {
			var worker types.Worker
			if err := json.Unmarshal(v, &worker); err != nil {
				return err
			}
			stats.Workers[worker.Status]++
			return nil
		})
	})

	return stats, err
}

// --- helpers ---

func putJSON(b *bolt.Bucket, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), data)
}

func getJSON(b *bolt.Bucket, key string, v any) error {
	data := b.Get([]byte(key))
	if data == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	return json.Unmarshal(data, v)
}
