package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/brainwave-labs/bci-shell-api/datastore"
	"github.com/brainwave-labs/bci-shell-api/system"
)

var (
	ErrInvalidJobType   = errors.New("invalid job type")
	ErrPermanentFailure = errors.New("permanent failure")

	// defaultMaxJobErrorCount is the maximum number of times a Job can be
	// tried to execute before considering it completely failed.
	defaultMaxJobErrorCount = 10

	// Poll DB for new schedulable jobs every 30s.
	defaultDBJobPollInterval = 30 * time.Second

	// Grace time period before re-scheduling jobs that are in state INIT or
	// ACCEPTED. These are jobs where the executor processing has been
	// unexpectedly disrupted (such as bug, dead node, disconnected
	// networking etc.).
	defaultAcceptedGracePeriod = 3 * time.Minute

	// Grace time period before re-scheduling jobs that are up for immediate
	// restart (such as NO_AVAILABLE_WORKERS or ERROR).
	defaultReSchedulableGracePeriod = 1 * time.Minute
)

type ExecutorFunc func(ctx context.Context, j *Job) error

type WorkerPool interface {
	CreateJob(jobType, entityID string, opts ...JobOption) (*Job, error)
	RegisterExecutor(jobType string, executorF ExecutorFunc)
	Schedule(j *Job) error
	Status() (WorkerPoolStatus, error)
	Stop()
	Capacity() uint
	QueueSize() uint
}

type WorkerPoolImpl struct {
	wg            *sync.WaitGroup
	jobChan       chan *Job
	stopChan      chan struct{}
	context       context.Context
	cancelContext context.CancelFunc
	executors     map[string]ExecutorFunc
	logger        *log.Logger

	store                    Store
	capacity                 uint
	workerCount              uint
	maxJobErrorCount         int
	dbJobPollInterval        time.Duration
	acceptedGracePeriod      time.Duration
	reSchedulableGracePeriod time.Duration

	notificationConfig *NotificationConfig
	systemService      *system.Service
}

type WorkerPoolStatus struct {
	JobQueueStatus
	Capacity    int `json:"poolCapacity"`
	WorkerCount int `json:"workerCount"`
}

func NewWorkerPool(store Store, capacity uint, workerCount uint, opts ...WorkerPoolOption) WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	pool := &WorkerPoolImpl{
		wg:            &sync.WaitGroup{},
		jobChan:       make(chan *Job, capacity),
		stopChan:      make(chan struct{}),
		context:       ctx,
		cancelContext: cancel,
		executors:     make(map[string]ExecutorFunc),
		logger:        nil,

		store:                    store,
		capacity:                 capacity,
		workerCount:              workerCount,
		maxJobErrorCount:         defaultMaxJobErrorCount,
		dbJobPollInterval:        defaultDBJobPollInterval,
		acceptedGracePeriod:      defaultAcceptedGracePeriod,
		reSchedulableGracePeriod: defaultReSchedulableGracePeriod,

		notificationConfig: &NotificationConfig{},
	}

	// Register asynchronous job executor.
	pool.RegisterExecutor(SendJobStatusJobType, pool.executeSendJobStatus)

	// Go through options
	for _, opt := range opts {
		opt(pool)
	}

	if pool.logger == nil {
		pool.logger = log.New()
	}

	pool.startWorkers()
	pool.startDBJobScheduler()

	return pool
}

func (wp *WorkerPoolImpl) Status() (WorkerPoolStatus, error) {
	var status WorkerPoolStatus

	query, err := wp.store.Status()
	if err != nil {
		return status, err
	}

	for _, r := range query {
		switch r.State {
		case Init:
			status.JobsInit = r.Count
		case NoAvailableWorkers:
			status.JobsNotAccepted = r.Count
		case Accepted:
			status.JobsAccepted = r.Count
		case Error:
			status.JobsErrored = r.Count
		case Failed:
			status.JobsFailed = r.Count
		case Complete:
			status.JobsCompleted = r.Count
		default:
			continue
		}
	}

	status.Capacity = int(wp.capacity)
	status.WorkerCount = int(wp.workerCount)

	return status, nil
}

// CreateJob constructs a new Job for type `jobType` ready for scheduling.
func (wp *WorkerPoolImpl) CreateJob(jobType, entityID string, opts ...JobOption) (*Job, error) {
	job := &Job{
		State:    Init,
		Type:     jobType,
		EntityID: entityID,
	}

	for _, opt := range opts {
		opt(job)
	}

	if err := wp.store.InsertJob(job); err != nil {
		return nil, err
	}

	return job, nil
}

func (wp *WorkerPoolImpl) RegisterExecutor(jobType string, executorF ExecutorFunc) {
	wp.executors[jobType] = executorF
}

// Schedule will try to immediately schedule the run of a job
func (wp *WorkerPoolImpl) Schedule(j *Job) error {
	if wp.waitMaintenance() {
		// In maintenance mode; prevent immediate scheduling and let the DB
		// scheduler pick this job up later
		return nil
	}

	if !wp.tryEnqueue(j, false) {
		j.State = NoAvailableWorkers
		if err := wp.store.UpdateJob(j); err != nil {
			return err
		}
	}

	return nil
}

func (wp *WorkerPoolImpl) Stop() {
	close(wp.stopChan)
	close(wp.jobChan)
	wp.cancelContext()
	wp.wg.Wait()
}

func (wp *WorkerPoolImpl) Capacity() uint {
	return wp.capacity
}

func (wp *WorkerPoolImpl) QueueSize() uint {
	return uint(len(wp.jobChan))
}

func (wp *WorkerPoolImpl) waitMaintenance() bool {
	if wp.systemService == nil {
		return false
	}

	halted, err := wp.systemService.IsHalted()
	if err != nil {
		wp.logger.
			WithFields(log.Fields{"error": err}).
			Warn("Could not resolve system halted state")
		return false
	}

	return halted
}

func (wp *WorkerPoolImpl) startDBJobScheduler() {
	go func() {
		var restTime time.Duration

	jobPoolLoop:
		for {
			select {
			case <-time.After(restTime):
			case <-wp.stopChan:
				break jobPoolLoop
			}

			if wp.waitMaintenance() {
				restTime = wp.dbJobPollInterval
				continue
			}

			begin := time.Now()

			o := datastore.ParseListOptions(0, 0)
			jobs, err := wp.store.SchedulableJobs(wp.acceptedGracePeriod, wp.reSchedulableGracePeriod, o)
			if err != nil {
				wp.logger.
					WithFields(log.Fields{"error": err}).
					Warn("Could not fetch schedulable jobs from DB")
				continue
			}

			for i := range jobs {
				wp.tryEnqueue(&jobs[i], true)
			}

			elapsed := time.Since(begin)
			restTime = wp.dbJobPollInterval - elapsed
		}
	}()
}

func (wp *WorkerPoolImpl) startWorkers() {
	for i := uint(0); i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go func() {
			defer wp.wg.Done()
			for job := range wp.jobChan {
				if job == nil {
					break
				}

				if err := wp.process(job); err != nil {
					wp.logger.
						WithFields(log.Fields{"error": err, "jobID": job.ID, "jobType": job.Type}).
						Warn("Error while processing job")
				}
			}
		}()
	}
}

func (wp *WorkerPoolImpl) tryEnqueue(job *Job, block bool) bool {
	if block {
		wp.jobChan <- job
	} else {
		select {
		case wp.jobChan <- job:
			return true
		default:
			return false
		}
	}

	return true
}

func (wp *WorkerPoolImpl) process(job *Job) error {
	if err := wp.store.AcceptJob(job, wp.acceptedGracePeriod); err != nil {
		wp.logger.
			WithFields(log.Fields{"jobID": job.ID, "jobType": job.Type}).
			Info("Failed to accept job")
		return nil
	}

	executor, exists := wp.executors[job.Type]
	if !exists {
		wp.logger.
			WithFields(log.Fields{"jobID": job.ID, "jobType": job.Type}).
			Warn("Could not process job, no registered executor for type")
		job.State = NoAvailableWorkers
		return wp.store.UpdateJob(job)
	}

	if err := executor(wp.context, job); err != nil {
		if job.ExecCount > wp.maxJobErrorCount || errors.Is(err, ErrPermanentFailure) {
			job.State = Failed
		} else {
			job.State = Error
		}
		job.Error = err.Error()
		job.Errors = append(job.Errors, err.Error())
		wp.logger.
			WithFields(log.Fields{"error": err, "jobID": job.ID, "jobType": job.Type}).
			Warn("Job execution resulted with error")
	} else {
		job.State = Complete
		job.Error = ""
	}

	if err := wp.store.UpdateJob(job); err != nil {
		return err
	}

	if (job.State == Failed || job.State == Complete) &&
		job.ShouldSendNotification &&
		wp.notificationConfig != nil && wp.notificationConfig.ShouldSendJobStatus() {
		if err := ScheduleJobStatusNotification(wp, job); err != nil {
			wp.logger.
				WithFields(log.Fields{"error": err, "jobID": job.ID, "jobType": job.Type}).
				Warn("Could not schedule a status update notification for job")
		}
	}

	return nil
}

func (wp *WorkerPoolImpl) executeSendJobStatus(ctx context.Context, j *Job) error {
	if j.Type != SendJobStatusJobType {
		return ErrInvalidJobType
	}

	j.ShouldSendNotification = false

	return wp.notificationConfig.SendJobStatus(ctx, j.Result)
}

func PermanentFailure(err error) error {
	return fmt.Errorf("%w: %s", ErrPermanentFailure, err.Error())
}

func ScheduleJobStatusNotification(wp *WorkerPoolImpl, parent *Job) error {
	job, err := wp.CreateJob(SendJobStatusJobType, "")
	if err != nil {
		return err
	}

	b, err := json.Marshal(parent.ToJSONResponse())
	if err != nil {
		return err
	}

	// Store the notification content of the parent job in Result of the new job
	job.Result = string(b)

	if err := wp.store.UpdateJob(job); err != nil {
		return err
	}

	return wp.Schedule(job)
}
