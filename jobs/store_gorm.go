package jobs

import (
	"time"

	"github.com/brainwave-labs/bci-shell-api/datastore"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &GormStore{db}
}

func (s *GormStore) Jobs(o datastore.ListOptions) (jj []Job, err error) {
	err = s.db.
		Order("created_at desc").
		Limit(o.Limit).
		Offset(o.Offset).
		Find(&jj).Error
	return
}

func (s *GormStore) Job(id uuid.UUID) (j Job, err error) {
	err = s.db.First(&j, "id = ?", id).Error
	return
}

func (s *GormStore) InsertJob(j *Job) error {
	return s.db.Create(j).Error
}

func (s *GormStore) UpdateJob(j *Job) error {
	return s.db.Save(j).Error
}

// AcceptJob tries to claim a schedulable job for execution. It guards
// against two pool instances picking up the same job by requiring the
// state transition to happen on the stored row.
func (s *GormStore) AcceptJob(j *Job, acceptedGracePeriod time.Duration) error {
	acceptedThreshold := time.Now().Add(-1 * acceptedGracePeriod)

	res := s.db.Model(j).
		Where("state in ? OR (state = ? AND updated_at < ?)",
			[]State{Init, NoAvailableWorkers, Error}, Accepted, acceptedThreshold).
		Updates(map[string]interface{}{
			"state":      Accepted,
			"exec_count": gorm.Expr("exec_count + 1"),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	j.State = Accepted
	j.ExecCount = j.ExecCount + 1

	return nil
}

// SchedulableJobs returns jobs that are up for a new execution attempt:
// jobs that never got a worker or errored recoverably, and jobs whose
// processing was disrupted (stuck in INIT or ACCEPTED past the grace
// period).
func (s *GormStore) SchedulableJobs(acceptedGracePeriod, reSchedulableGracePeriod time.Duration, o datastore.ListOptions) (jj []Job, err error) {
	acceptedThreshold := time.Now().Add(-1 * acceptedGracePeriod)
	reSchedulableThreshold := time.Now().Add(-1 * reSchedulableGracePeriod)

	err = s.db.
		Where("state in ? AND updated_at < ?", []State{Init, Accepted}, acceptedThreshold).
		Or("state in ? AND updated_at < ?", []State{NoAvailableWorkers, Error}, reSchedulableThreshold).
		Order("created_at desc").
		Limit(o.Limit).
		Offset(o.Offset).
		Find(&jj).Error
	return
}

func (s *GormStore) Status() (result []StatusQuery, err error) {
	err = s.db.Model(&Job{}).
		Select("state, count(*) as count").
		Group("state").
		Scan(&result).Error
	return
}
