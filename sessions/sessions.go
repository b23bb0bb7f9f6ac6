package sessions

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunState is the lifecycle state of an app run session.
type RunState string

const (
	// PoweringOn means the companion executable has been launched and
	// the shell is waiting for its handshake.
	PoweringOn RunState = "POWERING_ON"
	Ready      RunState = "READY"
	Running    RunState = "RUNNING"
	Paused     RunState = "PAUSED"
	Stopped    RunState = "STOPPED"
	Finished   RunState = "FINISHED"
)

var validTransitions = map[RunState][]RunState{
	PoweringOn: {Ready, Stopped, Finished},
	Ready:      {Running, Stopped, Finished},
	Running:    {Paused, Stopped, Finished},
	Paused:     {Running, Stopped, Finished},
	Stopped:    {},
	Finished:   {},
}

// CanTransition reports whether moving to the given state is a legal
// step in the run state machine.
func (s RunState) CanTransition(to RunState) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the session has ended.
func (s RunState) IsTerminal() bool {
	return s == Stopped || s == Finished
}

// Session database model
type Session struct {
	ID        uuid.UUID      `gorm:"column:id;primary_key;type:uuid;" json:"sessionId"`
	AppID     string         `gorm:"column:app_id;index" json:"appId"`
	State     RunState       `gorm:"column:state;default:POWERING_ON" json:"state"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
