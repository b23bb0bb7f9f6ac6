package jobs

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Job database model
type Job struct {
	ID                     uuid.UUID      `gorm:"column:id;primary_key;type:uuid;"`
	Type                   string         `gorm:"column:type"`
	State                  State          `gorm:"column:state;default:INIT"`
	Error                  string         `gorm:"column:error"`
	Errors                 StringSlice    `gorm:"column:errors"`
	Result                 string         `gorm:"column:result"`
	EntityID               string         `gorm:"column:entity_id"`
	ExecCount              int            `gorm:"column:exec_count;default:0"`
	CreatedAt              time.Time      `gorm:"column:created_at"`
	UpdatedAt              time.Time      `gorm:"column:updated_at"`
	DeletedAt              gorm.DeletedAt `gorm:"column:deleted_at;index"`
	ShouldSendNotification bool           `gorm:"-"` // Whether or not to notify admin (via webhook for example)
	Attributes             datatypes.JSON `gorm:"attributes"`
}

func (Job) TableName() string {
	return "jobs"
}

func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	return nil
}

// StringSlice is stored as a JSON array so it works across all the
// supported database drivers.
type StringSlice []string

func (ss StringSlice) Value() (driver.Value, error) {
	if ss == nil {
		return nil, nil
	}
	b, err := json.Marshal([]string(ss))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (ss *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*ss = nil
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringSlice: %T", value)
	}
	return json.Unmarshal(b, (*[]string)(ss))
}

type JSONResponse struct {
	ID        uuid.UUID `json:"jobId"`
	Type      string    `json:"type"`
	State     State     `json:"state"`
	Error     string    `json:"error"`
	Errors    []string  `json:"errors"`
	Result    string    `json:"result"`
	EntityID  string    `json:"entityId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (j Job) ToJSONResponse() JSONResponse {
	return JSONResponse{
		ID:        j.ID,
		Type:      j.Type,
		State:     j.State,
		Error:     j.Error,
		Errors:    j.Errors,
		Result:    j.Result,
		EntityID:  j.EntityID,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
