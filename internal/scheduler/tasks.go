package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskDailyBackup = "backup.daily"

// DailyBackupPayload optionally pins the backup date (yyyy-mm-dd). The
// periodic task leaves it empty and the worker uses today's date.
type DailyBackupPayload struct {
	Date string `json:"date,omitempty"`
}

func NewDailyBackupTask(payload DailyBackupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDailyBackup, data), nil
}

func ParseDailyBackupPayload(task *asynq.Task) (DailyBackupPayload, error) {
	var payload DailyBackupPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DailyBackupPayload{}, err
	}
	return payload, nil
}
