package task

// EventModeSwitched fires after an approved mode switch has been applied
// and the settle delay elapsed.
const EventModeSwitched = "taskModeSwitched"

// Event is a task lifecycle notification.
type Event struct {
	Name   string
	TaskID string
	Data   map[string]string
}
