package task

// Statistics is the per-project (or per-phase) task rollup shown on the
// dashboard. Every status and priority bucket is always present, even at
// zero, so chart rendering never has to special-case missing keys.
type Statistics struct {
	TotalTasks int              `json:"total_tasks"`
	ByStatus   map[Status]int   `json:"by_status"`
	ByPriority map[Priority]int `json:"by_priority"`

	// CompletionRate is completed/total*100; 0 when there are no tasks.
	CompletionRate float64 `json:"completion_rate"`
	// OnTimeRate is onTime/completed*100, where a task is on time when
	// it has an actual end date no later than its due date.
	OnTimeRate      float64 `json:"on_time_rate"`
	AverageProgress float64 `json:"average_progress"`

	EstimatedHours float64 `json:"estimated_hours"`
	ActualHours    float64 `json:"actual_hours"`
	MetricCount    int     `json:"metric_count"`
	ModelCount     int     `json:"model_count"`
}

// Aggregate computes Statistics in a single pass over tasks.
func Aggregate(tasks []Task) Statistics {
	stats := Statistics{
		ByStatus:   make(map[Status]int, len(Statuses)),
		ByPriority: make(map[Priority]int, len(Priorities)),
	}
	for _, s := range Statuses {
		stats.ByStatus[s] = 0
	}
	for _, p := range Priorities {
		stats.ByPriority[p] = 0
	}

	var completed, onTime int
	var progressSum float64
	for i := range tasks {
		t := &tasks[i]
		stats.TotalTasks++
		stats.ByStatus[t.Status]++
		stats.ByPriority[t.Priority]++
		stats.EstimatedHours += t.EstimatedHours
		stats.ActualHours += t.ActualHours
		stats.MetricCount += len(t.MetricAssignments)
		stats.ModelCount += len(t.ModelSubmissions)
		progressSum += t.Progress

		if t.Status == StatusCompleted {
			completed++
			if t.ActualEndDate != nil && t.DueDate != nil && !t.ActualEndDate.After(*t.DueDate) {
				onTime++
			}
		}
	}

	if stats.TotalTasks > 0 {
		stats.CompletionRate = float64(completed) / float64(stats.TotalTasks) * 100
		stats.AverageProgress = progressSum / float64(stats.TotalTasks)
	}
	if completed > 0 {
		stats.OnTimeRate = float64(onTime) / float64(completed) * 100
	}
	return stats
}
