package tasks

// TaskSchedulerInterface defines the interface for task scheduling
// operations. The main application uses it to manage background import
// passes.
// Example usage:
//
//	scheduler := NewScheduler(sources, proc)
//	scheduler.Start()
//	defer scheduler.Stop()
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}
