package scheduler

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"pechincha/models"
)

// ExtractFunc resolves a URL to product data.
type ExtractFunc func(url string) (*models.ScrapedProduct, error)

// TaskManager manages async extraction tasks. The worker counter is
// atomic: workers decrement it from their own goroutines while the
// dispatch loop reads it.
type TaskManager struct {
	tasks       map[string]*models.ExtractionTask
	taskQueue   chan *models.ExtractionTask
	workers     atomic.Int32
	maxWorkers  int
	extractFunc ExtractFunc
	mutex       sync.RWMutex
	stopChan    chan bool
}

// NewTaskManager creates a new task manager
func NewTaskManager(extractFunc ExtractFunc, maxWorkers int) *TaskManager {
	tm := &TaskManager{
		tasks:       make(map[string]*models.ExtractionTask),
		taskQueue:   make(chan *models.ExtractionTask, 100), // Buffer for 100 tasks
		maxWorkers:  maxWorkers,
		extractFunc: extractFunc,
		stopChan:    make(chan bool),
	}

	go tm.processTasks()
	log.Printf("🚀 Task manager started with %d max workers", maxWorkers)
	return tm
}

// SubmitTask submits a new extraction task
func (tm *TaskManager) SubmitTask(url string) *models.ExtractionTask {
	task := models.NewExtractionTask(url)

	tm.mutex.Lock()
	tm.tasks[task.ID] = task
	tm.mutex.Unlock()

	select {
	case tm.taskQueue <- task:
		log.Printf("📝 Task %s submitted for %s", task.ID, url)
	default:
		task.Fail("Task queue is full")
		log.Printf("❌ Failed to submit task %s - queue full", task.ID)
	}

	return task
}

// GetTask returns a task by ID
func (tm *TaskManager) GetTask(taskID string) (*models.ExtractionTask, bool) {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	task, exists := tm.tasks[taskID]
	return task, exists
}

// GetActiveTasks returns all active tasks
func (tm *TaskManager) GetActiveTasks() []*models.ExtractionTask {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	var activeTasks []*models.ExtractionTask
	for _, task := range tm.tasks {
		if task.IsActive() {
			activeTasks = append(activeTasks, task)
		}
	}

	return activeTasks
}

// CleanupOldTasks removes completed tasks older than specified duration
func (tm *TaskManager) CleanupOldTasks(maxAge time.Duration) {
	tm.mutex.Lock()
	defer tm.mutex.Unlock()

	cutoff := time.Now().Add(-maxAge)
	for taskID, task := range tm.tasks {
		if task.IsCompleted() && task.CreatedAt.Before(cutoff) {
			delete(tm.tasks, taskID)
			log.Printf("🧹 Cleaned up old task: %s", taskID)
		}
	}
}

// processTasks processes tasks from the queue
func (tm *TaskManager) processTasks() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case task := <-tm.taskQueue:
			// Only this loop increments, so a load-then-add cannot
			// overshoot: concurrent workers only decrement.
			if int(tm.workers.Load()) < tm.maxWorkers {
				tm.workers.Add(1)
				go tm.worker(task)
			} else {
				// Re-queue the task if we're at max workers
				go func() {
					time.Sleep(1 * time.Second)
					select {
					case tm.taskQueue <- task:
						log.Printf("🔄 Re-queued task %s (max workers reached)", task.ID)
					default:
						task.Fail("System overloaded, unable to process task")
						log.Printf("❌ Failed to re-queue task %s", task.ID)
					}
				}()
			}

		case <-ticker.C:
			tm.CleanupOldTasks(1 * time.Hour) // Keep tasks for 1 hour

		case <-tm.stopChan:
			log.Println("🛑 Task manager stopped")
			return
		}
	}
}

// worker processes a single task
func (tm *TaskManager) worker(task *models.ExtractionTask) {
	defer func() {
		active := tm.workers.Add(-1)
		log.Printf("👷 Worker finished, active workers: %d", active)
	}()

	log.Printf("👷 Worker started processing task %s for %s", task.ID, task.URL)

	task.Start()
	task.Progress = 10
	task.Message = "Running extraction strategies..."

	product, err := tm.extractFunc(task.URL)
	if err != nil {
		task.Fail("Extraction failed: " + err.Error())
		return
	}

	task.Complete(product)
	log.Printf("✅ Task %s completed successfully in %v", task.ID, task.Duration())
}

// Stop stops the task manager
func (tm *TaskManager) Stop() {
	close(tm.stopChan)
	log.Println("🛑 Task manager stopping...")
}

// GetStats returns task manager statistics
func (tm *TaskManager) GetStats() map[string]interface{} {
	tm.mutex.RLock()
	defer tm.mutex.RUnlock()

	stats := map[string]interface{}{
		"total_tasks":    len(tm.tasks),
		"active_workers": int(tm.workers.Load()),
		"max_workers":    tm.maxWorkers,
		"queue_size":     len(tm.taskQueue),
	}

	statusCounts := make(map[string]int)
	for _, task := range tm.tasks {
		status := string(task.Status)
		statusCounts[status]++
	}
	stats["tasks_by_status"] = statusCounts

	return stats
}
