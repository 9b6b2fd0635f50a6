package timer

import (
	"container/heap"
	"sync"
	"time"
)

type Task struct {
	ID       int64
	Execute  time.Time
	Interval time.Duration
	Callback func()
	index    int
}

type taskQueue []*Task

func (q taskQueue) Len() int { return len(q) }

func (q taskQueue) Less(i, j int) bool {
	return q[i].Execute.Before(q[j].Execute)
}

func (q taskQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *taskQueue) Push(x any) {
	task := x.(*Task)
	task.index = len(*q)
	*q = append(*q, task)
}

func (q *taskQueue) Pop() any {
	old := *q
	n := len(old)
	task := old[n-1]
	old[n-1] = nil
	task.index = -1
	*q = old[:n-1]
	return task
}

// Scheduler runs delayed and repeating callbacks. Due tasks are checked every
// resolution, and each callback runs on its own goroutine.
type Scheduler struct {
	queue  taskQueue
	mutex  sync.Mutex
	nextID int64
	now    func() time.Time
	loop   *Loop
}

func NewScheduler(resolution time.Duration) *Scheduler {
	s := &Scheduler{
		nextID: 1,
		now:    time.Now,
	}
	heap.Init(&s.queue)
	s.loop = NewLoop(resolution, s.fire)
	s.loop.Start()
	return s
}

// AddTimer schedules callback after delay. A positive interval makes the task
// repeat until removed.
func (s *Scheduler) AddTimer(delay, interval time.Duration, callback func()) int64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	task := &Task{
		ID:       s.nextID,
		Execute:  s.now().Add(delay),
		Interval: interval,
		Callback: callback,
	}
	s.nextID++

	heap.Push(&s.queue, task)
	return task.ID
}

// RemoveTimer cancels a pending task. It reports whether the task was found.
func (s *Scheduler) RemoveTimer(id int64) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for i, task := range s.queue {
		if task.ID == id {
			heap.Remove(&s.queue, i)
			return true
		}
	}
	return false
}

func (s *Scheduler) Pending() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.queue.Len()
}

// Stop halts the scheduler. Pending tasks never fire.
func (s *Scheduler) Stop() {
	s.loop.Stop()
}

func (s *Scheduler) fire() {
	s.mutex.Lock()
	now := s.now()
	var due []func()
	for s.queue.Len() > 0 {
		task := s.queue[0]
		if task.Execute.After(now) {
			break
		}
		heap.Pop(&s.queue)
		due = append(due, task.Callback)

		if task.Interval > 0 {
			task.Execute = now.Add(task.Interval)
			heap.Push(&s.queue, task)
		}
	}
	s.mutex.Unlock()

	for _, cb := range due {
		go cb()
	}
}
