package progress

import "sync"

// StageProgress counts the tasks of one stage
type StageProgress struct {
	sync.RWMutex

	stage    Stage
	total    int
	finished int
	running  map[string]bool
	closed   bool
	err      error
}

func newStageProgress(stage Stage, total int) *StageProgress {
	if total < 0 {
		total = 0
	}
	return &StageProgress{
		stage:   stage,
		total:   total,
		running: make(map[string]bool),
	}
}

func (s *StageProgress) beginTask(key string) {
	s.Lock()
	defer s.Unlock()
	s.running[key] = true
}

// endTask counts a begun task as attempted, whether or not it failed
func (s *StageProgress) endTask(key string, err error) bool {
	s.Lock()
	defer s.Unlock()
	if !s.running[key] {
		return false
	}
	delete(s.running, key)
	if s.finished < s.total {
		s.finished++
	}
	if err != nil && s.err == nil {
		s.err = err
	}
	return true
}

func (s *StageProgress) close() {
	s.Lock()
	defer s.Unlock()
	s.closed = true
}

// Stage returns the stage name
func (s *StageProgress) Stage() Stage {
	return s.stage
}

// TotalTasks is fixed when the stage begins
func (s *StageProgress) TotalTasks() int {
	s.RLock()
	defer s.RUnlock()
	return s.total
}

// FinishedTasks never exceeds TotalTasks
func (s *StageProgress) FinishedTasks() int {
	s.RLock()
	defer s.RUnlock()
	return s.finished
}

// Closed reports if EndStage was called
func (s *StageProgress) Closed() bool {
	s.RLock()
	defer s.RUnlock()
	return s.closed
}

// Error returns the first task error of the stage
func (s *StageProgress) Error() error {
	s.RLock()
	defer s.RUnlock()
	return s.err
}
