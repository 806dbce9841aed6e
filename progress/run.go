package progress

import "sync"

// InstallUpgradeProgress is the state of one named run
type InstallUpgradeProgress struct {
	sync.RWMutex

	name   string
	action Action
	stages map[Stage]*StageProgress
	order  []Stage
	done   bool
	err    error
}

func newInstallUpgradeProgress(name string, action Action) *InstallUpgradeProgress {
	return &InstallUpgradeProgress{
		name:   name,
		action: action,
		stages: make(map[Stage]*StageProgress),
	}
}

// Name of the run
func (p *InstallUpgradeProgress) Name() string {
	return p.name
}

// Action of the run
func (p *InstallUpgradeProgress) Action() Action {
	p.RLock()
	defer p.RUnlock()
	return p.action
}

// Done reports if EndAction was called
func (p *InstallUpgradeProgress) Done() bool {
	p.RLock()
	defer p.RUnlock()
	return p.done
}

// Error returns the action error, or the first task error recorded on any
// stage of the run
func (p *InstallUpgradeProgress) Error() error {
	p.RLock()
	defer p.RUnlock()
	return p.err
}

// Stage returns the progress of a stage, nil if it never began
func (p *InstallUpgradeProgress) Stage(stage Stage) *StageProgress {
	p.RLock()
	defer p.RUnlock()
	return p.stages[stage]
}

// Stages returns stage progress in the order stages began
func (p *InstallUpgradeProgress) Stages() []*StageProgress {
	p.RLock()
	defer p.RUnlock()
	result := make([]*StageProgress, 0, len(p.order))
	for _, stage := range p.order {
		result = append(result, p.stages[stage])
	}
	return result
}

func (p *InstallUpgradeProgress) beginStage(stage Stage, total int) *StageProgress {
	p.Lock()
	defer p.Unlock()
	if _, ok := p.stages[stage]; !ok {
		p.order = append(p.order, stage)
	}
	s := newStageProgress(stage, total)
	p.stages[stage] = s
	return s
}

func (p *InstallUpgradeProgress) recordError(err error) {
	if err == nil {
		return
	}
	p.Lock()
	defer p.Unlock()
	if p.err == nil {
		p.err = err
	}
}

// end marks the run done, reporting false if it already was
func (p *InstallUpgradeProgress) end(err error) bool {
	p.Lock()
	defer p.Unlock()
	if p.done {
		return false
	}
	p.done = true
	if err != nil {
		p.err = err
	}
	return true
}
