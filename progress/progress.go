package progress

import (
	"strconv"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/titpetric/ocpbootstrap/internal/log"
)

// Progress is the process-lifetime progress store
type Progress struct {
	sync.RWMutex

	runs   map[string]*InstallUpgradeProgress
	beans  *BeanProgress
	ready  *atomic.Bool
	err    error
	writer *Writer
	now    func() time.Time
}

var _ Handler = &Progress{}

// New creates a *Progress; writer may be nil
func New(writer *Writer) *Progress {
	p := &Progress{
		runs:   make(map[string]*InstallUpgradeProgress),
		beans:  NewBeanProgress(),
		ready:  atomic.NewBool(false),
		writer: writer,
		now:    time.Now,
	}
	if writer != nil {
		p.now = writer.now
	}
	return p
}

// Attach sets the writer receiving subsequent events
func (p *Progress) Attach(writer *Writer) {
	p.Lock()
	defer p.Unlock()
	p.writer = writer
	if writer != nil {
		p.now = writer.now
	}
}

func (p *Progress) clock() time.Time {
	p.RLock()
	defer p.RUnlock()
	return p.now()
}

func (p *Progress) event(event string, fields ...string) {
	p.RLock()
	writer := p.writer
	p.RUnlock()
	if writer == nil {
		return
	}
	if err := writer.Event(event, fields...); err != nil {
		log.Warningf("can't write progress event %s: %v", event, err)
	}
}

func withError(fields []string, err error) []string {
	if err != nil {
		return append(fields, "error", describe(err))
	}
	return fields
}

// Run returns the progress of a named run, nil if it never began
func (p *Progress) Run(name string) *InstallUpgradeProgress {
	p.RLock()
	defer p.RUnlock()
	return p.runs[name]
}

// Runs returns every run, keyed by name
func (p *Progress) Runs() map[string]*InstallUpgradeProgress {
	p.RLock()
	defer p.RUnlock()
	result := make(map[string]*InstallUpgradeProgress, len(p.runs))
	for name, run := range p.runs {
		result[name] = run
	}
	return result
}

// Beans returns the component initialization tracker
func (p *Progress) Beans() *BeanProgress {
	return p.beans
}

// ApplicationReady reports if OnApplicationReady was called
func (p *Progress) ApplicationReady() bool {
	return p.ready.Load()
}

// SetError stores a global error
func (p *Progress) SetError(err error) {
	p.Lock()
	defer p.Unlock()
	p.err = err
}

// Error returns the global error
func (p *Progress) Error() error {
	p.RLock()
	defer p.RUnlock()
	return p.err
}

// BeginAction creates or resets the run for name
func (p *Progress) BeginAction(name string, action Action) {
	p.Lock()
	p.runs[name] = newInstallUpgradeProgress(name, action)
	p.Unlock()

	p.event("BEGIN_ACTION", "name", name, "action", action.String())
}

// BeginStage opens a stage counter with a fixed task total
func (p *Progress) BeginStage(name string, stage Stage, totalTasks int) {
	run := p.Run(name)
	if run == nil {
		log.Warningf("begin stage %s for unknown run %s", stage, name)
		return
	}
	run.beginStage(stage, totalTasks)

	p.event("BEGIN_STAGE", "name", name, "stage", string(stage), "total", strconv.Itoa(totalTasks))
}

func (p *Progress) stage(name string, stage Stage) (*InstallUpgradeProgress, *StageProgress) {
	run := p.Run(name)
	if run == nil {
		return nil, nil
	}
	return run, run.Stage(stage)
}

// BeginTask marks a task as started
func (p *Progress) BeginTask(name string, stage Stage, taskKey, taskLabel string) {
	_, s := p.stage(name, stage)
	if s == nil {
		log.Warningf("begin task %s for unknown stage %s/%s", taskKey, name, stage)
		return
	}
	s.beginTask(taskKey)

	p.event("BEGIN_TASK", "name", name, "stage", string(stage), "task", taskKey, "label", taskLabel)
}

// EndTask counts a begun task as attempted and records err on the stage
// and the run
func (p *Progress) EndTask(name string, stage Stage, taskKey, taskLabel string, err error) {
	run, s := p.stage(name, stage)
	if s == nil {
		log.Warningf("end task %s for unknown stage %s/%s", taskKey, name, stage)
		return
	}
	if !s.endTask(taskKey, err) {
		log.Warningf("end task %s without begin in %s/%s", taskKey, name, stage)
	}
	run.recordError(err)

	p.event("END_TASK", withError([]string{"name", name, "stage", string(stage), "task", taskKey, "label", taskLabel}, err)...)
}

// EndStage closes the task loop of a stage
func (p *Progress) EndStage(name string, stage Stage) {
	_, s := p.stage(name, stage)
	if s == nil {
		log.Warningf("end stage for unknown stage %s/%s", name, stage)
		return
	}
	s.close()

	p.event("END_STAGE", "name", name, "stage", string(stage))
}

// EndAction marks the run done once; err is stored apart from the done flag
func (p *Progress) EndAction(name string, action Action, err error) {
	run := p.Run(name)
	if run == nil {
		log.Warningf("end action for unknown run %s", name)
		return
	}
	if !run.end(err) {
		log.Warningf("run %s already ended", name)
		return
	}

	p.event("END_ACTION", withError([]string{"name", name, "action", action.String()}, err)...)
}

// BeginBean adds id to the pending set
func (p *Progress) BeginBean(id, typeName string) {
	p.beans.begin(id, typeName)

	p.event("BEGIN_BEAN", "id", id, "type", typeName)
}

// EndBean moves id out of the pending set
func (p *Progress) EndBean(id, typeName string) {
	if !p.beans.end(id, typeName, p.clock()) {
		log.Warningf("end bean %s without begin", id)
		return
	}

	p.event("END_BEAN", "id", id, "type", typeName)
}

// OnApplicationReady sets the ready flag, idempotent
func (p *Progress) OnApplicationReady() {
	if p.ready.CompareAndSwap(false, true) {
		p.event("APPLICATION_READY")
	}
}
