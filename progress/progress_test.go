package progress

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func newTestProgress(out *bytes.Buffer) *Progress {
	writer := NewWriter(out)
	writer.now = fixedClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	return New(writer)
}

func TestActionCycle(t *testing.T) {
	out := &bytes.Buffer{}
	p := newTestProgress(out)

	failure := errors.New("duplicate entry")

	p.BeginAction("metadb", ActionInstall)
	p.BeginStage("metadb", StageDefaultData, 1)
	p.BeginTask("metadb", StageDefaultData, "metadb.iam_user", "insert iam_user")
	p.EndTask("metadb", StageDefaultData, "metadb.iam_user", "insert iam_user", failure)
	p.EndStage("metadb", StageDefaultData)
	p.EndAction("metadb", ActionInstall, nil)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, 6, strings.Count(out.String(), "["))
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "["), line)
		assert.True(t, strings.HasSuffix(line, "]"), line)
	}
	assert.Equal(t, "[2026-01-01 00:00:01.000 BEGIN_ACTION name=metadb action=INSTALL]", lines[0])
	assert.Contains(t, lines[1], "BEGIN_STAGE name=metadb stage=DEFAULT_DATA total=1")
	assert.Contains(t, lines[2], "BEGIN_TASK")
	assert.Contains(t, lines[3], "END_TASK")
	assert.Contains(t, lines[3], "error=*errors.fundamental: duplicate entry")
	assert.Contains(t, lines[4], "END_STAGE")
	assert.Contains(t, lines[5], "END_ACTION name=metadb action=INSTALL")

	run := p.Run("metadb")
	require.NotNil(t, run)
	assert.True(t, run.Done())
	assert.Equal(t, ActionInstall, run.Action())
	assert.Equal(t, failure, run.Error())

	stage := run.Stage(StageDefaultData)
	require.NotNil(t, stage)
	assert.Equal(t, 1, stage.TotalTasks())
	assert.Equal(t, 1, stage.FinishedTasks())
	assert.True(t, stage.Closed())
	assert.Equal(t, failure, stage.Error())
}

func TestEndActionOnce(t *testing.T) {
	out := &bytes.Buffer{}
	p := newTestProgress(out)

	p.BeginAction("metadb", ActionUpgrade)
	p.EndAction("metadb", ActionUpgrade, errors.New("boom"))
	p.EndAction("metadb", ActionUpgrade, nil)

	run := p.Run("metadb")
	assert.True(t, run.Done())
	assert.EqualError(t, run.Error(), "boom")
	assert.Equal(t, 1, strings.Count(out.String(), "END_ACTION"))

	// begin resets the run
	p.BeginAction("metadb", ActionUpgrade)
	assert.False(t, p.Run("metadb").Done())
	assert.NoError(t, p.Run("metadb").Error())
}

func TestTaskCounting(t *testing.T) {
	p := New(nil)
	p.BeginAction("metadb", ActionInstall)
	p.BeginStage("metadb", StageMigration, 2)

	// unmatched end does not count
	p.EndTask("metadb", StageMigration, "never-begun", "", nil)
	assert.Equal(t, 0, p.Run("metadb").Stage(StageMigration).FinishedTasks())

	for i := 0; i < 4; i++ {
		key := fmt.Sprintf("task-%d", i)
		p.BeginTask("metadb", StageMigration, key, key)
		p.EndTask("metadb", StageMigration, key, key, nil)
		stage := p.Run("metadb").Stage(StageMigration)
		assert.LessOrEqual(t, stage.FinishedTasks(), stage.TotalTasks())
	}
	assert.Equal(t, 2, p.Run("metadb").Stage(StageMigration).FinishedTasks())
	assert.NoError(t, p.Run("metadb").Error())

	// events for unknown runs are ignored
	p.BeginStage("other", StageSchema, 1)
	p.EndTask("other", StageSchema, "x", "", errors.New("ignored"))
	assert.Nil(t, p.Run("other"))
}

func TestConcurrentWriters(t *testing.T) {
	out := &bytes.Buffer{}
	p := newTestProgress(out)

	const workers = 8
	const tasks = 25

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		name := fmt.Sprintf("module-%d", w)
		wg.Add(2)
		go func() {
			defer wg.Done()
			p.BeginAction(name, ActionInstall)
			p.BeginStage(name, StageDefaultData, tasks)
			for i := 0; i < tasks; i++ {
				key := fmt.Sprintf("%s.%d", name, i)
				p.BeginTask(name, StageDefaultData, key, key)
				p.EndTask(name, StageDefaultData, key, key, nil)
			}
			p.EndStage(name, StageDefaultData)
			p.EndAction(name, ActionInstall, nil)
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < tasks; i++ {
				id := fmt.Sprintf("%s-bean-%d", name, i)
				p.BeginBean(id, "component")
				p.EndBean(id, "component")
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Len(t, lines, workers*(4+2*tasks)+workers*tasks*2)
	for _, line := range lines {
		assert.Equal(t, 1, strings.Count(line, "["), line)
		assert.Equal(t, 1, strings.Count(line, "]"), line)
	}
	for name, run := range p.Runs() {
		assert.True(t, run.Done(), name)
		assert.Equal(t, tasks, run.Stage(StageDefaultData).FinishedTasks(), name)
	}
	assert.Equal(t, int64(workers*tasks), p.Beans().InitializedCount())
	assert.Equal(t, 0, p.Beans().PendingCount())
}

func TestBeans(t *testing.T) {
	p := newTestProgress(&bytes.Buffer{})
	beans := p.Beans()

	p.BeginBean("a", "datasource")
	p.BeginBean("b", "hook")
	p.BeginBean("c", "hook")
	assert.Equal(t, []string{"a", "b", "c"}, beans.Pending())

	p.EndBean("a", "datasource")
	assert.Equal(t, 2, beans.PendingCount())
	assert.Equal(t, int64(1), beans.InitializedCount())

	mark := p.clock()

	p.EndBean("b", "hook")
	assert.Equal(t, 1, beans.PendingCount())
	assert.Equal(t, int64(2), beans.InitializedCount())

	// ending an unknown bean changes nothing
	p.EndBean("zzz", "hook")
	assert.Equal(t, 1, beans.PendingCount())
	assert.Equal(t, int64(2), beans.InitializedCount())

	after := beans.InitializedAfter(mark)
	require.Len(t, after, 1)
	assert.Equal(t, "b", after[0].ID)
	assert.Equal(t, "hook", after[0].Type)
	for _, bean := range after {
		assert.False(t, bean.InitializedAt.Before(mark))
	}
}

func TestApplicationReady(t *testing.T) {
	out := &bytes.Buffer{}
	p := newTestProgress(out)

	assert.False(t, p.ApplicationReady())
	p.OnApplicationReady()
	p.OnApplicationReady()
	assert.True(t, p.ApplicationReady())
	assert.Equal(t, 1, strings.Count(out.String(), "APPLICATION_READY"))
}

func TestWriterSanitizes(t *testing.T) {
	out := &bytes.Buffer{}
	w := NewWriter(out)
	require.NoError(t, w.Event("END_TASK", "error", "bad [value]\nnext"))
	line := strings.TrimSuffix(out.String(), "\n")
	assert.NotContains(t, line, "\n")
	assert.True(t, strings.HasSuffix(line, "END_TASK error=bad (value) next]"), line)
}

func TestStatusHandler(t *testing.T) {
	p := New(nil)
	p.BeginAction("metadb", ActionInstall)
	p.BeginStage("metadb", StageSchema, 1)

	handler := StatusHandler(p)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	p.BeginTask("metadb", StageSchema, "t", "t")
	p.EndTask("metadb", StageSchema, "t", "t", nil)
	p.EndStage("metadb", StageSchema)
	p.EndAction("metadb", ActionInstall, nil)
	p.OnApplicationReady()

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	status := Status{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.True(t, status.Ready)
	require.Len(t, status.Runs, 1)
	assert.Equal(t, "metadb", status.Runs[0].Name)
	assert.True(t, status.Runs[0].Done)
	require.Len(t, status.Runs[0].Stages, 1)
	assert.Equal(t, 1, status.Runs[0].Stages[0].FinishedTasks)
}

func TestParseAction(t *testing.T) {
	assert.Equal(t, ActionInstall, ParseAction("install"))
	assert.Equal(t, ActionUpgrade, ParseAction("UPGRADE"))
	assert.Equal(t, ActionUnknown, ParseAction(""))
	assert.Equal(t, "UNKNOWN", ActionUnknown.String())
}
