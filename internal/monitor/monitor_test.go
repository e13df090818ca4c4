package monitor

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scribblerbot/scribbler/internal/database"
	"github.com/scribblerbot/scribbler/internal/model"
	"github.com/scribblerbot/scribbler/internal/session"
	"github.com/scribblerbot/scribbler/pkg/core"
)

type fakeSource struct{}

func (fakeSource) Backlog() model.WriteQueueLengths {
	return model.WriteQueueLengths{Paths: 1, Samples: 20, Statuses: 3}
}
func (fakeSource) Dropped() uint64                       { return 4 }
func (fakeSource) GetLastDBWriteDuration() time.Duration { return 2500 * time.Microsecond }

func started(id uint) *session.Context {
	sess := session.NewContext()
	sess.Set(&core.Session{ID: id})
	return sess
}

func TestSnapshot(t *testing.T) {
	s := NewService(Dependencies{Recorder: fakeSource{}, Session: started(9)})
	now := time.Unix(1_800_000_000, 0)

	perf := s.Snapshot(now)
	assert.Equal(t, now, perf.Time)
	assert.Equal(t, uint(9), perf.SessionID)
	assert.Equal(t, 20, perf.WriteQueueLengths.Samples)
	assert.Equal(t, uint64(4), perf.Dropped)
	assert.InDelta(t, 2.5, perf.LastWriteDurationMs, 1e-6)
}

func TestReport_WritesStatusFile(t *testing.T) {
	dir := t.TempDir()
	s := NewService(Dependencies{Recorder: fakeSource{}, Session: started(1), LogsDir: dir})

	require.NoError(t, s.Report(time.Now()))

	data, err := os.ReadFile(filepath.Join(dir, StatusFileName))
	require.NoError(t, err)

	var perf model.RecorderPerformance
	require.NoError(t, json.Unmarshal(data, &perf))
	assert.Equal(t, 3, perf.WriteQueueLengths.Statuses)
}

func TestReport_StoresPerformanceRow(t *testing.T) {
	db, err := database.OpenSQLite(database.MemorySQLite)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	s := NewService(Dependencies{Recorder: fakeSource{}, Session: started(5), LogsDir: t.TempDir(), DB: db})
	require.NoError(t, s.Report(time.Now()))

	var rows []model.RecorderPerformance
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, uint(5), rows[0].SessionID)
	assert.Equal(t, 1, rows[0].WriteQueueLengths.Paths)
}

func TestReport_NoRowWithoutSession(t *testing.T) {
	db, err := database.OpenSQLite(database.MemorySQLite)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	s := NewService(Dependencies{Recorder: fakeSource{}, Session: session.NewContext(), LogsDir: t.TempDir(), DB: db})
	require.NoError(t, s.Report(time.Now()))

	var count int64
	require.NoError(t, db.Model(&model.RecorderPerformance{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestStartStop(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	s := NewService(Dependencies{
		Recorder: fakeSource{},
		Session:  started(1),
		LogsDir:  dir,
		Interval: 5 * time.Millisecond,
	})

	require.NoError(t, s.Start())
	assert.True(t, s.IsRunning())
	require.NoError(t, s.Start(), "second start is a no-op")

	assert.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(dir, StatusFileName))
		return err == nil
	}, time.Second, 5*time.Millisecond)

	s.Stop()
	assert.False(t, s.IsRunning())
	s.Stop()
}
