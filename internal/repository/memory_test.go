package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlsguard/stats-service/internal/models"
)

var baseTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func progress(id, classroom string) models.ProgressRecord {
	return models.ProgressRecord{
		ID:             id,
		StudentID:      "stu-" + id,
		ClassroomID:    classroom,
		SchoolID:       "S1",
		AssignmentName: "Quiz",
		Score:          7,
		MaxScore:       10,
	}
}

func summary(id, classroom string, at time.Time) *models.ClassStatistics {
	return &models.ClassStatistics{
		ID:              id,
		ClassroomID:     classroom,
		SchoolID:        "S1",
		AverageScore:    70,
		CalculationDate: at,
		CreatedAt:       at,
	}
}

func TestMemoryProgress_GetByClassroomID(t *testing.T) {
	store := NewMemoryDataStore(progress("p1", "C1"), progress("p2", "C2"), progress("p3", "C1"))
	ctx := context.Background()

	records, err := store.Progress().GetByClassroomID(ctx, "C1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "p1", records[0].ID)
	assert.Equal(t, "p3", records[1].ID)

	// Callers get a copy.
	records[0].Score = 0
	again, err := store.Progress().GetByClassroomID(ctx, "C1")
	require.NoError(t, err)
	assert.Equal(t, float64(7), again[0].Score)

	none, err := store.Progress().GetByClassroomID(ctx, "C404")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryProgress_CancelledContext(t *testing.T) {
	store := NewMemoryDataStore(progress("p1", "C1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Progress().GetByClassroomID(ctx, "C1")
	assert.ErrorIs(t, err, context.Canceled)

	err = store.Statistics().Create(ctx, summary("s1", "C1", baseTime))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.StatisticsCount())
}

func TestMemoryStatistics_AppendOnly(t *testing.T) {
	store := NewMemoryDataStore()
	ctx := context.Background()
	stats := store.Statistics()

	require.NoError(t, stats.Create(ctx, summary("s1", "C1", baseTime)))
	require.NoError(t, stats.Create(ctx, summary("s2", "C1", baseTime.Add(time.Hour))))
	require.NoError(t, stats.Create(ctx, summary("s3", "C2", baseTime.Add(2*time.Hour))))
	// Same content twice is still two rows.
	require.NoError(t, stats.Create(ctx, summary("s4", "C1", baseTime.Add(time.Hour))))

	assert.Equal(t, 4, store.StatisticsCount())

	latest, err := stats.GetLatestByClassroomID(ctx, "C1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "s4", latest.ID)

	rows, total, err := stats.ListByClassroomID(ctx, "C1", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"s4", "s2", "s1"}, []string{rows[0].ID, rows[1].ID, rows[2].ID})

	page, total, err := stats.ListByClassroomID(ctx, "C1", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "s2", page[0].ID)

	past, total, err := stats.ListByClassroomID(ctx, "C1", 10, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Empty(t, past)
}

func TestMemoryStatistics_LatestMissing(t *testing.T) {
	store := NewMemoryDataStore()

	latest, err := store.Statistics().GetLatestByClassroomID(context.Background(), "C1")
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestMemoryDataStore_LoadSeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `[
		{"id": "p1", "student_id": "stu-1", "classroom_id": "C1", "school_id": "S1",
		 "assignment_name": "Quiz 1", "score": 80, "max_score": 100, "student_name": "Ada"},
		{"id": "p2", "student_id": "stu-2", "classroom_id": "C1", "school_id": "S1",
		 "assignment_name": "Quiz 2", "score": 45, "max_score": 50}
	]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	store := NewMemoryDataStore()
	require.NoError(t, store.LoadSeedFile(path))

	records, err := store.Progress().GetByClassroomID(context.Background(), "C1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.NotNil(t, records[0].StudentName)
	assert.Equal(t, "Ada", *records[0].StudentName)
	assert.Nil(t, records[1].StudentName)
	assert.Equal(t, float64(50), records[1].MaxScore)
}

func TestMemoryDataStore_LoadSeedFileErrors(t *testing.T) {
	store := NewMemoryDataStore()
	assert.Error(t, store.LoadSeedFile(filepath.Join(t.TempDir(), "missing.json")))

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"not": "an array"}`), 0o600))
	assert.Error(t, store.LoadSeedFile(path))
}

func TestMemoryArchiveRepository(t *testing.T) {
	archive := NewMemoryArchiveRepository()
	payload := &models.ClassStatisticsPayload{ClassroomID: "C1", SchoolID: "S1", AverageScore: 83.33}

	require.NoError(t, archive.Insert(context.Background(), models.NewSnapshot("s1", payload, baseTime)))

	snapshots := archive.Snapshots()
	require.Len(t, snapshots, 1)
	assert.Equal(t, "s1", snapshots[0].SnapshotID)
	assert.Equal(t, 83.33, snapshots[0].AverageScore)
	assert.Equal(t, baseTime, snapshots[0].CreatedAt)
	assert.Equal(t, "memory", archive.Name())
	assert.NoError(t, archive.Ping(context.Background()))
}

func TestSnapshotObjectKey(t *testing.T) {
	snapshot := models.NewSnapshot("abc", &models.ClassStatisticsPayload{ClassroomID: "C1", SchoolID: "S1"}, baseTime)
	assert.Equal(t, "S1/C1/abc.json", SnapshotObjectKey(snapshot))
}
