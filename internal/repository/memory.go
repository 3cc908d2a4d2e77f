package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/rlsguard/stats-service/internal/models"
)

// MemoryDataStore keeps progress records and summary rows in process memory.
type MemoryDataStore struct {
	mu         sync.RWMutex
	progress   map[string][]models.ProgressRecord
	statistics []models.ClassStatistics
}

func NewMemoryDataStore(records ...models.ProgressRecord) *MemoryDataStore {
	s := &MemoryDataStore{
		progress: make(map[string][]models.ProgressRecord),
	}
	s.AddProgress(records...)
	return s
}

// LoadSeedFile reads a JSON array of progress records from path.
func (s *MemoryDataStore) LoadSeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var records []models.ProgressRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	s.AddProgress(records...)
	return nil
}

func (s *MemoryDataStore) AddProgress(records ...models.ProgressRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, record := range records {
		s.progress[record.ClassroomID] = append(s.progress[record.ClassroomID], record)
	}
}

func (s *MemoryDataStore) Progress() ProgressRepository {
	return memoryProgress{s}
}

func (s *MemoryDataStore) Statistics() StatisticsRepository {
	return memoryStatistics{s}
}

func (s *MemoryDataStore) Driver() string {
	return "memory"
}

func (s *MemoryDataStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryDataStore) Close() error {
	return nil
}

// StatisticsCount returns the number of summary rows written so far.
func (s *MemoryDataStore) StatisticsCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.statistics)
}

type memoryProgress struct {
	s *MemoryDataStore
}

func (m memoryProgress) GetByClassroomID(ctx context.Context, classroomID string) ([]models.ProgressRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	records := m.s.progress[classroomID]
	out := make([]models.ProgressRecord, len(records))
	copy(out, records)
	return out, nil
}

type memoryStatistics struct {
	s *MemoryDataStore
}

func (m memoryStatistics) Create(ctx context.Context, stats *models.ClassStatistics) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	m.s.statistics = append(m.s.statistics, *stats)
	return nil
}

func (m memoryStatistics) GetLatestByClassroomID(ctx context.Context, classroomID string) (*models.ClassStatistics, error) {
	rows := m.byClassroom(classroomID)
	if len(rows) == 0 {
		return nil, nil
	}
	latest := rows[0]
	return &latest, nil
}

func (m memoryStatistics) ListByClassroomID(ctx context.Context, classroomID string, limit, offset int) ([]models.ClassStatistics, int, error) {
	rows := m.byClassroom(classroomID)
	total := len(rows)

	if offset >= total {
		return []models.ClassStatistics{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return rows[offset:end], total, nil
}

// byClassroom returns the classroom's rows newest first; rows with the same
// calculation date keep reverse insertion order.
func (m memoryStatistics) byClassroom(classroomID string) []models.ClassStatistics {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var rows []models.ClassStatistics
	for i := len(m.s.statistics) - 1; i >= 0; i-- {
		if m.s.statistics[i].ClassroomID == classroomID {
			rows = append(rows, m.s.statistics[i])
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].CalculationDate.After(rows[j].CalculationDate)
	})
	return rows
}
