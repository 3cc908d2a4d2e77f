package service

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlsguard/stats-service/internal/models"
)

var calcTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func record(id, student, assignment string, score, maxScore float64) models.ProgressRecord {
	return models.ProgressRecord{
		ID:             id,
		StudentID:      student,
		ClassroomID:    "C1",
		SchoolID:       "S1",
		AssignmentName: assignment,
		Score:          score,
		MaxScore:       maxScore,
	}
}

func TestAggregate_Example(t *testing.T) {
	records := []models.ProgressRecord{
		record("p1", "stu-1", "Quiz 1", 80, 100),
		record("p2", "stu-2", "Quiz 2", 45, 50),
		record("p3", "stu-1", "Quiz 1", 8, 10),
	}
	records[0].StudentName = strPtr("Ada Lovelace")
	records[1].StudentName = strPtr("Alan Turing")

	stats, ok := Aggregate("C1", "S1", records, calcTime)
	require.True(t, ok)

	assert.Equal(t, "C1", stats.ClassroomID)
	assert.Equal(t, "S1", stats.SchoolID)
	assert.Equal(t, 3, stats.TotalAssignments)
	assert.Equal(t, 2, stats.TotalStudents)
	assert.Equal(t, 83.33, stats.AverageScore)
	assert.Equal(t, calcTime, stats.CalculationDate)

	assert.Equal(t, []models.AssignmentStatistics{
		{AssignmentName: "Quiz 1", AverageScore: 80, TotalSubmissions: 2, HighestScore: 80, LowestScore: 80},
		{AssignmentName: "Quiz 2", AverageScore: 90, TotalSubmissions: 1, HighestScore: 90, LowestScore: 90},
	}, stats.AssignmentStatistics)

	assert.Equal(t, []models.StudentStatistics{
		{StudentID: "stu-1", StudentName: "Ada Lovelace", AverageScore: 80, TotalAssignments: 2, HighestScore: 80, LowestScore: 80},
		{StudentID: "stu-2", StudentName: "Alan Turing", AverageScore: 90, TotalAssignments: 1, HighestScore: 90, LowestScore: 90},
	}, stats.StudentStatistics)

	assert.Equal(t, models.StatisticsMetadata{
		CalculatedAt:    calcTime,
		TotalDataPoints: 3,
		ExcludedRecords: 0,
	}, stats.Metadata)
}

func TestAggregate_Empty(t *testing.T) {
	stats, ok := Aggregate("C1", "S1", nil, calcTime)
	assert.False(t, ok)
	assert.Nil(t, stats)
}

func TestAggregate_NonPositiveMaxScoreIsExcluded(t *testing.T) {
	tests := []struct {
		name         string
		records      []models.ProgressRecord
		wantOK       bool
		wantAverage  float64
		wantTotal    int
		wantExcluded int
	}{
		{
			name: "zero max score",
			records: []models.ProgressRecord{
				record("p1", "stu-1", "Quiz", 80, 100),
				record("p2", "stu-2", "Quiz", 5, 0),
			},
			wantOK:       true,
			wantAverage:  80,
			wantTotal:    1,
			wantExcluded: 1,
		},
		{
			name: "negative max score",
			records: []models.ProgressRecord{
				record("p1", "stu-1", "Quiz", 3, 4),
				record("p2", "stu-1", "Quiz", 3, -4),
			},
			wantOK:       true,
			wantAverage:  75,
			wantTotal:    1,
			wantExcluded: 1,
		},
		{
			name: "non-finite score",
			records: []models.ProgressRecord{
				record("p1", "stu-1", "Quiz", math.NaN(), 10),
				record("p2", "stu-1", "Quiz", 10, 10),
				record("p3", "stu-1", "Quiz", math.Inf(1), 10),
			},
			wantOK:       true,
			wantAverage:  100,
			wantTotal:    1,
			wantExcluded: 2,
		},
		{
			name: "every record excluded",
			records: []models.ProgressRecord{
				record("p1", "stu-1", "Quiz", 5, 0),
				record("p2", "stu-2", "Quiz", 0, 0),
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats, ok := Aggregate("C1", "S1", tt.records, calcTime)
			require.Equal(t, tt.wantOK, ok)
			if !ok {
				assert.Nil(t, stats)
				return
			}

			assert.False(t, math.IsNaN(stats.AverageScore))
			assert.False(t, math.IsInf(stats.AverageScore, 0))
			assert.Equal(t, tt.wantAverage, stats.AverageScore)
			assert.Equal(t, tt.wantTotal, stats.TotalAssignments)
			assert.Equal(t, tt.wantExcluded, stats.Metadata.ExcludedRecords)
			assert.Equal(t, len(tt.records), stats.Metadata.TotalDataPoints)
		})
	}
}

func TestAggregate_AssignmentNamesMatchExactly(t *testing.T) {
	records := []models.ProgressRecord{
		record("p1", "stu-1", "Quiz 1", 10, 10),
		record("p2", "stu-1", "quiz 1", 5, 10),
		record("p3", "stu-1", "Quiz 1 ", 0, 10),
		record("p4", "stu-2", "Quiz 1", 7, 10),
	}

	stats, ok := Aggregate("C1", "S1", records, calcTime)
	require.True(t, ok)
	require.Len(t, stats.AssignmentStatistics, 3)

	assert.Equal(t, "Quiz 1", stats.AssignmentStatistics[0].AssignmentName)
	assert.Equal(t, 2, stats.AssignmentStatistics[0].TotalSubmissions)
	assert.Equal(t, 85.0, stats.AssignmentStatistics[0].AverageScore)
	assert.Equal(t, 100.0, stats.AssignmentStatistics[0].HighestScore)
	assert.Equal(t, 70.0, stats.AssignmentStatistics[0].LowestScore)

	assert.Equal(t, "quiz 1", stats.AssignmentStatistics[1].AssignmentName)
	assert.Equal(t, "Quiz 1 ", stats.AssignmentStatistics[2].AssignmentName)
}

func TestAggregate_GroupOrderFollowsFirstOccurrence(t *testing.T) {
	records := []models.ProgressRecord{
		record("p1", "stu-c", "Essay", 1, 2),
		record("p2", "stu-a", "Lab", 1, 2),
		record("p3", "stu-b", "Essay", 1, 2),
		record("p4", "stu-a", "Midterm", 1, 2),
	}

	stats, ok := Aggregate("C1", "S1", records, calcTime)
	require.True(t, ok)

	var assignments, students []string
	for _, a := range stats.AssignmentStatistics {
		assignments = append(assignments, a.AssignmentName)
	}
	for _, s := range stats.StudentStatistics {
		students = append(students, s.StudentID)
	}

	assert.Equal(t, []string{"Essay", "Lab", "Midterm"}, assignments)
	assert.Equal(t, []string{"stu-c", "stu-a", "stu-b"}, students)
}

func TestAggregate_StudentName(t *testing.T) {
	first := record("p1", "stu-1", "Quiz", 1, 1)
	second := record("p2", "stu-1", "Quiz", 1, 1)
	second.StudentName = strPtr("Grace Hopper")
	third := record("p3", "stu-1", "Quiz", 1, 1)
	third.StudentName = strPtr("G. Hopper")
	anonymous := record("p4", "stu-2", "Quiz", 1, 1)
	blank := record("p5", "stu-3", "Quiz", 1, 1)
	blank.StudentName = strPtr("")

	stats, ok := Aggregate("C1", "S1", []models.ProgressRecord{first, second, third, anonymous, blank}, calcTime)
	require.True(t, ok)
	require.Len(t, stats.StudentStatistics, 3)

	assert.Equal(t, "Grace Hopper", stats.StudentStatistics[0].StudentName)
	assert.Equal(t, "Unknown", stats.StudentStatistics[1].StudentName)
	assert.Equal(t, "Unknown", stats.StudentStatistics[2].StudentName)
}

func TestAggregate_Rounding(t *testing.T) {
	tests := []struct {
		name    string
		scores  [][2]float64
		average float64
	}{
		{name: "two thirds", scores: [][2]float64{{2, 3}}, average: 66.67},
		{name: "one third", scores: [][2]float64{{1, 3}}, average: 33.33},
		{name: "quarter", scores: [][2]float64{{1, 8}, {0, 1}}, average: 6.25},
		{name: "mixed", scores: [][2]float64{{7, 9}, {13, 17}, {1, 1}}, average: 84.75},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var records []models.ProgressRecord
			for i, s := range tt.scores {
				records = append(records, record(string(rune('a'+i)), "stu-1", "Quiz", s[0], s[1]))
			}
			stats, ok := Aggregate("C1", "S1", records, calcTime)
			require.True(t, ok)
			assert.Equal(t, tt.average, stats.AverageScore)
		})
	}
}

func TestAggregate_HighestAndLowestAreNotRounded(t *testing.T) {
	records := []models.ProgressRecord{
		record("p1", "stu-1", "Quiz", 2, 3),
		record("p2", "stu-2", "Quiz", 1, 3),
	}

	stats, ok := Aggregate("C1", "S1", records, calcTime)
	require.True(t, ok)
	require.Len(t, stats.AssignmentStatistics, 1)

	two, one, three := 2.0, 1.0, 3.0
	quiz := stats.AssignmentStatistics[0]
	assert.Equal(t, two/three*100, quiz.HighestScore)
	assert.Equal(t, one/three*100, quiz.LowestScore)
	assert.NotEqual(t, 66.67, quiz.HighestScore)
	assert.NotEqual(t, 33.33, quiz.LowestScore)
	assert.Equal(t, 50.0, quiz.AverageScore)

	require.Len(t, stats.StudentStatistics, 2)
	assert.Equal(t, two/three*100, stats.StudentStatistics[0].HighestScore)
	assert.Equal(t, two/three*100, stats.StudentStatistics[0].LowestScore)
	assert.Equal(t, 66.67, stats.StudentStatistics[0].AverageScore)
}

func TestAggregate_PercentagesAboveHundred(t *testing.T) {
	records := []models.ProgressRecord{
		record("p1", "stu-1", "Bonus", 100, 1),
		record("p2", "stu-2", "Bonus", 30, 10),
	}

	stats, ok := Aggregate("C1", "S1", records, calcTime)
	require.True(t, ok)

	assert.Equal(t, 5150.0, stats.AverageScore)
	assert.Equal(t, 10000.0, stats.AssignmentStatistics[0].HighestScore)
	assert.Equal(t, 300.0, stats.AssignmentStatistics[0].LowestScore)
}

func TestAggregate_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	assignments := []string{"Quiz 1", "Quiz 2", "Essay", "Lab", "Final"}

	for run := 0; run < 200; run++ {
		n := 1 + rng.Intn(40)
		records := make([]models.ProgressRecord, 0, n)
		distinct := make(map[string]struct{})
		sum := 0.0

		for i := 0; i < n; i++ {
			maxScore := float64(1 + rng.Intn(100))
			score := float64(rng.Intn(int(maxScore) + 1))
			student := "stu-" + string(rune('a'+rng.Intn(8)))
			distinct[student] = struct{}{}
			sum += score / maxScore * 100
			records = append(records, record("p", student, assignments[rng.Intn(len(assignments))], score, maxScore))
		}

		stats, ok := Aggregate("C1", "S1", records, calcTime)
		require.True(t, ok)

		assert.Equal(t, n, stats.TotalAssignments)
		assert.Equal(t, len(distinct), stats.TotalStudents)
		assert.Len(t, stats.StudentStatistics, stats.TotalStudents)
		assert.Equal(t, math.Round(sum/float64(n)*100)/100, stats.AverageScore)
		assert.GreaterOrEqual(t, stats.AverageScore, 0.0)
		assert.LessOrEqual(t, stats.AverageScore, 100.0)

		submissions := 0
		for _, a := range stats.AssignmentStatistics {
			submissions += a.TotalSubmissions
			assert.LessOrEqual(t, a.LowestScore, a.AverageScore+0.01)
			assert.GreaterOrEqual(t, a.HighestScore+0.01, a.AverageScore)
		}
		assert.Equal(t, stats.TotalAssignments, submissions)

		studentAssignments := 0
		for _, s := range stats.StudentStatistics {
			studentAssignments += s.TotalAssignments
		}
		assert.Equal(t, stats.TotalAssignments, studentAssignments)

		again, ok := Aggregate("C1", "S1", records, calcTime)
		require.True(t, ok)
		assert.Equal(t, stats, again)
	}
}
