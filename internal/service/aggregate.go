package service

import (
	"time"

	"github.com/rlsguard/stats-service/internal/models"
	"github.com/rlsguard/stats-service/pkg/utils"
)

const unknownStudentName = "Unknown"

type scoreGroup struct {
	key   string
	name  string
	sum   float64
	count int
	max   float64
	min   float64
}

func (g *scoreGroup) add(pct float64) {
	if g.count == 0 || pct > g.max {
		g.max = pct
	}
	if g.count == 0 || pct < g.min {
		g.min = pct
	}
	g.sum += pct
	g.count++
}

func (g *scoreGroup) average() float64 {
	return utils.Round2(g.sum / float64(g.count))
}

// orderedGroups keeps groups in order of first occurrence.
type orderedGroups struct {
	index  map[string]int
	groups []*scoreGroup
}

func newOrderedGroups() *orderedGroups {
	return &orderedGroups{index: make(map[string]int)}
}

func (o *orderedGroups) get(key string) *scoreGroup {
	if i, ok := o.index[key]; ok {
		return o.groups[i]
	}
	g := &scoreGroup{key: key}
	o.index[key] = len(o.groups)
	o.groups = append(o.groups, g)
	return g
}

// Aggregate computes class, per-assignment and per-student statistics.
// Averages are rounded to two decimals; highest and lowest are the raw
// percentages.
//
// Records whose percentage is undefined (max_score <= 0 or non-finite values)
// are left out of every figure and counted in Metadata.ExcludedRecords. The
// second return value is false when no record could be aggregated.
func Aggregate(classroomID, schoolID string, records []models.ProgressRecord, calculatedAt time.Time) (*models.ClassStatisticsPayload, bool) {
	assignments := newOrderedGroups()
	students := newOrderedGroups()

	var total scoreGroup
	excluded := 0

	for _, record := range records {
		pct, ok := record.Percentage()
		if !ok {
			excluded++
			continue
		}

		total.add(pct)
		assignments.get(record.AssignmentName).add(pct)

		student := students.get(record.StudentID)
		if student.name == "" && record.StudentName != nil && *record.StudentName != "" {
			student.name = *record.StudentName
		}
		student.add(pct)
	}

	if total.count == 0 {
		return nil, false
	}

	assignmentStats := make([]models.AssignmentStatistics, 0, len(assignments.groups))
	for _, g := range assignments.groups {
		assignmentStats = append(assignmentStats, models.AssignmentStatistics{
			AssignmentName:   g.key,
			AverageScore:     g.average(),
			TotalSubmissions: g.count,
			HighestScore:     g.max,
			LowestScore:      g.min,
		})
	}

	studentStats := make([]models.StudentStatistics, 0, len(students.groups))
	for _, g := range students.groups {
		name := g.name
		if name == "" {
			name = unknownStudentName
		}
		studentStats = append(studentStats, models.StudentStatistics{
			StudentID:        g.key,
			StudentName:      name,
			AverageScore:     g.average(),
			TotalAssignments: g.count,
			HighestScore:     g.max,
			LowestScore:      g.min,
		})
	}

	return &models.ClassStatisticsPayload{
		ClassroomID:          classroomID,
		SchoolID:             schoolID,
		AverageScore:         total.average(),
		TotalAssignments:     total.count,
		TotalStudents:        len(students.groups),
		CalculationDate:      calculatedAt,
		AssignmentStatistics: assignmentStats,
		StudentStatistics:    studentStats,
		Metadata: models.StatisticsMetadata{
			CalculatedAt:    calculatedAt,
			TotalDataPoints: len(records),
			ExcludedRecords: excluded,
		},
	}, true
}
