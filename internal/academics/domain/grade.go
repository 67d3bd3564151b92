package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Grade is a level in the fixed CBC progression:
// ECD (PP1, PP2), Lower Primary (1-3), Upper Primary (4-6), Junior Secondary (7-9).
type Grade string

const (
	GradePP1 Grade = "PP1"
	GradePP2 Grade = "PP2"
	Grade1   Grade = "Grade 1"
	Grade2   Grade = "Grade 2"
	Grade3   Grade = "Grade 3"
	Grade4   Grade = "Grade 4"
	Grade5   Grade = "Grade 5"
	Grade6   Grade = "Grade 6"
	Grade7   Grade = "Grade 7"
	Grade8   Grade = "Grade 8"
	Grade9   Grade = "Grade 9"
)

// gradeOrder is the canonical progression used for range containment.
var gradeOrder = []Grade{
	GradePP1, GradePP2,
	Grade1, Grade2, Grade3,
	Grade4, Grade5, Grade6,
	Grade7, Grade8, Grade9,
}

var gradeRanks = func() map[Grade]int {
	m := make(map[Grade]int, len(gradeOrder))
	for i, g := range gradeOrder {
		m[g] = i + 1
	}
	return m
}()

// Rank returns the grade's 1-based position in the canonical progression.
func (g Grade) Rank() (int, bool) {
	rank, ok := gradeRanks[g]
	return rank, ok
}

func (g Grade) Valid() bool {
	_, ok := gradeRanks[g]
	return ok
}

func (g Grade) String() string { return string(g) }

// GradeFromRank is the inverse of Rank.
func GradeFromRank(rank int) (Grade, bool) {
	if rank < 1 || rank > len(gradeOrder) {
		return "", false
	}
	return gradeOrder[rank-1], true
}

// MinGradeRank and MaxGradeRank bound valid stored ranks.
const MinGradeRank = 1

func MaxGradeRank() int { return len(gradeOrder) }

// ParseGrade accepts canonical names ("PP1", "Grade 4"), bare numbers ("4")
// and a few shorthand spellings ("grade4", "g4").
func ParseGrade(raw string) (Grade, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("empty grade")
	}

	upper := strings.ToUpper(s)
	if upper == "PP1" {
		return GradePP1, nil
	}
	if upper == "PP2" {
		return GradePP2, nil
	}

	digits := upper
	for _, prefix := range []string{"GRADE", "G"} {
		if strings.HasPrefix(digits, prefix) {
			digits = strings.TrimSpace(strings.TrimPrefix(digits, prefix))
			break
		}
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 || n > 9 {
		return "", fmt.Errorf("unknown grade %q", raw)
	}
	return Grade(fmt.Sprintf("Grade %d", n)), nil
}
