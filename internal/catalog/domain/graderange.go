package domain

import (
	"strings"

	academicsdomain "github.com/elimisoft/shulefees/internal/academics/domain"
)

// GradeRange is an inclusive span of grade ranks.
type GradeRange struct {
	FromRank int
	ToRank   int
}

// Contains reports whether the rank falls inside the range.
func (r GradeRange) Contains(rank int) bool {
	return rank >= r.FromRank && rank <= r.ToRank
}

func (r GradeRange) valid() bool {
	return r.FromRank >= academicsdomain.MinGradeRank &&
		r.ToRank <= academicsdomain.MaxGradeRank() &&
		r.FromRank <= r.ToRank
}

// ParseGradeRange parses an administrator-entered range label such as
// "PP1-PP2", "4-5" or a single grade "Grade 3". Parsing happens once at
// catalog-write time; resolution works on the stored ranks.
func ParseGradeRange(raw string) (GradeRange, error) {
	label := strings.TrimSpace(raw)
	if label == "" {
		return GradeRange{}, &InvalidGradeRangeError{Range: raw, Reason: "empty range"}
	}

	parts := strings.SplitN(label, "-", 2)
	from, err := academicsdomain.ParseGrade(parts[0])
	if err != nil {
		return GradeRange{}, &InvalidGradeRangeError{Range: raw, Reason: err.Error()}
	}
	to := from
	if len(parts) == 2 {
		to, err = academicsdomain.ParseGrade(parts[1])
		if err != nil {
			return GradeRange{}, &InvalidGradeRangeError{Range: raw, Reason: err.Error()}
		}
	}

	fromRank, _ := from.Rank()
	toRank, _ := to.Rank()
	r := GradeRange{FromRank: fromRank, ToRank: toRank}
	if !r.valid() {
		return GradeRange{}, &InvalidGradeRangeError{Range: raw, Reason: "range bounds out of order"}
	}
	return r, nil
}

// RangeOf reconstructs the stored range of a FeeAmount row, failing with
// InvalidGradeRangeError when the stored ranks are inconsistent. A row
// without ranks applies to all grades and yields the full progression.
func (f FeeAmount) RangeOf() (GradeRange, error) {
	if f.AppliesToAllGrades() {
		return GradeRange{FromRank: academicsdomain.MinGradeRank, ToRank: academicsdomain.MaxGradeRank()}, nil
	}
	if f.GradeFromRank == nil || f.GradeToRank == nil {
		return GradeRange{}, &InvalidGradeRangeError{FeeAmountID: f.ID, Range: derefRange(f.GradeRange), Reason: "partial rank pair"}
	}
	r := GradeRange{FromRank: *f.GradeFromRank, ToRank: *f.GradeToRank}
	if !r.valid() {
		return GradeRange{}, &InvalidGradeRangeError{FeeAmountID: f.ID, Range: derefRange(f.GradeRange), Reason: "stored ranks out of bounds"}
	}
	return r, nil
}

func derefRange(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
