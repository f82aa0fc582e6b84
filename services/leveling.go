package services

import (
	"math"

	"github.com/cppla/agp/models"
)

// CalculateLevel returns floor(sqrt(xp/100)) + 1. Negative xp is treated as
// zero, so the result is always at least 1.
func CalculateLevel(xp int64) int {
	if xp <= 0 {
		return 1
	}
	q := xp / 100
	n := int64(math.Sqrt(float64(q)))
	for n*n > q {
		n--
	}
	for (n+1)*(n+1) <= q {
		n++
	}
	return int(n) + 1
}

var classThresholds = []struct {
	minLevel int
	class    models.AgentClass
}{
	{25, models.ClassSage},
	{20, models.ClassMaster},
	{15, models.ClassExpert},
	{10, models.ClassSpecialist},
	{5, models.ClassExplorer},
}

// CalculateClass maps a level to its class. Thresholds are inclusive and
// checked highest first.
func CalculateClass(level int) models.AgentClass {
	for _, t := range classThresholds {
		if level >= t.minLevel {
			return t.class
		}
	}
	return models.ClassScout
}
