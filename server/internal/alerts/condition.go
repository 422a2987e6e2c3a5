package alerts

import (
	"strconv"
	"strings"

	"github.com/consolerelay/consolerelay/server/internal/lifecycle"
)

// evalCondition evaluates a rule condition string against a build summary.
//
// Supported expressions (field operator value):
//
//	errors > 0
//	warnings >= 20
//	state == failing
//	state == passing
//
// A build is failing when it reported at least one error.
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, sum lifecycle.Summary) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	switch field {
	case "state":
		if op != "==" {
			return false, 0
		}
		return buildState(sum) == rhs, float64(len(sum.Errors))

	case "errors", "warnings":
		v := float64(len(sum.Warnings))
		if field == "errors" {
			v = float64(len(sum.Errors))
		}
		threshold, err := strconv.ParseFloat(rhs, 64)
		if err != nil {
			return false, 0
		}
		return compareFloat(v, op, threshold), v

	default:
		return false, 0
	}
}

func buildState(sum lifecycle.Summary) string {
	if len(sum.Errors) > 0 {
		return "failing"
	}
	return "passing"
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
