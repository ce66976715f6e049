package reconcile

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jmehdipour/ratebook/internal/model"
	"github.com/spf13/cast"
)

// ErrCoercion is returned, under NumericFail, for a monetary cell that is not a usable number.
var ErrCoercion = errors.New("numeric coercion failed")

type coercionIssue struct {
	field string
	value any
}

func (c coercionIssue) String() string {
	return fmt.Sprintf("%s: %v is not a non-negative number", c.field, c.value)
}

// coerce converts raw cells into a normalized record. Monetary cells that are blank,
// unparsable, non-finite or negative are set to 0.0 and reported as issues.
func coerce(raw model.RawRecord) (model.Record, []coercionIssue) {
	var issues []coercionIssue
	str := func(i int) string {
		if raw[i] == nil {
			return ""
		}
		return strings.TrimSpace(cast.ToString(raw[i]))
	}
	num := func(i int) float64 {
		f, err := cast.ToFloat64E(str(i))
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			issues = append(issues, coercionIssue{field: model.FieldNames[i], value: raw[i]})
			return 0
		}
		return f
	}

	r := model.Record{
		LoadPort:        str(0),
		DestinationPort: str(1),
		ContainerType:   str(2),
		FreightUSD:      num(3),
		OTHCAUD:         num(4),
		DocAUD:          num(5),
		CMRAUD:          num(6),
		AMSUSD:          num(7),
		LSSUSD:          num(8),
		DTHC:            str(9),
		FreeTime:        str(10),
	}
	return r.Normalize(), issues
}
