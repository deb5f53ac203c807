package querytext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/google/uuid"
)

var placeholderPattern = regexp.MustCompile(`:` + ParamPrefix + `(\d+)\b`)

// Inline renders the query with every placeholder replaced by a literal.
// The result is meant for logs and diagnostics only; execute Text with
// Params instead.
func (q Query) Inline() string {
	return placeholderPattern.ReplaceAllStringFunc(q.Text, func(match string) string {
		n, err := strconv.Atoi(match[len(":"+ParamPrefix):])
		if err != nil || n < 1 || n > len(q.Params) {
			return match
		}
		return Literal(q.Params[n-1].Value)
	})
}

// Literal renders a parameter value as a query literal.
func Literal(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return "'" + strings.ReplaceAll(v, "'", "''") + "'"
	case bool:
		if v {
			return "1"
		}
		return "0"
	case time.Time:
		return "'" + v.UTC().Format("2006-01-02 15:04:05.000") + "'"
	case time.Duration:
		ms := v.Milliseconds()
		return fmt.Sprintf("'%02d:%02d:%02d.%03d'", ms/3600000, ms/60000%60, ms/1000%60, ms%1000)
	case uuid.UUID:
		return "'" + v.String() + "'"
	case *apd.Decimal:
		return v.Text('f')
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
