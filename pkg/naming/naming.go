// Package naming builds unique resource names for SageMaker entities.
package naming

import (
	"fmt"
	"time"
)

// WithTimestamp appends the current time to base, separated by sep, in a
// format accepted by SageMaker job/config names (no colons or dots).
func WithTimestamp(base, sep string, now time.Time) string {
	return fmt.Sprintf("%s%s%s", base, sep, now.Format(timestampLayout(sep)))
}

// Timestamped appends the current wall-clock time to base with "-" separators.
func Timestamped(base string) string {
	return WithTimestamp(base, "-", time.Now())
}

func timestampLayout(sep string) string {
	return "2006" + sep + "01" + sep + "02" + sep + "15" + sep + "04" + sep + "05"
}

// RoleNameFromARN extracts the trailing role name from an IAM role ARN.
// A bare role name is returned unchanged.
func RoleNameFromARN(arn string) string {
	for i := len(arn) - 1; i >= 0; i-- {
		if arn[i] == '/' {
			return arn[i+1:]
		}
	}
	return arn
}
