package health

import (
	"strings"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	for _, err := range []error{ErrCheckTimeout, ErrCheckerNotFound, ErrStoreNotReady, ErrCircuitOpen} {
		if !strings.HasPrefix(err.Error(), "health: ") {
			t.Errorf("%q lacks the package prefix", err)
		}
	}
}
