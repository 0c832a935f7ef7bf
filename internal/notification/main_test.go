package notification

import (
	"testing"

	"go.uber.org/goleak"
)

// The delivery worker must exit once Close returns.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
