// Package testing flips the storefront binaries into test mode when imported
// by a test binary.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("STOREFRONT_TEST_MODE", "1")
		// Order notifications must never reach a real webhook from tests.
		_ = os.Setenv("NOTIFY_WEBHOOK_URL", "")
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
