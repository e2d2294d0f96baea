package app

import (
	"os"
	"sync"
)

// testModeEnv is set by the storefront/testing package. The API and worker
// mains refuse to dial Postgres, Redis or the order webhook while it is "1".
const testModeEnv = "STOREFRONT_TEST_MODE"

var testMode struct {
	sync.Mutex
	loaded bool
	on     bool
}

// InTestMode reports whether the binary runs inside a test binary.
func InTestMode() bool {
	testMode.Lock()
	defer testMode.Unlock()
	if !testMode.loaded {
		testMode.on = os.Getenv(testModeEnv) == "1"
		testMode.loaded = true
	}
	return testMode.on
}

// RefreshTestMode re-reads STOREFRONT_TEST_MODE on the next InTestMode call.
func RefreshTestMode() {
	testMode.Lock()
	testMode.loaded = false
	testMode.Unlock()
}
