package factory

import (
	"time"

	"github.com/karstgames/savepoint/internal/dependencies/mocks"
	"github.com/karstgames/savepoint/internal/services/password"
	"github.com/karstgames/savepoint/internal/services/token"
	"github.com/karstgames/savepoint/internal/storage/memory"
	"github.com/karstgames/savepoint/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
// and cheap hashing parameters
func NewTestApp() (*TestApp, error) {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	tokenCfg := token.DefaultConfig()
	tokenCfg.Domain = "savepoint.test"
	tokenCfg.Secret = []byte("test-secret-key")

	passwordCfg := password.Config{
		Params: password.Params{
			Memory:      8 * 1024,
			Time:        1,
			Parallelism: 2,
			KeyLength:   32,
			SaltLength:  16,
		},
		Workers: 2,
	}

	app, err := newWithDependencies(store, mockClock, mockRandom, tokenCfg, passwordCfg, testutil.NopLogger())
	if err != nil {
		return nil, err
	}

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}, nil
}
