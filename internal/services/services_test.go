package services

import (
	"testing"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/storage/sqlite"
	"github.com/adanyl0v/go-task-delivery/internal/testutil"
)

var testHashParams = &argon2id.Params{
	Memory:      1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type testEnv struct {
	store  *sqlite.Store
	clock  *fakeClock
	tokens *tokenServiceImpl
	auth   *authServiceImpl
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := testutil.NewTestStore(t)
	clock := &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
	tokens := newTestTokenService(t, clock)
	return &testEnv{
		store:  store,
		clock:  clock,
		tokens: tokens,
		auth:   newAuthService(zerolog.Nop(), store, tokens, testHashParams),
	}
}

func (e *testEnv) register(t *testing.T, username string, role models.Role) *models.User {
	t.Helper()
	user, err := e.auth.Register(testContext(t), RegisterParams{
		Username: username,
		Password: "secret-password",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}
