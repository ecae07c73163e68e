package password

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

// testConfig uses low cost parameters so the suite runs quickly
func testConfig() Config {
	return Config{
		Params: Params{
			Memory:      8 * 1024,
			Time:        1,
			Parallelism: 2,
			KeyLength:   32,
			SaltLength:  16,
		},
		Workers: 2,
	}
}

type ServiceSuite struct {
	suite.Suite
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New(testConfig())
	s.ctx = context.Background()
}

func (s *ServiceSuite) TestHashProducesFreshSaltPerCall() {
	hash1, salt1, err := s.service.Hash(s.ctx, "Str0ng!Password")
	s.Require().NoError(err)
	hash2, salt2, err := s.service.Hash(s.ctx, "Str0ng!Password")
	s.Require().NoError(err)

	s.NotEqual(salt1, salt2)
	s.NotEqual(hash1, hash2)
	s.Len(salt1, 16)
	s.Len(hash1, 32)
}

func (s *ServiceSuite) TestVerifyRoundTrip() {
	hash, salt, err := s.service.Hash(s.ctx, "Str0ng!Password")
	s.Require().NoError(err)

	ok, err := s.service.Verify(s.ctx, "Str0ng!Password", hash, salt)
	s.Require().NoError(err)
	s.True(ok)
}

func (s *ServiceSuite) TestVerifyRejectsWrongPassword() {
	hash, salt, err := s.service.Hash(s.ctx, "Str0ng!Password")
	s.Require().NoError(err)

	ok, err := s.service.Verify(s.ctx, "Wr0ng!Password!", hash, salt)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ServiceSuite) TestVerifyRejectsWrongSalt() {
	hash, _, err := s.service.Hash(s.ctx, "Str0ng!Password")
	s.Require().NoError(err)

	otherSalt := make([]byte, 16)
	ok, err := s.service.Verify(s.ctx, "Str0ng!Password", hash, otherSalt)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *ServiceSuite) TestHashHonorsContextCancellationWhileQueued() {
	cfg := testConfig()
	cfg.Workers = 1
	service := New(cfg)

	// Occupy the single worker slot so the call below has to queue
	service.workers <- struct{}{}
	defer func() { <-service.workers }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := service.Hash(ctx, "Str0ng!Password")
	s.ErrorIs(err, context.Canceled)
}

func (s *ServiceSuite) TestConcurrentDerivations() {
	const n = 8
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			hash, salt, err := s.service.Hash(s.ctx, "Str0ng!Password")
			if err != nil {
				errs <- err
				return
			}
			ok, err := s.service.Verify(s.ctx, "Str0ng!Password", hash, salt)
			if err == nil && !ok {
				err = errors.New("verify failed for correct password")
			}
			errs <- err
		}()
	}
	for i := 0; i < n; i++ {
		s.NoError(<-errs)
	}
}
