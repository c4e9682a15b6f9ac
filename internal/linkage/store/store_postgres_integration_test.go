//go:build integration

package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"linkage/internal/linkage/store"
	"linkage/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	StoreContractSuite
	postgres *containers.PostgresContainer
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.Require().NoError(store.Migrate(context.Background(), s.postgres.DB))
	// Applying twice must be harmless.
	s.Require().NoError(store.Migrate(context.Background(), s.postgres.DB))
}

func (s *PostgresStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "person_identity"))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) TestPing() {
	s.Require().NoError(store.NewPostgres(s.postgres.DB).Ping(s.ctx))
}
