package services

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"showtalk/internal/db"
	"showtalk/internal/models"
)

var (
	sharedOnce sync.Once
	sharedDB   *gorm.DB
	sharedErr  error
	sharedCtr  *tcpostgres.PostgresContainer
)

func TestMain(m *testing.M) {
	code := m.Run()
	if sharedCtr != nil {
		_ = sharedCtr.Terminate(context.Background())
	}
	os.Exit(code)
}

func startPostgres() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	sharedCtr, sharedErr = tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("showtalk"),
		tcpostgres.WithUsername("showtalk"),
		tcpostgres.WithPassword("showtalk"),
		tcpostgres.BasicWaitStrategies(),
	)
	if sharedErr != nil {
		return
	}
	dsn, err := sharedCtr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		sharedErr = err
		return
	}
	conn, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		sharedErr = err
		return
	}
	sharedErr = db.Migrate(conn)
	sharedDB = conn
}

// testDB returns an empty, migrated database shared by the package's tests.
// Reaction types survive between tests.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	sharedOnce.Do(startPostgres)
	require.NoError(t, sharedErr)
	require.NoError(t, sharedDB.Exec(
		"TRUNCATE notifications, reactions, votes, comments, discussions, users RESTART IDENTITY CASCADE",
	).Error)
	return sharedDB
}

func seedUser(t *testing.T, conn *gorm.DB, name string) *models.User {
	t.Helper()
	u := &models.User{ExternalID: "sub|" + name, Username: name, Email: name + "@example.com", Role: "user"}
	require.NoError(t, conn.Create(u).Error)
	return u
}

func seedDiscussion(t *testing.T, conn *gorm.DB, owner *models.User) *models.Discussion {
	t.Helper()
	season := 1
	d := &models.Discussion{UserID: owner.ID, ShowID: 42, SeasonNumber: &season, Title: "Season one finale"}
	require.NoError(t, conn.Create(d).Error)
	return d
}

func firstReactionType(t *testing.T, conn *gorm.DB) models.ReactionType {
	t.Helper()
	var rt models.ReactionType
	require.NoError(t, conn.Order("position, id").First(&rt).Error)
	return rt
}
