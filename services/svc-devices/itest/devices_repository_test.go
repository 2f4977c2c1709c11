//go:build integration

package itest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/pkg/predicate"
	"github.com/architeacher/filterspec/services/svc-devices/internal/adapters/repos"
	"github.com/architeacher/filterspec/services/svc-devices/internal/domain/model"
)

const (
	postgresImage    = "postgres:18-alpine"
	postgresDatabase = "devices_test"
	postgresUsername = "test"
	postgresPassword = "test"
)

// DevicesRepositoryIntegrationTestSuite runs every filter against Postgres
// and against the in-memory store and expects the same devices back.
type DevicesRepositoryIntegrationTestSuite struct {
	suite.Suite
	suiteCtx    context.Context
	suiteCancel context.CancelFunc
	container   *postgres.PostgresContainer
	pool        *pgxpool.Pool
	repo        *repos.DevicesRepository
	compiler    repos.PredicateCompiler
}

func TestDevicesRepositoryIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(DevicesRepositoryIntegrationTestSuite))
}

func (s *DevicesRepositoryIntegrationTestSuite) SetupSuite() {
	s.suiteCtx, s.suiteCancel = context.WithTimeout(context.Background(), 5*time.Minute)

	container, err := postgres.Run(s.suiteCtx,
		postgresImage,
		postgres.WithDatabase(postgresDatabase),
		postgres.WithUsername(postgresUsername),
		postgres.WithPassword(postgresPassword),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	connStr, err := container.ConnectionString(s.suiteCtx, "sslmode=disable")
	s.Require().NoError(err)

	pool, err := pgxpool.New(s.suiteCtx, connStr)
	s.Require().NoError(err)
	s.pool = pool

	s.runMigrations()

	registry := predicate.NewRegistry()
	predicate.Register[model.Device, *model.DeviceFilter](registry)
	s.compiler = repos.CompilerFunc(registry.CompileDynamic)

	log := logger.NewTestLogger()
	s.repo = repos.NewDevicesRepository(s.pool, repos.NewPgxScanner(), repos.NewExprTranslator(repos.DeviceColumns, log), log)
}

func (s *DevicesRepositoryIntegrationTestSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.suiteCtx)
	}
	if s.suiteCancel != nil {
		s.suiteCancel()
	}
}

func (s *DevicesRepositoryIntegrationTestSuite) SetupTest() {
	_, err := s.pool.Exec(s.T().Context(), "TRUNCATE TABLE devices")
	s.Require().NoError(err)
}

func (s *DevicesRepositoryIntegrationTestSuite) runMigrations() {
	migrationsPath, err := getMigrationsPath()
	s.Require().NoError(err)

	files, err := filepath.Glob(filepath.Join(migrationsPath, "*.up.sql"))
	s.Require().NoError(err)
	s.Require().NotEmpty(files, "no migrations found")

	for _, file := range files {
		ddl, err := os.ReadFile(file)
		s.Require().NoError(err)

		_, err = s.pool.Exec(s.suiteCtx, string(ddl))
		s.Require().NoError(err, "applying %s", filepath.Base(file))
	}
}

func getMigrationsPath() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get current file path")
	}

	serviceRoot := filepath.Dir(filepath.Dir(currentFile))

	return filepath.Join(serviceRoot, "migrations"), nil
}

// fleet stores the same devices in Postgres and in a fresh memory store.
func (s *DevicesRepositoryIntegrationTestSuite) fleet(ctx context.Context) *repos.MemoryRepository {
	memory := repos.NewMemoryRepository(s.compiler, logger.NewTestLogger())
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	devices := []*model.Device{
		model.NewDevice("Pixel 9", "Google", model.StateAvailable).WithOwner("ana").WithBatteryLevel(80).WithTags("mobile"),
		model.NewDevice("iPad Air", "Apple", model.StateInUse).WithBatteryLevel(15).WithTags("tablet"),
		model.NewDevice("ThinkPad X1", "Lenovo", model.StateInactive).WithOwner("bo"),
		model.NewDevice("Galaxy Watch", "Samsung", model.StateAvailable).WithBatteryLevel(42).WithTags("wearable", "mobile"),
		model.NewDevice("MacBook Pro", "Apple", model.StateInUse).WithOwner("cy").WithBatteryLevel(96),
		model.NewDevice("100%_Mouse", "Logi", model.StateAvailable).WithOwner("ana"),
	}

	for i, device := range devices {
		device.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		device.UpdatedAt = device.CreatedAt

		s.Require().NoError(s.repo.Create(ctx, device))
		s.Require().NoError(memory.Create(ctx, device))
	}

	return memory
}

func (s *DevicesRepositoryIntegrationTestSuite) TestCreateAndFetch() {
	ctx := s.T().Context()

	device := model.NewDevice("Pixel 9", "Google", model.StateAvailable).WithOwner("ana").WithBatteryLevel(80).WithTags("mobile")
	device.CreatedAt = device.CreatedAt.Truncate(time.Microsecond)
	device.UpdatedAt = device.CreatedAt

	s.Require().NoError(s.repo.Create(ctx, device))

	fetched, err := s.repo.FetchByID(ctx, device.ID)
	s.Require().NoError(err)
	s.Require().Equal(device.Name, fetched.Name)
	s.Require().Equal(device.Owner, fetched.Owner)
	s.Require().Equal(device.BatteryLevel, fetched.BatteryLevel)
	s.Require().Equal(device.Tags, fetched.Tags)
	s.Require().True(device.CreatedAt.Equal(fetched.CreatedAt))

	s.Require().ErrorIs(s.repo.Create(ctx, device), model.ErrDuplicateDevice)

	_, err = s.repo.FetchByID(ctx, model.NewDeviceID())
	s.Require().ErrorIs(err, model.ErrDeviceNotFound)
}

func (s *DevicesRepositoryIntegrationTestSuite) TestSearch_MatchesMemoryStore() {
	ctx := s.T().Context()
	memory := s.fleet(ctx)

	str := func(v string) *string { return &v }
	num := func(v int) *int { return &v }
	flag := func(v bool) *bool { return &v }
	state := func(v model.State) *model.State { return &v }

	cases := []struct {
		name   string
		filter *model.DeviceFilter
		count  int
	}{
		{name: "no filter", filter: nil, count: 6},
		{name: "brand in", filter: &model.DeviceFilter{BrandIn: []string{"Apple", "Logi"}}, count: 3},
		{name: "brand not in", filter: &model.DeviceFilter{BrandNotIn: []string{"Apple"}}, count: 4},
		{name: "state not", filter: &model.DeviceFilter{StateNot: state(model.StateAvailable)}, count: 3},
		{name: "owner equals", filter: &model.DeviceFilter{Owner: str("ana")}, count: 2},
		{name: "owner is null", filter: &model.DeviceFilter{OwnerNull: flag(true)}, count: 2},
		{name: "owner is not null", filter: &model.DeviceFilter{OwnerNull: flag(false)}, count: 4},
		{name: "battery at least", filter: &model.DeviceFilter{BatteryLevelGTE: num(42)}, count: 3},
		{name: "battery below skips unknown", filter: &model.DeviceFilter{BatteryLevelLT: num(50)}, count: 2},
		{name: "tags empty", filter: &model.DeviceFilter{TagsEmpty: flag(true)}, count: 3},
		{name: "tags not empty", filter: &model.DeviceFilter{TagsEmpty: flag(false)}, count: 3},
		{name: "name contains wildcard characters", filter: &model.DeviceFilter{NameContains: str("%_")}, count: 1},
		{name: "name starts with", filter: &model.DeviceFilter{NameStartsWith: str("i")}, count: 1},
		{
			name: "or children are siblings of the conjunction",
			filter: &model.DeviceFilter{
				BrandIn: []string{"Samsung"},
				Or:      []*model.DeviceFilter{{Owner: str("bo")}},
			},
			count: 2,
		},
		{
			name:   "or children beside an empty conjunction",
			filter: &model.DeviceFilter{Or: []*model.DeviceFilter{{Owner: str("bo")}}},
			count:  6,
		},
		{
			name: "and with nested or",
			filter: &model.DeviceFilter{
				State: state(model.StateAvailable),
				And: []*model.DeviceFilter{{
					BatteryLevelGTE: num(50),
					Or:              []*model.DeviceFilter{{OwnerNull: flag(true)}},
				}},
			},
			count: 2,
		},
	}

	for _, sortSpec := range []string{"createdAt", "-createdAt", "name", "-name"} {
		for _, tc := range cases {
			s.Run(fmt.Sprintf("%s/%s", tc.name, sortSpec), func() {
				expected := s.walk(ctx, memory, tc.filter, sortSpec)
				actual := s.walk(ctx, s.repo, tc.filter, sortSpec)

				s.Require().Len(expected, tc.count)
				s.Require().Equal(expected, actual)
			})
		}
	}
}

type searcher interface {
	Search(ctx context.Context, filter *model.DeviceFilter, page model.Page) (*model.DeviceList, error)
}

// walk follows next cursors two devices at a time and returns the names
// in the order they were served.
func (s *DevicesRepositoryIntegrationTestSuite) walk(
	ctx context.Context,
	repo searcher,
	filter *model.DeviceFilter,
	sortSpec string,
) []string {
	var (
		names  []string
		cursor string
	)

	for range 10 {
		page, err := model.NewPage(2, sortSpec, cursor)
		s.Require().NoError(err)

		list, err := repo.Search(ctx, filter, page)
		s.Require().NoError(err)

		for _, device := range list.Devices {
			names = append(names, device.Name)
		}

		if list.NextCursor == "" {
			return names
		}

		cursor = list.NextCursor
	}

	s.FailNow("pagination did not terminate")

	return nil
}

func (s *DevicesRepositoryIntegrationTestSuite) TestPing() {
	s.Require().NoError(s.repo.Ping(s.T().Context()))
}
