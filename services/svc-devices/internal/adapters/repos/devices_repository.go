package repos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/architeacher/filterspec/pkg/logger"
	"github.com/architeacher/filterspec/pkg/predicate"
	"github.com/architeacher/filterspec/services/svc-devices/internal/domain/model"
)

const (
	devicesTable = "devices"

	uniqueViolationCode = "23505"
)

var (
	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	deviceSelectColumns = []string{
		"id", "name", "brand", "state", "owner", "battery_level", "tags", "created_at", "updated_at",
	}

	// sortColumns orders text byte-wise so the database agrees with
	// model.Sort.Compare.
	sortColumns = map[model.SortField]string{
		model.SortByCreatedAt: "created_at",
		model.SortByName:      `name COLLATE "C"`,
	}
)

type (
	// PoolOps defines the interface for database operations.
	// This allows injecting mock implementations for testing.
	PoolOps interface {
		QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
		Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
		Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
		Ping(ctx context.Context) error
	}

	// DevicesRepository stores devices in PostgreSQL and pushes compiled
	// filters down as WHERE clauses.
	DevicesRepository struct {
		pool       PoolOps
		scanner    Scanner
		logger     logger.Logger
		translator *ExprTranslator
	}

	deviceRow struct {
		ID           string    `db:"id"`
		Name         string    `db:"name"`
		Brand        string    `db:"brand"`
		State        string    `db:"state"`
		Owner        *string   `db:"owner"`
		BatteryLevel *int      `db:"battery_level"`
		Tags         []string  `db:"tags"`
		CreatedAt    time.Time `db:"created_at"`
		UpdatedAt    time.Time `db:"updated_at"`
	}
)

// NewDevicesRepository creates a new DevicesRepository with the given dependencies.
func NewDevicesRepository(
	pool PoolOps,
	scanner Scanner,
	translator *ExprTranslator,
	log logger.Logger,
) *DevicesRepository {
	return &DevicesRepository{
		pool:       pool,
		scanner:    scanner,
		translator: translator,
		logger:     log,
	}
}

func (r *DevicesRepository) Create(ctx context.Context, device *model.Device) error {
	tags := device.Tags
	if tags == nil {
		tags = []string{}
	}

	query, args, err := psql.Insert(devicesTable).
		Columns(deviceSelectColumns...).
		Values(
			device.ID.String(),
			device.Name,
			device.Brand,
			device.State.String(),
			device.Owner,
			device.BatteryLevel,
			tags,
			device.CreatedAt,
			device.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.pool.Exec(ctx, query, args...); err != nil {
		if isDuplicateKeyError(err) {
			return model.ErrDuplicateDevice
		}

		return fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	return nil
}

func (r *DevicesRepository) FetchByID(ctx context.Context, id model.DeviceID) (*model.Device, error) {
	query, args, err := psql.Select(deviceSelectColumns...).
		From(devicesTable).
		Where(sq.Eq{"id": id.String()}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var row deviceRow
	if err := r.scanner.ScanOne(&row, rows); err != nil {
		if r.scanner.IsNotFound(err) {
			return nil, model.ErrDeviceNotFound
		}

		return nil, fmt.Errorf("device with ID %s: %w", id, err)
	}

	return r.convertRowToDevice(row)
}

// Search returns one page of the devices matching filter. The filter is
// compiled to an expression and translated into the WHERE clause; the
// page cursor becomes a row-value keyset condition.
func (r *DevicesRepository) Search(ctx context.Context, filter *model.DeviceFilter, page model.Page) (*model.DeviceList, error) {
	expr, err := predicate.Build[model.Device](filter)
	if err != nil {
		return nil, fmt.Errorf("compiling device filter: %w", err)
	}

	builder := psql.Select(deviceSelectColumns...).From(devicesTable)

	if expr != predicate.True {
		where, err := r.translator.Translate(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrInvalidFilter, err)
		}

		builder = builder.Where(where)
	}

	sortColumn := sortColumns[page.Sort.Field]
	if sortColumn == "" {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidSort, page.Sort.Field)
	}

	if page.Cursor != nil {
		keyset, err := keysetCondition(sortColumn, page)
		if err != nil {
			return nil, err
		}

		builder = builder.Where(keyset)
	}

	direction := "ASC"
	if page.Sort.Descending {
		direction = "DESC"
	}

	builder = builder.
		OrderBy(sortColumn+" "+direction, "id "+direction).
		Limit(uint64(page.Size) + 1)

	devices, err := r.queryDevices(ctx, builder)
	if err != nil {
		return nil, err
	}

	list := &model.DeviceList{Devices: devices, Size: page.Size}

	if uint(len(devices)) > page.Size && page.Size > 0 {
		list.Devices = devices[:page.Size]

		next, err := model.EncodeCursor(model.NewCursor(list.Devices[page.Size-1], page.Sort))
		if err != nil {
			return nil, err
		}

		list.NextCursor = next
	}

	r.logger.Debug().
		Str("filter", expr.String()).
		Str("sort", page.Sort.String()).
		Int("results", len(list.Devices)).
		Msg("searched devices")

	return list, nil
}

func keysetCondition(sortColumn string, page model.Page) (sq.Sqlizer, error) {
	value, err := page.Cursor.SortValue()
	if err != nil {
		return nil, err
	}

	id, err := page.Cursor.DeviceID()
	if err != nil {
		return nil, err
	}

	cmp := ">"
	if page.Sort.Descending {
		cmp = "<"
	}

	return sq.Expr(fmt.Sprintf("(%s, id) %s (?, ?)", sortColumn, cmp), value, id.String()), nil
}

func (r *DevicesRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *DevicesRepository) queryDevices(ctx context.Context, builder sq.SelectBuilder) ([]*model.Device, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}
	defer rows.Close()

	var deviceRows []deviceRow
	if err := r.scanner.ScanAll(&deviceRows, rows); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
	}

	devices := make([]*model.Device, 0, len(deviceRows))
	for index := range deviceRows {
		device, err := r.convertRowToDevice(deviceRows[index])
		if err != nil {
			return nil, fmt.Errorf("%w: %v", model.ErrDatabaseQuery, err)
		}
		devices = append(devices, device)
	}

	return devices, nil
}

func (r *DevicesRepository) convertRowToDevice(row deviceRow) (*model.Device, error) {
	id, err := model.ParseDeviceID(row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse device ID: %w", err)
	}

	state, err := model.ParseState(row.State)
	if err != nil {
		return nil, fmt.Errorf("failed to parse device state: %w", err)
	}

	tags := row.Tags
	if tags == nil {
		tags = []string{}
	}

	return &model.Device{
		ID:           id,
		Name:         row.Name,
		Brand:        row.Brand,
		State:        state,
		Owner:        row.Owner,
		BatteryLevel: row.BatteryLevel,
		Tags:         tags,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}

	msg := err.Error()

	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
