package schedule

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

// Repository репозиторий расписаний: ресурсы, типы записей и исключения по датам.
// Расписания только читаются, их редактирование находится за пределами сервиса
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория расписаний
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetResource получает ресурс с недельным расписанием (без исключений по датам)
func (r *Repository) GetResource(ctx context.Context, id int64) (*domain.Resource, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"name",
		"timezone",
		"weekly_schedule",
		"booking_window_days",
		"created_at",
		"updated_at",
	).
		From("resources").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetResource - build select query: %v", ErrBuildQuery, err)
	}

	var (
		res                  domain.Resource
		weekly               []byte
		createdAt, updatedAt sql.NullTime
	)

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&res.ID,
		&res.Name,
		&res.Timezone,
		&weekly,
		&res.BookingWindowDays,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrResourceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetResource - scan resource: %v", ErrScanRow, err)
	}

	if err := json.Unmarshal(weekly, &res.Availability.Weekly); err != nil {
		return nil, fmt.Errorf("%w: GetResource - weekly_schedule of resource %d: %v", ErrDecodeSchedule, id, err)
	}

	res.CreatedAt = createdAt.Time
	res.UpdatedAt = updatedAt.Time

	return &res, nil
}

// GetAppointmentType получает тип записи ресурса.
// Если у типа задано собственное недельное расписание, оно возвращается в CustomAvailability
// (исключения по датам загружаются отдельно через ListOverrides)
func (r *Repository) GetAppointmentType(ctx context.Context, resourceID, typeID int64) (*domain.AppointmentType, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"resource_id",
		"name",
		"duration_minutes",
		"location_type",
		"custom_weekly_schedule",
		"created_at",
		"updated_at",
	).
		From("appointment_types").
		Where(squirrel.Eq{"id": typeID, "resource_id": resourceID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetAppointmentType - build select query: %v", ErrBuildQuery, err)
	}

	var (
		t                    domain.AppointmentType
		customWeekly         []byte
		createdAt, updatedAt sql.NullTime
	)

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&t.ID,
		&t.ResourceID,
		&t.Name,
		&t.DurationMinutes,
		&t.LocationType,
		&customWeekly,
		&createdAt,
		&updatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, ErrAppointmentTypeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetAppointmentType - scan appointment type: %v", ErrScanRow, err)
	}

	if len(customWeekly) > 0 && string(customWeekly) != "null" {
		custom := &domain.Availability{}
		if err := json.Unmarshal(customWeekly, &custom.Weekly); err != nil {
			return nil, fmt.Errorf("%w: GetAppointmentType - custom_weekly_schedule of type %d: %v", ErrDecodeSchedule, typeID, err)
		}
		t.CustomAvailability = custom
	}

	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time

	return &t, nil
}

// ListOverrides получает исключения по датам в диапазоне [from, to] включительно.
// typeID = nil - исключения расписания ресурса, иначе - собственного расписания типа записи
func (r *Repository) ListOverrides(ctx context.Context, resourceID int64, typeID *int64, from, to time.Time) ([]domain.DateOverride, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select("override_date", "enabled", "ranges").
		From("date_overrides").
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.GtOrEq{"override_date": from.Format(domain.DateFormat)}).
		Where(squirrel.LtOrEq{"override_date": to.Format(domain.DateFormat)}).
		OrderBy("override_date ASC")

	// squirrel.Eq с nil генерирует IS NULL
	if typeID != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"appointment_type_id": *typeID})
	} else {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"appointment_type_id": nil})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverrides - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverrides - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	overrides := make([]domain.DateOverride, 0)
	for rows.Next() {
		var (
			o      domain.DateOverride
			ranges []byte
		)
		if err := rows.Scan(&o.Date, &o.Enabled, &ranges); err != nil {
			return nil, fmt.Errorf("%w: ListOverrides - scan row: %v", ErrScanRow, err)
		}
		if len(ranges) > 0 {
			if err := json.Unmarshal(ranges, &o.Ranges); err != nil {
				return nil, fmt.Errorf("%w: ListOverrides - ranges of %s: %v", ErrDecodeSchedule, o.Date.Format(domain.DateFormat), err)
			}
		}
		overrides = append(overrides, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListOverrides - rows error: %v", ErrScanRow, err)
	}

	return overrides, nil
}
