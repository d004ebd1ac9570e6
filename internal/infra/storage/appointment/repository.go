package appointment

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/pkg/dbmetrics"
	"github.com/m04kA/SMC-AppointmentService/pkg/psqlbuilder"
)

const (
	tableAppointments = "appointments"
	tableReminders    = "appointment_reminders"
)

var appointmentColumns = []string{
	"id",
	"resource_id",
	"appointment_type_id",
	"start_time",
	"end_time",
	"status",
	"contact_name",
	"contact_email",
	"contact_phone",
	"notes",
	"confirmation_code",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с записями на приём и отметками об отправленных напоминаниях
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория записей
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает запись. Занятость интервала проверяет exclusion-ограничение в БД,
// поэтому параллельная вставка в тот же интервал вернёт ErrSlotTaken, а не вторую запись.
// Если в контексте есть транзакция, запрос выполняется в ней.
func (r *Repository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableAppointments).
		Columns(
			"resource_id",
			"appointment_type_id",
			"start_time",
			"end_time",
			"status",
			"contact_name",
			"contact_email",
			"contact_phone",
			"notes",
			"confirmation_code",
		).
		Values(
			a.ResourceID,
			a.AppointmentTypeID,
			a.StartTime,
			a.EndTime,
			a.Status,
			a.Contact.Name,
			a.Contact.Email,
			a.Contact.Phone,
			a.Notes,
			a.ConfirmationCode,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&a.ID,
		&createdAt,
		&updatedAt,
	)

	if err != nil {
		if isSlotConflict(err) {
			return nil, fmt.Errorf("%w: Create: %v", ErrSlotTaken, err)
		}
		if isDuplicateCode(err) {
			return nil, fmt.Errorf("%w: Create: %v", ErrDuplicateCode, err)
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time
	a.Reminders = []domain.ReminderMark{}

	return a, nil
}

// GetByID получает запись по ID вместе с отметками напоминаний.
// Внутри транзакции строка блокируется (FOR UPDATE)
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(appointmentColumns...).
		From(tableAppointments).
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	a, err := scanAppointment(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan appointment: %v", ErrScanRow, err)
	}

	if err := r.attachReminders(ctx, []*domain.Appointment{a}); err != nil {
		return nil, err
	}

	return a, nil
}

// FindPending возвращает записи с указанными статусами, начало которых попадает в
// полуоткрытое окно [window.Start, window.End), вместе с отметками напоминаний
func (r *Repository) FindPending(ctx context.Context, statuses []domain.AppointmentStatus, window domain.Interval) ([]*domain.Appointment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	statusStrings := make([]string, len(statuses))
	for i, s := range statuses {
		statusStrings[i] = string(s)
	}

	query, args, err := psqlbuilder.Select(appointmentColumns...).
		From(tableAppointments).
		Where(squirrel.Eq{"status": statusStrings}).
		Where(squirrel.GtOrEq{"start_time": window.Start}).
		Where(squirrel.Lt{"start_time": window.End}).
		OrderBy("start_time ASC", "id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: FindPending - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: FindPending - execute query: %v", ErrExecQuery, err)
	}
	appointments, err := scanAppointments(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachReminders(ctx, appointments); err != nil {
		return nil, err
	}

	return appointments, nil
}

// AppendReminderIfAbsent атомарно добавляет отметку об отправке напоминания.
// Возвращает true, если отметка добавлена этим вызовом, и false, если она уже была.
// Уникальность обеспечивает первичный ключ (appointment_id, reminder_type),
// поэтому два параллельных вызова не могут оба получить true.
func (r *Repository) AppendReminderIfAbsent(ctx context.Context, appointmentID int64, reminderType domain.ReminderType, sentAt time.Time) (bool, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert(tableReminders).
		Columns("appointment_id", "reminder_type", "sent_at").
		Values(appointmentID, string(reminderType), sentAt).
		Suffix("ON CONFLICT (appointment_id, reminder_type) DO NOTHING").
		ToSql()

	if err != nil {
		return false, fmt.Errorf("%w: AppendReminderIfAbsent - build insert query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, ErrAppointmentNotFound
		}
		return false, fmt.Errorf("%w: AppendReminderIfAbsent - execute insert: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: AppendReminderIfAbsent - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected == 1, nil
}

// ListBooked возвращает интервалы активных записей ресурса, пересекающиеся с window.
// Внутри транзакции строки блокируются (FOR UPDATE), чтобы проверка и вставка были согласованы
func (r *Repository) ListBooked(ctx context.Context, resourceID int64, window domain.Interval) ([]domain.Interval, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	activeStatuses := make([]string, len(domain.ActiveStatuses))
	for i, s := range domain.ActiveStatuses {
		activeStatuses[i] = string(s)
	}

	selectBuilder := psqlbuilder.Select("start_time", "end_time").
		From(tableAppointments).
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Eq{"status": activeStatuses}).
		Where(squirrel.Lt{"start_time": window.End}).
		Where(squirrel.Gt{"end_time": window.Start}).
		OrderBy("start_time ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBooked - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListBooked - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	intervals := make([]domain.Interval, 0)
	for rows.Next() {
		var i domain.Interval
		if err := rows.Scan(&i.Start, &i.End); err != nil {
			return nil, fmt.Errorf("%w: ListBooked - scan row: %v", ErrScanRow, err)
		}
		intervals = append(intervals, i)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListBooked - rows error: %v", ErrScanRow, err)
	}

	return intervals, nil
}

// UpdateStatus обновляет статус записи
func (r *Repository) UpdateStatus(ctx context.Context, id int64, status domain.AppointmentStatus) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update(tableAppointments).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		// Возврат отменённой записи в активный статус может упереться в exclusion-ограничение
		if isSlotConflict(err) {
			return fmt.Errorf("%w: UpdateStatus: %v", ErrSlotTaken, err)
		}
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrAppointmentNotFound
	}

	return nil
}

// attachReminders загружает отметки напоминаний одним запросом для всех записей
func (r *Repository) attachReminders(ctx context.Context, appointments []*domain.Appointment) error {
	if len(appointments) == 0 {
		return nil
	}

	executor := dbmetrics.GetExecutor(ctx, r.db)

	ids := make([]int64, len(appointments))
	byID := make(map[int64]*domain.Appointment, len(appointments))
	for i, a := range appointments {
		ids[i] = a.ID
		a.Reminders = []domain.ReminderMark{}
		byID[a.ID] = a
	}

	query, args, err := psqlbuilder.Select("appointment_id", "reminder_type", "sent_at").
		From(tableReminders).
		Where(squirrel.Eq{"appointment_id": ids}).
		OrderBy("sent_at ASC").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: attachReminders - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: attachReminders - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			appointmentID int64
			mark          domain.ReminderMark
		)
		if err := rows.Scan(&appointmentID, &mark.Type, &mark.SentAt); err != nil {
			return fmt.Errorf("%w: attachReminders - scan row: %v", ErrScanRow, err)
		}
		if a, ok := byID[appointmentID]; ok {
			a.Reminders = append(a.Reminders, mark)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: attachReminders - rows error: %v", ErrScanRow, err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*domain.Appointment, error) {
	var a domain.Appointment
	var createdAt, updatedAt sql.NullTime

	err := row.Scan(
		&a.ID,
		&a.ResourceID,
		&a.AppointmentTypeID,
		&a.StartTime,
		&a.EndTime,
		&a.Status,
		&a.Contact.Name,
		&a.Contact.Email,
		&a.Contact.Phone,
		&a.Notes,
		&a.ConfirmationCode,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.CreatedAt = createdAt.Time
	a.UpdatedAt = updatedAt.Time

	return &a, nil
}

// scanAppointments сканирует результаты запроса и закрывает rows
func scanAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	defer rows.Close()

	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanAppointments - scan row: %v", ErrScanRow, err)
		}
		appointments = append(appointments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanAppointments - rows error: %v", ErrScanRow, err)
	}

	return appointments, nil
}
