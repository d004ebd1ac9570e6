package send_reminders

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/m04kA/SMC-AppointmentService/internal/domain"
	"github.com/m04kA/SMC-AppointmentService/internal/integrations/notification"
)

// UseCase прогон рассылки напоминаний.
// Безопасен при повторных и параллельных вызовах: от дублей защищает только
// условная запись отметки в хранилище, эксклюзивность прогона не требуется
type UseCase struct {
	appointmentRepo AppointmentRepository
	resourceRepo    ResourceRepository
	gateway         NotificationGateway
	claimer         Claimer
	metrics         Metrics
	cfg             Config
	timeProvider    TimeProvider
	logger          Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	appointmentRepo AppointmentRepository,
	resourceRepo ResourceRepository,
	gateway NotificationGateway,
	claimer Claimer,
	metrics Metrics,
	cfg Config,
	logger Logger,
) *UseCase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if len(cfg.Offsets) == 0 {
		cfg.Offsets = domain.DefaultReminderOffsets
	}
	if cfg.Channel == "" {
		cfg.Channel = ChannelEmail
	}

	return &UseCase{
		appointmentRepo: appointmentRepo,
		resourceRepo:    resourceRepo,
		gateway:         gateway,
		claimer:         claimer,
		metrics:         metrics,
		cfg:             cfg,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
	}
}

// Window возвращает полуоткрытое окно [target-period/2, target+period-period/2), где target = now+offset.
// Окна соседних прогонов с шагом period стыкуются без пропусков и пересечений
func Window(now time.Time, offset time.Duration, period time.Duration) domain.Interval {
	target := now.Add(offset)
	halfSpan := period / 2
	return domain.Interval{Start: target.Add(-halfSpan), End: target.Add(period - halfSpan)}
}

// Execute выполняет один прогон рассылки
func (uc *UseCase) Execute(ctx context.Context) (*Response, error) {
	startedAt := time.Now()
	defer func() {
		uc.metrics.ObserveSweep(time.Since(startedAt).Seconds())
	}()

	// 1. Фиксируем момент прогона: от него считаются окна и время отметок
	now := uc.timeProvider.Now()
	uc.logger.Info("SendReminders: sweep started at %s, offsets=%d, period=%s",
		now.Format(time.RFC3339), len(uc.cfg.Offsets), uc.cfg.Period)

	// 2. Бюджет ограничивает только запуск новых отправок, начатая отправка доводится до конца
	budgetCtx, cancel := context.WithTimeout(ctx, uc.cfg.Budget)
	defer cancel()

	resp := &Response{Details: make([]Detail, 0)}

	// 3. Собираем кандидатов по каждому типу напоминания
	candidates := make([]candidate, 0)
	for _, offset := range uc.cfg.Offsets {
		window := Window(now, time.Duration(offset.Minutes)*time.Minute, uc.cfg.Period)

		appointments, err := uc.appointmentRepo.FindPending(budgetCtx, domain.ActiveStatuses, window)
		if err != nil {
			uc.logger.Error("SendReminders: failed to find pending appointments for type=%s: %v", offset.Type, err)
			resp.Errors++
			resp.Details = append(resp.Details, Detail{
				ReminderType: offset.Type,
				Status:       StatusFailed,
				Error:        fmt.Sprintf("find pending: %v", err),
			})
			continue
		}

		uc.logger.Info("SendReminders: type=%s window=[%s, %s) candidates=%d",
			offset.Type, window.Start.Format(time.RFC3339), window.End.Format(time.RFC3339), len(appointments))

		for _, a := range appointments {
			candidates = append(candidates, candidate{appointment: a, reminderType: offset.Type})
		}
	}

	// 4. Обрабатываем кандидатов параллельно с ограничением; ошибка одной записи не влияет на другие
	results := make([]Detail, len(candidates))
	tz := newTimezoneCache(uc.resourceRepo)

	var g errgroup.Group
	g.SetLimit(uc.cfg.Concurrency)

	for i, c := range candidates {
		if budgetCtx.Err() != nil {
			results[i] = deferred(c)
			continue
		}

		i, c := i, c
		g.Go(func() error {
			// Слот воркера мог освободиться уже после истечения бюджета
			if budgetCtx.Err() != nil {
				results[i] = deferred(c)
				return nil
			}
			results[i] = uc.process(ctx, c, now, tz)
			return nil
		})
	}
	_ = g.Wait()

	// 5. Сводка
	deferredCount := 0
	for _, d := range results {
		uc.metrics.ObserveReminder(string(d.ReminderType), string(d.Status))

		switch d.Status {
		case StatusDeferred:
			deferredCount++
			resp.Details = append(resp.Details, d)
			continue
		case StatusSent:
			resp.Sent++
		case StatusFailed, StatusNoAddress:
			resp.Errors++
		}
		resp.Processed++
		resp.Details = append(resp.Details, d)
	}

	uc.logger.Info("SendReminders: sweep finished: processed=%d, sent=%d, errors=%d, deferred=%d",
		resp.Processed, resp.Sent, resp.Errors, deferredCount)

	return resp, nil
}

// process обрабатывает одну пару (запись, тип напоминания)
func (uc *UseCase) process(ctx context.Context, c candidate, now time.Time, tz *timezoneCache) Detail {
	a := c.appointment
	detail := Detail{AppointmentID: a.ID, ReminderType: c.reminderType}

	// a. Отметка уже есть - единственная защита от дублей между прогонами
	if a.HasReminder(c.reminderType) {
		detail.Status = StatusAlreadySent
		return detail
	}

	// b. Нет адреса для канала - постоянная ошибка данных, не повторяется
	to, ok := addressFor(uc.cfg.Channel, a.Contact)
	if !ok {
		uc.logger.Warn("SendReminders: appointment id=%d has no %s address, type=%s skipped",
			a.ID, uc.cfg.Channel, c.reminderType)
		detail.Status = StatusNoAddress
		detail.Error = fmt.Sprintf("contact has no %s address", uc.cfg.Channel)
		return detail
	}

	// c. Best-effort claim: недоступность Redis не мешает рассылке.
	// После успешной отправки claim не освобождается и истекает по TTL,
	// чтобы параллельный прогон со старым снимком не отправил напоминание повторно
	release, claimed, err := uc.claimer.Claim(ctx, a.ID, c.reminderType)
	if err != nil {
		uc.logger.Warn("SendReminders: claim failed for appointment id=%d type=%s, sending without claim: %v",
			a.ID, c.reminderType, err)
		release = nil
	} else if !claimed {
		uc.logger.Info("SendReminders: appointment id=%d type=%s is being sent by another sweep", a.ID, c.reminderType)
		detail.Status = StatusInProgress
		return detail
	}

	// d. Отправка
	fields := notification.TemplateFields{
		AppointmentID:    a.ID,
		ReminderType:     string(c.reminderType),
		ContactName:      a.Contact.Name,
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		Timezone:         tz.get(ctx, a.ResourceID),
		ConfirmationCode: a.ConfirmationCode,
	}
	if a.Notes != nil {
		fields.Notes = *a.Notes
	}

	if err := uc.gateway.Send(ctx, to, fields); err != nil {
		uc.logger.Warn("SendReminders: failed to send type=%s for appointment id=%d, will retry next sweep: %v",
			c.reminderType, a.ID, err)
		// Отправки не было: освобождаем claim, чтобы следующий прогон мог повторить
		if release != nil {
			release(context.WithoutCancel(ctx))
		}
		detail.Status = StatusFailed
		detail.Error = err.Error()
		return detail
	}

	// e. Условная запись отметки. Отправка уже состоялась, поэтому отмена запроса её не прерывает
	appended, err := uc.appointmentRepo.AppendReminderIfAbsent(context.WithoutCancel(ctx), a.ID, c.reminderType, now)
	if err != nil {
		uc.logger.Error("SendReminders: sent type=%s for appointment id=%d but failed to record it: %v",
			c.reminderType, a.ID, err)
		detail.Status = StatusFailed
		detail.Error = fmt.Sprintf("record reminder: %v", err)
		return detail
	}
	if !appended {
		uc.logger.Warn("SendReminders: type=%s for appointment id=%d was recorded by a concurrent sweep",
			c.reminderType, a.ID)
		detail.Status = StatusDuplicate
		return detail
	}

	detail.Status = StatusSent
	return detail
}

// addressFor выбирает адрес контакта для канала доставки
func addressFor(ch Channel, c domain.Contact) (string, bool) {
	switch ch {
	case ChannelSMS:
		if c.HasPhone() {
			return c.Phone, true
		}
	default:
		if c.HasEmail() {
			return c.Email, true
		}
	}
	return "", false
}

func deferred(c candidate) Detail {
	return Detail{AppointmentID: c.appointment.ID, ReminderType: c.reminderType, Status: StatusDeferred}
}

// timezoneCache кэширует часовые пояса ресурсов в пределах одного прогона.
// Запрос к хранилищу выполняется без удержания мьютекса, параллельные промахи по одному ресурсу схлопываются
type timezoneCache struct {
	repo  ResourceRepository
	group singleflight.Group
	mu    sync.Mutex
	byID  map[int64]string
}

func newTimezoneCache(repo ResourceRepository) *timezoneCache {
	return &timezoneCache{repo: repo, byID: make(map[int64]string)}
}

func (c *timezoneCache) get(ctx context.Context, resourceID int64) string {
	if c.repo == nil {
		return ""
	}

	c.mu.Lock()
	tz, ok := c.byID[resourceID]
	c.mu.Unlock()
	if ok {
		return tz
	}

	v, _, _ := c.group.Do(strconv.FormatInt(resourceID, 10), func() (interface{}, error) {
		zone := ""
		if res, err := c.repo.GetResource(ctx, resourceID); err == nil {
			zone = res.Timezone
		}
		c.mu.Lock()
		c.byID[resourceID] = zone
		c.mu.Unlock()
		return zone, nil
	})
	return v.(string)
}
