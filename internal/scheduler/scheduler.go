package scheduler

import (
	"context"
	"time"

	"github.com/Dhoini/storefront-billing/internal/service"
	"github.com/Dhoini/storefront-billing/pkg/logger"
	"github.com/robfig/cron/v3"
)

// billingRunTimeout предельная длительность одного запуска процессора
const billingRunTimeout = 30 * time.Minute

// Scheduler запускает процессор биллинга по расписанию
type Scheduler struct {
	cron           *cron.Cron
	billingService service.BillingService
	log            *logger.Logger
}

// New создает новый планировщик биллинга
func New(billingService service.BillingService, log *logger.Logger) *Scheduler {
	return &Scheduler{
		cron:           cron.New(),
		billingService: billingService,
		log:            log,
	}
}

// Start регистрирует задачу по расписанию и запускает планировщик.
// Перекрывающиеся запуски допустимы: процессор захватывает каждую
// подписку атомарно, двойного списания не будет.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, s.runBilling)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.log.Infow("Billing scheduler started", "schedule", schedule)
	return nil
}

// Stop останавливает планировщик и дожидается завершения текущих задач
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Billing scheduler stopped")
}

// runBilling выполняет один запуск процессора биллинга
func (s *Scheduler) runBilling() {
	ctx, cancel := context.WithTimeout(context.Background(), billingRunTimeout)
	defer cancel()

	stats, err := s.billingService.ProcessDueSubscriptions(ctx)
	if err != nil {
		s.log.Errorw("Scheduled billing run failed", "error", err)
		return
	}

	s.log.Infow("Scheduled billing run completed",
		"total", stats.TotalProcessed,
		"succeeded", stats.SuccessfulCharges,
		"failed", stats.FailedCharges,
	)
}
