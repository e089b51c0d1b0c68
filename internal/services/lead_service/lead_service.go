package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"coffee_configurator/internal/domain/models"
	"coffee_configurator/internal/lib/logger/sl"
	"coffee_configurator/internal/metrics"
	"coffee_configurator/internal/repository"
)

var (
	ErrNameRequired  = errors.New("name is required")
	ErrPhoneRequired = errors.New("phone is required")
)

type Notifier interface {
	SendMessage(ctx context.Context, text string) error
}

type LeadService struct {
	log      *slog.Logger
	repo     repository.LeadRepository
	notifier Notifier
}

// NewLeadService создаёт сервис заявок. notifier может быть nil.
func NewLeadService(log *slog.Logger, repo repository.LeadRepository, notifier Notifier) *LeadService {
	return &LeadService{
		log:      log,
		repo:     repo,
		notifier: notifier,
	}
}

// Submit сохраняет заявку и отправляет уведомление в Telegram.
// Сбой уведомления не отменяет заявку: возвращается notified=false.
func (s *LeadService) Submit(ctx context.Context, lead models.Lead) (*models.Lead, bool, error) {
	const op = "lead_service.Submit"

	log := s.log.With(slog.String("op", op))

	lead.Name = strings.TrimSpace(lead.Name)
	lead.Phone = strings.TrimSpace(lead.Phone)
	lead.Telegram = strings.TrimSpace(lead.Telegram)
	lead.Email = strings.TrimSpace(lead.Email)

	if lead.Name == "" {
		return nil, false, fmt.Errorf("%s: %w", op, ErrNameRequired)
	}
	if lead.Phone == "" {
		return nil, false, fmt.Errorf("%s: %w", op, ErrPhoneRequired)
	}

	saved, err := s.repo.CreateLead(ctx, lead)
	if err != nil {
		log.Error("failed to save lead", sl.Err(err))

		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.Int64("lead_id", saved.ID))

	notified := false
	if s.notifier == nil {
		log.Warn("telegram is not configured, lead saved without notification")
	} else if err := s.notifier.SendMessage(ctx, BuildLeadMessage(saved)); err != nil {
		metrics.ExternalCallFailures.WithLabelValues("telegram").Inc()
		log.Error("failed to notify telegram", sl.Err(err))
	} else {
		notified = true
	}

	metrics.LeadsTotal.WithLabelValues(strconv.FormatBool(notified)).Inc()

	log.Info("lead accepted", slog.Bool("notified", notified))

	return saved, notified, nil
}

func (s *LeadService) List(ctx context.Context, offset, limit int) ([]models.Lead, error) {
	const op = "lead_service.List"

	leads, err := s.repo.ListLeads(ctx, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return leads, nil
}

// BuildLeadMessage формирует текст уведомления о заявке.
func BuildLeadMessage(lead *models.Lead) string {
	sel := lead.SelectionData

	lines := []string{
		"Новая заявка с конфигуратора",
		"Имя: " + orDash(lead.Name),
		"Телефон: " + orDash(lead.Phone),
		"Telegram: " + orDash(lead.Telegram),
		"Email: " + orDash(lead.Email),
		"",
		"Выбор пользователя:",
		"Кофемашина: " + orDash(sel.String("machine")),
		"Каркас: " + orDash(sel.String("frame")),
		"Цвет каркаса: " + orDash(sel.String("frame_color")),
		"Холодильник: " + orDash(sel.String("refrigerator")),
		"Терминал: " + orDash(sel.String("terminal")),
		"Цена: " + orDash(sel.String("price")),
		"OZON: " + orDash(sel.String("ozon_link")),
		"Gallery: " + orDash(sel.String("gallery_folder")),
	}

	return strings.Join(lines, "\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}

	return s
}
