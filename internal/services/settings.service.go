package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gfconnector/billing-console/internal/model"
	"github.com/go-playground/validator/v10"
)

type BillingSettingsRepository interface {
	Active(ctx context.Context) (model.BillingSettings, error)
	Get(ctx context.Context, id string) (model.BillingSettings, error)
	List(ctx context.Context) ([]model.BillingSettings, error)
	Create(ctx context.Context, s model.BillingSettings) (model.BillingSettings, error)
	Update(ctx context.Context, s model.BillingSettings) (model.BillingSettings, error)
	Activate(ctx context.Context, id string) (model.BillingSettings, error)
}

type SettingsService struct {
	repo     BillingSettingsRepository
	validate *validator.Validate
}

func NewSettingsService(repo BillingSettingsRepository) *SettingsService {
	return &SettingsService{repo: repo, validate: validator.New()}
}

func (s *SettingsService) Active(ctx context.Context) (model.BillingSettings, error) {
	return s.repo.Active(ctx)
}

func (s *SettingsService) List(ctx context.Context) ([]model.BillingSettings, error) {
	return s.repo.List(ctx)
}

// InitDefault returns the active settings, creating the defaults first when none are active.
func (s *SettingsService) InitDefault(ctx context.Context) (model.BillingSettings, error) {
	active, err := s.repo.Active(ctx)
	if err == nil {
		return active, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.BillingSettings{}, err
	}
	return s.repo.Create(ctx, model.DefaultBillingSettings())
}

func (s *SettingsService) Create(ctx context.Context, in model.BillingSettings) (model.BillingSettings, error) {
	in = withDefaults(in)
	if err := s.check(in); err != nil {
		return model.BillingSettings{}, err
	}
	return s.repo.Create(ctx, in)
}

func (s *SettingsService) Update(ctx context.Context, id string, in model.BillingSettings) (model.BillingSettings, error) {
	in.ID = id
	in = withDefaults(in)
	if err := s.check(in); err != nil {
		return model.BillingSettings{}, err
	}
	return s.repo.Update(ctx, in)
}

func (s *SettingsService) Activate(ctx context.Context, id string) (model.BillingSettings, error) {
	return s.repo.Activate(ctx, id)
}

func (s *SettingsService) check(in model.BillingSettings) error {
	return validationError(s.validate.Struct(in))
}

func withDefaults(in model.BillingSettings) model.BillingSettings {
	def := model.DefaultBillingSettings()
	if in.CreditNoteStrategy == "" {
		in.CreditNoteStrategy = def.CreditNoteStrategy
	}
	if in.IvaPorDefecto.IsZero() {
		in.IvaPorDefecto = def.IvaPorDefecto
	}
	if in.CuitConsumidorFinal == "" {
		in.CuitConsumidorFinal = def.CuitConsumidorFinal
	}
	if in.RazonSocialConsumidorFinal == "" {
		in.RazonSocialConsumidorFinal = def.RazonSocialConsumidorFinal
	}
	return in
}

// validationError flattens validator output into one ErrValidation.
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(fields, ", "))
}
