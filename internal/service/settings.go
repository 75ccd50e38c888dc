package service

import (
	"context"
	"fmt"

	"github.com/miamiwave/internal/mapper"
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

const defaultTheme = "default"

type SettingsService struct {
	base
}

func (s *SettingsService) GetAll(ctx context.Context) ([]model.Setting, error) {
	recs, err := s.gw.List(ctx, record.CollectionSettings, record.Query{Fields: mapper.SettingSchema.Fields()})
	if err != nil {
		return nil, fmt.Errorf("settings.GetAll: %w", err)
	}
	return mapper.Settings(recs), nil
}

func (s *SettingsService) GetByID(ctx context.Context, id int64) (model.Setting, error) {
	rec, err := s.gw.GetByID(ctx, record.CollectionSettings, id, mapper.SettingSchema.Fields())
	if err != nil {
		return model.Setting{}, fmt.Errorf("settings.GetByID: %w", err)
	}
	return mapper.Setting(rec), nil
}

func (s *SettingsService) Create(ctx context.Context, in model.SettingInput) (model.Setting, error) {
	rec := mapper.SettingRecord(in)
	if in.Theme == nil || *in.Theme == "" {
		rec[mapper.SettingTheme] = defaultTheme
	}
	created, err := s.co.Create(ctx, record.CollectionSettings, rec)
	if err != nil {
		return model.Setting{}, fmt.Errorf("settings.Create: %w", err)
	}
	return mapper.Setting(created), nil
}

func (s *SettingsService) Update(ctx context.Context, id int64, in model.SettingInput) (model.Setting, error) {
	patch := mapper.SettingRecord(in)
	if len(patch) == 0 {
		return s.GetByID(ctx, id)
	}
	updated, err := s.co.Update(ctx, record.CollectionSettings, id, patch)
	if err != nil {
		return model.Setting{}, fmt.Errorf("settings.Update: %w", err)
	}
	return mapper.Setting(updated), nil
}

func (s *SettingsService) Delete(ctx context.Context, id int64) error {
	if err := s.co.Delete(ctx, record.CollectionSettings, id); err != nil {
		return fmt.Errorf("settings.Delete: %w", err)
	}
	return nil
}
