package mapper

import (
	"github.com/miamiwave/internal/model"
	"github.com/miamiwave/internal/record"
)

func Setting(rec record.Record) model.Setting {
	s := SettingSchema
	s.check(rec)
	return model.Setting{
		ID:                rec.ID(),
		Name:              s.str(rec, FieldName),
		LogoURL:           s.str(rec, SettingLogoURL),
		AnimationSettings: s.str(rec, SettingAnimationSettings),
		Theme:             s.str(rec, SettingTheme),
	}
}

func Settings(recs []record.Record) []model.Setting {
	out := make([]model.Setting, 0, len(recs))
	for _, r := range recs {
		out = append(out, Setting(r))
	}
	return out
}

func SettingRecord(in model.SettingInput) record.Record {
	rec := record.Record{}
	if in.Name != nil {
		rec[FieldName] = *in.Name
	}
	if in.LogoURL != nil {
		rec[SettingLogoURL] = *in.LogoURL
	}
	if in.AnimationSettings != nil {
		rec[SettingAnimationSettings] = *in.AnimationSettings
	}
	if in.Theme != nil {
		rec[SettingTheme] = *in.Theme
	}
	return rec
}
