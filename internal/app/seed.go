package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/medmitra/internal/medication"
)

// サンプルデータの利用者情報。
const (
	sampleUserName         = "Mr. Sharma"
	sampleCaregiverContact = "+91-9876543210"
)

// sampleMedications はデモ用の服薬リスト。
var sampleMedications = []medication.AddInput{
	{
		Name:         "Metoprolol",
		Dosage:       "25 mg",
		TimeSlot:     "Morning",
		Instructions: "Khane ke baad lein",
		UserName:     sampleUserName,
	},
	{
		Name:         "Metformin",
		Dosage:       "500 mg",
		TimeSlot:     "Evening",
		Instructions: "Khane ke saath lein",
		UserName:     sampleUserName,
	},
}

// SeedSampleData は服薬リストが空の場合のみサンプルの薬と利用者情報を登録する。
func (a *Application) SeedSampleData(ctx context.Context) error {
	existing, err := a.Medication.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Info("サンプルデータの登録をスキップしました", slog.Int("medications", len(existing)))
		return nil
	}

	for _, in := range sampleMedications {
		if _, err := a.Medication.Add(ctx, in); err != nil {
			return fmt.Errorf("サンプルの薬の登録に失敗しました: %s: %w", in.Name, err)
		}
	}

	if _, err := a.Users.Setup(ctx, sampleUserName, sampleCaregiverContact); err != nil {
		return err
	}

	slog.Info("サンプルデータを登録しました", slog.Int("medications", len(sampleMedications)))
	return nil
}
