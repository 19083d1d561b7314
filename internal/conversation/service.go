// Package conversation はユーザーの返答を解釈し、服薬確認と介護者通知の判定につなげる。
// 「現在のリマインダー」は保持せず、服薬記録ストアの未服用記録から都度導出する。
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hitoshi/medmitra/internal/intent"
	"github.com/hitoshi/medmitra/internal/message"
	"github.com/hitoshi/medmitra/internal/model"
	"github.com/hitoshi/medmitra/internal/security"
)

// MaxInputLength はユーザー返答の最大文字数。
const MaxInputLength = 1000

// MedicationFinder は服薬リストの参照インターフェース。
type MedicationFinder interface {
	List(ctx context.Context) ([]*model.Medication, error)
	Get(ctx context.Context, name string) (*model.Medication, error)
}

// DoseTracker はリマインダーエンジンの服薬確認インターフェース。
type DoseTracker interface {
	Now() time.Time
	PendingReminders(ctx context.Context) ([]*model.DoseRecord, error)
	MarkTaken(ctx context.Context, med *model.Medication) (*model.DoseRecord, error)
	ConfirmTaken(ctx context.Context, medicationName string, at time.Time) (*model.DoseRecord, error)
}

// Escalator は介護者通知の判定インターフェース。
type Escalator interface {
	CheckAndNotify(ctx context.Context, med *model.Medication) (*model.Notification, error)
}

// ProfileProvider はユーザー情報の取得インターフェース。
type ProfileProvider interface {
	Profile(ctx context.Context) (*model.UserProfile, error)
}

// CurrentReminder は確認待ちのリマインダー。
type CurrentReminder struct {
	Medication *model.Medication
	Record     *model.DoseRecord
	Text       string
}

// Reply はユーザー返答に対する応答。
type Reply struct {
	Text            string
	Intent          intent.Intent
	Medication      *model.Medication
	MedicationTaken bool
	CaregiverAlert  *model.Notification
}

// Service はユーザーとの対話のサービス層。
type Service struct {
	classifier  intent.Classifier
	medications MedicationFinder
	doses       DoseTracker
	escalator   Escalator
	profiles    ProfileProvider
	sanitizer   security.TextSanitizer
	logger      *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	classifier intent.Classifier,
	medications MedicationFinder,
	doses DoseTracker,
	escalator Escalator,
	profiles ProfileProvider,
	sanitizer security.TextSanitizer,
	logger *slog.Logger,
) *Service {
	return &Service{
		classifier:  classifier,
		medications: medications,
		doses:       doses,
		escalator:   escalator,
		profiles:    profiles,
		sanitizer:   sanitizer,
		logger:      logger,
	}
}

// Current は最新の未服用記録に対応するリマインダーを返す。
// 薬が削除済みの記録は飛ばす。確認待ちがない場合はnilを返す。
func (s *Service) Current(ctx context.Context) (*CurrentReminder, error) {
	pending, err := s.doses.PendingReminders(ctx)
	if err != nil {
		return nil, fmt.Errorf("未服用記録の取得に失敗しました: %w", err)
	}

	for i := len(pending) - 1; i >= 0; i-- {
		rec := pending[i]
		med, err := s.medications.Get(ctx, rec.MedicationName)
		if err != nil {
			if isNotFound(err) {
				continue
			}
			return nil, err
		}

		text, err := s.ReminderText(ctx, med)
		if err != nil {
			return nil, err
		}
		return &CurrentReminder{
			Medication: med,
			Record:     rec,
			Text:       text,
		}, nil
	}
	return nil, nil
}

// ReminderText は現在のユーザー名で薬のリマインダー文を生成する。
func (s *Service) ReminderText(ctx context.Context, med *model.Medication) (string, error) {
	profile, err := s.profiles.Profile(ctx)
	if err != nil {
		return "", err
	}
	return message.Reminder(profile.UserName, med), nil
}

// Respond はユーザーの返答を分類し、応答文を生成する。
// 肯定の返答で確認待ちのリマインダーがあれば服用を記録する。
// 薬に関する返答の後は介護者通知の判定を行う。
func (s *Service) Respond(ctx context.Context, text string) (*Reply, error) {
	input := s.sanitizer.Sanitize(text)
	if input == "" {
		return nil, model.NewInvalidInputError("text is required")
	}
	if utf8.RuneCountInString(input) > MaxInputLength {
		return nil, model.NewInvalidInputError(fmt.Sprintf("text must be at most %d characters", MaxInputLength))
	}

	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	var currentMed *model.Medication
	if current != nil {
		currentMed = current.Medication
	}

	reply := &Reply{Intent: s.classifier.Classify(input)}

	switch reply.Intent {
	case intent.Emergency:
		reply.Text = message.ReplyEmergency

	case intent.Yes:
		if currentMed == nil {
			reply.Text = message.ReplyAckNoContext
			break
		}
		taken, err := s.confirm(ctx, currentMed)
		if err != nil {
			return nil, err
		}
		reply.Text = message.ReplyTaken
		reply.Medication = currentMed
		reply.MedicationTaken = taken

	case intent.No:
		if currentMed == nil {
			reply.Text = message.ReplyNoNoContext
			break
		}
		reply.Text = message.ReplyNotTaken
		reply.Medication = currentMed

	case intent.Question:
		med := currentMed
		if med == nil {
			med, err = s.findMentioned(ctx, input)
			if err != nil {
				return nil, err
			}
		}
		if med == nil {
			reply.Text = message.ReplyAskWhichMed
			break
		}
		reply.Text = message.MedicationInfo(med)
		reply.Medication = med

	case intent.Confused:
		reply.Text = message.ReplyConfused

	default:
		reply.Text = message.ReplyUnknown
		reply.Medication = currentMed
	}

	if reply.Medication != nil {
		alert, err := s.escalator.CheckAndNotify(ctx, reply.Medication)
		if err != nil {
			s.logger.Warn("介護者通知の判定に失敗しました",
				slog.String("medication", reply.Medication.Name),
				slog.String("error", err.Error()),
			)
		}
		reply.CaregiverAlert = alert
	}

	s.logger.Info("ユーザー返答を処理しました",
		slog.String("intent", string(reply.Intent)),
		slog.Bool("medication_taken", reply.MedicationTaken),
		slog.Bool("caregiver_alert", reply.CaregiverAlert != nil),
	)
	return reply, nil
}

// confirm は当日の記録を服用済みにし、該当がなければ最新の未服用記録（前日以前の遅れた服用）を確定する。
func (s *Service) confirm(ctx context.Context, med *model.Medication) (bool, error) {
	rec, err := s.doses.MarkTaken(ctx, med)
	if err != nil {
		return false, err
	}
	if rec != nil {
		return true, nil
	}
	rec, err = s.doses.ConfirmTaken(ctx, med.Name, s.doses.Now())
	if err != nil {
		return false, err
	}
	return rec != nil, nil
}

// findMentioned は入力に名前が含まれる薬を登録順に探す。
func (s *Service) findMentioned(ctx context.Context, input string) (*model.Medication, error) {
	meds, err := s.medications.List(ctx)
	if err != nil {
		return nil, err
	}
	lower := strings.ToLower(input)
	for _, med := range meds {
		if strings.Contains(lower, strings.ToLower(med.Name)) {
			return med, nil
		}
	}
	return nil, nil
}

func isNotFound(err error) bool {
	var apiErr *model.APIError
	return errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeMedicationNotFound
}
