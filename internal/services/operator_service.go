package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vladimiradmaev/vitalz-dashboard/internal/database"
	apperrors "github.com/vladimiradmaev/vitalz-dashboard/internal/errors"
)

type OperatorService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewOperatorService(db *gorm.DB) *OperatorService {
	return &OperatorService{db: db, now: time.Now}
}

// RegisterOperator returns the operator for telegramID, creating it on
// first contact. Non-empty profile fields overwrite the stored ones.
func (s *OperatorService) RegisterOperator(ctx context.Context, telegramID int64, username, firstName, lastName string) (*database.Operator, error) {
	var operator database.Operator
	result := s.db.WithContext(ctx).
		Where(database.Operator{TelegramID: telegramID}).
		Assign(database.Operator{Username: username, FirstName: firstName, LastName: lastName}).
		FirstOrCreate(&operator)
	if result.Error != nil {
		return nil, apperrors.NewDatabaseError(result.Error).WithContext("telegram_id", telegramID)
	}
	return &operator, nil
}

func (s *OperatorService) GetOperator(ctx context.Context, telegramID int64) (*database.Operator, error) {
	var operator database.Operator
	if err := s.db.WithContext(ctx).Where("telegram_id = ?", telegramID).First(&operator).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err).WithContext("telegram_id", telegramID)
	}
	return &operator, nil
}

// RecordSelection remembers the user the operator looked at last
func (s *OperatorService) RecordSelection(ctx context.Context, telegramID int64, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return apperrors.NewMissingLoginEmailError("")
	}

	now := s.now()
	result := s.db.WithContext(ctx).
		Model(&database.Operator{}).
		Where("telegram_id = ?", telegramID).
		Updates(map[string]interface{}{
			"last_selected_email": email,
			"last_selected_at":    now,
		})
	if result.Error != nil {
		return apperrors.NewDatabaseError(result.Error).WithContext("telegram_id", telegramID)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewDatabaseError(gorm.ErrRecordNotFound).WithContext("telegram_id", telegramID)
	}
	return nil
}

// LastSelection returns the last recorded login email, if any
func (s *OperatorService) LastSelection(ctx context.Context, telegramID int64) (string, bool, error) {
	operator, err := s.GetOperator(ctx, telegramID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	if operator.LastSelectedEmail == "" {
		return "", false, nil
	}
	return operator.LastSelectedEmail, true, nil
}
