package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/trackify/mailer/internal/models"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

// Store wraps all mails-table access shared by the API handlers and the
// report scheduler.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// =====================================================
// Report settings
// =====================================================

// UpsertSettings creates or updates the report settings row for the
// (owner, goal) pair.
func (s *Store) UpsertSettings(ownerID string, goalID uuid.UUID, recipient string, enabled bool, sendDay int) (*models.Mail, error) {
	var existing models.Mail
	err := s.db.Where("related_goal_id = ? AND owner_user_id = ?", goalID, ownerID).First(&existing).Error
	switch {
	case err == nil:
		existing.Recipient = recipient
		existing.Enabled = enabled
		existing.SendDay = &sendDay
		existing.UpdatedAt = time.Now().UTC()
		if err := s.db.Save(&existing).Error; err != nil {
			return nil, fmt.Errorf("failed to update settings: %v", err)
		}
		return &existing, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		mail := models.Mail{
			OwnerUserID:   ownerID,
			RelatedGoalID: &goalID,
			Recipient:     recipient,
			Subject:       "Monthly Progress Report",
			Enabled:       enabled,
			SendDay:       &sendDay,
			Status:        models.StatusScheduled,
		}
		if err := s.db.Create(&mail).Error; err != nil {
			return nil, fmt.Errorf("failed to create settings: %v", err)
		}
		return &mail, nil
	default:
		return nil, err
	}
}

func (s *Store) SettingsByGoal(ownerID string, goalID uuid.UUID) (*models.Mail, error) {
	var mail models.Mail
	err := s.db.Where("related_goal_id = ? AND owner_user_id = ?", goalID, ownerID).First(&mail).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &mail, nil
}

func (s *Store) ListSettings(ownerID string) ([]models.Mail, error) {
	var out []models.Mail
	err := s.db.Where("owner_user_id = ? AND related_goal_id IS NOT NULL AND sent_when IS NOT NULL", ownerID).
		Order("created_at").Find(&out).Error
	return out, err
}

// UpdateSettings writes back the user-editable columns only. last_sent_at,
// status and error_message belong to the delivery paths; a settings edit
// racing a send must not clobber them.
func (s *Store) UpdateSettings(m *models.Mail) error {
	m.UpdatedAt = time.Now().UTC()
	return s.db.Model(&models.Mail{}).Where("mail_id = ?", m.MailID).
		Updates(map[string]interface{}{
			"recipient":  m.Recipient,
			"enabled":    m.Enabled,
			"sent_when":  m.SendDay,
			"updated_at": m.UpdatedAt,
		}).Error
}

func (s *Store) DeleteSettings(ownerID string, goalID uuid.UUID) error {
	res := s.db.Where("related_goal_id = ? AND owner_user_id = ?", goalID, ownerID).Delete(&models.Mail{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DueOn returns the enabled, goal-bound settings whose send day matches the
// given date. On the last day of a month the comparison widens to
// sent_when >= day so that days past the end of a short month still fire.
func (s *Store) DueOn(date time.Time) ([]models.Mail, error) {
	day := date.Day()
	lastDay := daysInMonth(date)

	q := s.db.Where("enabled = ? AND related_goal_id IS NOT NULL", true)
	if day == lastDay {
		q = q.Where("sent_when >= ?", day)
	} else {
		q = q.Where("sent_when = ?", day)
	}

	var out []models.Mail
	if err := q.Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to select due settings: %v", err)
	}
	return out, nil
}

// MarkSent records a successful delivery. The update is conditional on
// last_sent_at still holding the value observed when the setting was
// selected, so a scheduled tick and a send-now request racing on the same
// row cannot overwrite each other. Returns false when the row was updated
// by somebody else in the meantime.
func (s *Store) MarkSent(id uuid.UUID, seenLastSentAt *time.Time, sentAt time.Time) (bool, error) {
	q := s.db.Model(&models.Mail{}).Where("mail_id = ?", id)
	if seenLastSentAt == nil {
		q = q.Where("last_sent_at IS NULL")
	} else {
		q = q.Where("last_sent_at = ?", *seenLastSentAt)
	}

	res := q.Updates(map[string]interface{}{
		"last_sent_at":  sentAt,
		"status":        models.StatusSent,
		"error_message": "",
		"updated_at":    sentAt,
	})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// MarkFailed records a failed delivery attempt. last_sent_at is deliberately
// left untouched so the setting stays eligible for the rest of the month.
func (s *Store) MarkFailed(id uuid.UUID, message string) error {
	return s.db.Model(&models.Mail{}).Where("mail_id = ?", id).Updates(map[string]interface{}{
		"status":        models.StatusFailed,
		"error_message": message,
		"updated_at":    time.Now().UTC(),
	}).Error
}

// =====================================================
// Mail records
// =====================================================

func (s *Store) CreateMail(mail *models.Mail) error {
	return s.db.Create(mail).Error
}

func (s *Store) GetMail(ownerID string, id uuid.UUID) (*models.Mail, error) {
	var mail models.Mail
	err := s.db.Where("mail_id = ? AND owner_user_id = ?", id, ownerID).First(&mail).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &mail, nil
}

func (s *Store) ListMails(ownerID string, page, pageSize int, status models.MailStatus) ([]models.Mail, int64, error) {
	q := s.db.Model(&models.Mail{}).Where("owner_user_id = ?", ownerID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var mails []models.Mail
	err := q.Offset((page - 1) * pageSize).Limit(pageSize).Order("created_at").Find(&mails).Error
	return mails, total, err
}

func (s *Store) SaveMail(mail *models.Mail) error {
	mail.UpdatedAt = time.Now().UTC()
	return s.db.Save(mail).Error
}

func (s *Store) DeleteMail(ownerID string, id uuid.UUID) error {
	res := s.db.Where("mail_id = ? AND owner_user_id = ?", id, ownerID).Delete(&models.Mail{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping verifies the underlying connection, used by the readiness probe.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
