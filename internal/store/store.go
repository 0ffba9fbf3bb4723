// Package store owns the persistent user and score state.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"referral-bot/internal/models"
)

// DefaultLeaderboardSize is used when Leaderboard gets a non-positive limit.
const DefaultLeaderboardSize = 10

type Store struct {
	DB *gorm.DB
}

// RegisterResult tells what a Register call actually changed.
type RegisterResult struct {
	Created  bool // a new user row was inserted
	Credited bool // the referrer's score went up by one
}

// Entry is one leaderboard line.
type Entry struct {
	TelegramID int64
	Username   string
	Score      int64
}

type Stats struct {
	Users     int64
	Referrals int64
	TopScore  int64
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// EnsureInitialized creates the schema if it is missing. It is safe to call
// on every start.
func (s *Store) EnsureInitialized(ctx context.Context) error {
	return wrap("migrate", s.DB.WithContext(ctx).AutoMigrate(&models.User{}, &models.Referral{}))
}

// Register inserts the user if the identity is new. Only when that insert
// happened and a referrer is given does the referrer's score grow, so
// repeated or concurrent calls for one identity credit at most once.
// Self-referral is not rejected.
func (s *Store) Register(ctx context.Context, telegramID int64, username string, referrerID *int64) (RegisterResult, error) {
	var res RegisterResult

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := models.User{
			TelegramID: telegramID,
			Username:   username,
			ReferrerID: referrerID,
		}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "telegram_id"}},
			DoNothing: true,
		}).Create(&user)
		if insert.Error != nil {
			return insert.Error
		}
		if insert.RowsAffected == 0 {
			return nil
		}
		res.Created = true

		if referrerID == nil {
			return nil
		}

		credit := tx.Model(&models.User{}).
			Where("telegram_id = ?", *referrerID).
			Update("score", gorm.Expr("score + ?", 1))
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			// unknown referrer, nothing to credit
			return nil
		}

		if err := tx.Create(&models.Referral{ReferrerID: *referrerID, InvitedID: telegramID}).Error; err != nil {
			return err
		}
		res.Credited = true
		return nil
	})
	if err != nil {
		return RegisterResult{}, wrap("register", err)
	}
	return res, nil
}

// Score returns the user's score, or 0 for an identity the store has never seen.
func (s *Store) Score(ctx context.Context, telegramID int64) (int64, error) {
	var user models.User
	err := s.DB.WithContext(ctx).Select("score").Where("telegram_id = ?", telegramID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, wrap("score", err)
	}
	return user.Score, nil
}

// Leaderboard returns the top users by score. Equal scores keep
// registration order.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}

	var users []models.User
	err := s.DB.WithContext(ctx).
		Select("telegram_id", "username", "score").
		Order("score DESC").
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, wrap("leaderboard", err)
	}

	entries := make([]Entry, 0, len(users))
	for _, u := range users {
		entries = append(entries, Entry{TelegramID: u.TelegramID, Username: u.Username, Score: u.Score})
	}
	return entries, nil
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	db := s.DB.WithContext(ctx)

	if err := db.Model(&models.User{}).Count(&st.Users).Error; err != nil {
		return Stats{}, wrap("stats", err)
	}
	if err := db.Model(&models.Referral{}).Count(&st.Referrals).Error; err != nil {
		return Stats{}, wrap("stats", err)
	}
	if err := db.Model(&models.User{}).Select("COALESCE(MAX(score), 0)").Scan(&st.TopScore).Error; err != nil {
		return Stats{}, wrap("stats", err)
	}
	return st, nil
}
