package repositories

import (
	"strings"

	"github.com/opimenov/quizbot/internal/models"
	"github.com/opimenov/quizbot/internal/security"
	"github.com/opimenov/quizbot/pkg/errors"
	"gorm.io/gorm"
)

// PlayerRepository resolves platform user ids to Player records, creating
// them on first sight.
type PlayerRepository struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// GetOrCreate returns the player with the given id, creating it with the
// given display name when absent. Concurrent duplicate inserts from other
// chats' engines are treated as success.
func (r *PlayerRepository) GetOrCreate(id int64, name string) (*models.Player, error) {
	var player models.Player
	err := r.db.First(&player, id).Error
	if err == nil {
		// Refresh the display name when the platform reports a new one
		clean := security.SanitizeName(name)
		if clean != "" && clean != player.Name {
			if err := r.db.Model(&player).Update("name", clean).Error; err != nil {
				return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to refresh player name")
			}
			player.Name = clean
		}
		return &player, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get player")
	}

	player = models.Player{ID: id, Name: security.SanitizeName(name)}
	if err := r.db.Create(&player).Error; err != nil {
		if isDuplicateKey(err) {
			if e := r.db.First(&player, id).Error; e == nil {
				return &player, nil
			}
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create player")
	}
	return &player, nil
}

// Name resolves a player id to its stored display name.
func (r *PlayerRepository) Name(id int64) (string, error) {
	var player models.Player
	result := r.db.First(&player, id)

	if result.Error == gorm.ErrRecordNotFound {
		return "", errors.New(errors.ErrCodeNotFound, "player not found")
	}
	if result.Error != nil {
		return "", errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get player")
	}

	return player.Name, nil
}

func isDuplicateKey(err error) bool {
	return strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "unique constraint")
}
