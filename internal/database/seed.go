package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/yukikurage/kanban-api/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password"

var demoUsers = []models.User{
	{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin},
	{Name: "Instructor", Email: "instructor@example.com", Role: models.RoleInstructor},
	{Name: "Student", Email: "student@example.com", Role: models.RoleStudent},
}

// Seed creates the demo accounts. Existing emails are left untouched.
func Seed(db *gorm.DB) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash demo password: %w", err)
	}

	for _, u := range demoUsers {
		var existing models.User
		err := db.Where("email = ?", u.Email).First(&existing).Error
		if err == nil {
			slog.Info("seed user exists, skipping", slog.String("email", u.Email))
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to look up %s: %w", u.Email, err)
		}

		user := u
		user.PasswordHash = string(hash)
		if err := db.Create(&user).Error; err != nil {
			return fmt.Errorf("failed to create %s: %w", u.Email, err)
		}
		slog.Info("seeded user", slog.String("email", user.Email), slog.String("role", string(user.Role)))
	}

	return nil
}
