// seed-landlord creates or updates the bootstrap landlord account so a
// fresh deployment has someone who can log in and register condos.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-landlord
//
// Override the defaults with SEED_LANDLORD_EMAIL / SEED_LANDLORD_PASSWORD.
package main

import (
	"context"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"bitbucket.org/mmdatafocus/condopal_backend/models"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultLandlordEmail    = "landlord@condopal.local"
	defaultLandlordPassword = "C0ndoP@l-Landlord"
	defaultLandlordName     = "Condopal Landlord"
)

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	email := os.Getenv("SEED_LANDLORD_EMAIL")
	if email == "" {
		email = defaultLandlordEmail
	}
	password := os.Getenv("SEED_LANDLORD_PASSWORD")
	if password == "" {
		password = defaultLandlordPassword
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash password: %v\n", err)
		os.Exit(1)
	}
	hashedStr := string(hashed)

	var existing models.User
	err = db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).First(&existing).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			fmt.Fprintf(os.Stderr, "failed to lookup user: %v\n", err)
			os.Exit(1)
		}
		u := models.User{
			ID:       uuid.NewString(),
			Name:     defaultLandlordName,
			Email:    email,
			Password: hashedStr,
			Role:     models.UserRoleLandlord,
			IsActive: utils.NewTrue(),
		}
		if err := db.WithContext(ctx).Create(&u).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create landlord user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created landlord user: email=%q\n", email)
		return
	}

	if err := db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Updates(map[string]any{
		"password":  hashedStr,
		"name":      defaultLandlordName,
		"is_active": utils.NewTrue(),
		"role":      models.UserRoleLandlord,
	}).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to update landlord user: %v\n", err)
		os.Exit(1)
	}
	_ = utils.RemoveRedisItem[models.User](existing.ID)
	fmt.Printf("Updated landlord user: email=%q\n", email)
}
