package models

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/condopal_backend/config"
	"bitbucket.org/mmdatafocus/condopal_backend/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// isDuplicateKeyErr reports MySQL error 1062 (duplicate entry), so unique
// violations that race past the pre-check still map to a clean error.
func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

type User struct {
	ID        string    `gorm:"primary_key;size:36" json:"id"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	Email     string    `gorm:"size:100;not null;unique" json:"email"`
	Phone     string    `gorm:"size:20" json:"phone"`
	Profile   *string   `gorm:"size:512" json:"profile"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      UserRole  `gorm:"type:enum('LANDLORD','TENANT');default:'TENANT'" json:"role"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewUser struct {
	Name     string   `json:"name" binding:"required"`
	Email    string   `json:"email" binding:"required"`
	Phone    string   `json:"phone"`
	Profile  string   `json:"profile"`
	Password string   `json:"password" binding:"required"`
	Role     UserRole `json:"role" binding:"required"`
}

func newUser(input *NewUser) (*User, error) {
	email := html.EscapeString(strings.TrimSpace(strings.ToLower(input.Email)))
	if !utils.IsValidEmail(email) {
		return nil, errors.New("invalid email")
	}
	if input.Role != UserRoleLandlord && input.Role != UserRoleTenant {
		return nil, errors.New("invalid role")
	}
	if input.Phone != "" {
		if err := utils.ValidatePhoneNumber(input.Phone, utils.CountryCode); err != nil {
			return nil, fmt.Errorf("invalid phone number: %v", err)
		}
	}

	hashed, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	return &User{
		ID:       uuid.NewString(),
		Name:     input.Name,
		Email:    email,
		Phone:    input.Phone,
		Profile:  utils.NilIfEmpty(input.Profile),
		Password: string(hashed),
		Role:     input.Role,
		IsActive: utils.NewTrue(),
	}, nil
}

func CreateUser(ctx context.Context, input *NewUser) (*User, error) {
	user, err := newUser(input)
	if err != nil {
		return nil, err
	}

	if err := utils.ValidateUnique[User](ctx, "email", user.Email, ""); err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return nil, errors.New("duplicate email")
		}
		return nil, err
	}
	return user, nil
}

func GetUser(ctx context.Context, id string) (*User, error) {
	// auth middleware hits this per request; serve from cache when possible
	if cached, err := utils.RetrieveRedis[User](id); err == nil && cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var user User
	err := db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, utils.ErrorRecordNotFound)
	}
	if err != nil {
		return nil, err
	}

	if err := utils.StoreRedis[User](&user, id); err != nil {
		config.LogError(config.GetLogger(), "user", "GetUser", "cache user", id, err)
	}
	return &user, nil
}

func GetUserByEmail(ctx context.Context, email string) (*User, error) {
	db := config.GetDB()

	var user User
	err := db.WithContext(ctx).
		Where("email = ?", strings.TrimSpace(strings.ToLower(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", email, utils.ErrorRecordNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
