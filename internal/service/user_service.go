package service

import (
	"errors"

	"dm-messenger/backend/internal/models"
	"dm-messenger/backend/pkg/jwt"

	"gorm.io/gorm"
)

var (
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// UserService handles user accounts and the presence flag.
type UserService struct {
	db  *gorm.DB
	jwt *jwt.Service
}

// NewUserService creates a new user service
func NewUserService(db *gorm.DB, jwtService *jwt.Service) *UserService {
	return &UserService{db: db, jwt: jwtService}
}

// Register creates a new user and returns it with a signed token.
func (s *UserService) Register(req *models.RegisterRequest) (*models.User, string, error) {
	var existing models.User
	result := s.db.Where("email = ?", req.Email).First(&existing)
	if result.RowsAffected > 0 {
		return nil, "", ErrUserAlreadyExists
	}

	user := models.User{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
		ImageURL: req.ProfilePicture,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, "", err
	}

	token, err := s.jwt.GenerateToken(user.ID, user.UserName, user.Email, user.ImageURL)
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

// Login authenticates a user and returns a signed token.
func (s *UserService) Login(req *models.LoginRequest) (*models.User, string, error) {
	var user models.User
	result := s.db.Where("email = ?", req.Email).First(&user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", result.Error
	}

	if !models.CheckPasswordHash(req.Password, user.Password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwt.GenerateToken(user.ID, user.UserName, user.Email, user.ImageURL)
	if err != nil {
		return nil, "", err
	}

	return &user, token, nil
}

// GetUserByID retrieves a user by ID
func (s *UserService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	result := s.db.First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return &user, nil
}

// SetOnline writes the presence flag. Called only by the presence
// coordinator.
func (s *UserService) SetOnline(id uint, online bool) error {
	return s.db.Model(&models.User{}).Where("id = ?", id).Update("is_online", online).Error
}

// ListWithPreviews returns every user except the caller, decorated with
// the last-message summary of the conversation shared with the caller,
// if any.
func (s *UserService) ListWithPreviews(selfID uint) ([]models.UserWithPreview, error) {
	var users []models.User
	if err := s.db.Where("id <> ?", selfID).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}

	var conversations []models.Conversation
	err := s.db.Where("user1_id = ? OR user2_id = ?", selfID, selfID).Find(&conversations).Error
	if err != nil {
		return nil, err
	}

	byCounterparty := make(map[uint]*models.Conversation, len(conversations))
	for i := range conversations {
		conv := &conversations[i]
		byCounterparty[conv.Counterparty(selfID)] = conv
	}

	previews := make([]models.UserWithPreview, 0, len(users))
	for _, u := range users {
		p := models.UserWithPreview{
			ID:       u.ID,
			UserName: u.UserName,
			Email:    u.Email,
			ImageURL: u.ImageURL,
			IsOnline: u.IsOnline,
		}
		if conv, ok := byCounterparty[u.ID]; ok {
			p.LastMessage = &conv.LastMessage
			t := conv.LastMessageTime
			p.LastMessageTime = &t
		}
		previews = append(previews, p)
	}
	return previews, nil
}
