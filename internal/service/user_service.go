package service

import (
	"errors"

	"elearn_backend/internal/model"
	"elearn_backend/internal/repository"
	"elearn_backend/internal/util"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type UserService struct {
	UserRepo *repository.UserRepository
}

func NewUserService(userRepo *repository.UserRepository) *UserService {
	return &UserService{UserRepo: userRepo}
}

type ProfileUpdateRequest struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Avatar   string `json:"avatar"`
}

func (s *UserService) GetUser(id uint) (*model.User, error) {
	user, err := s.UserRepo.FindByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrUserNotFound
	}
	return user, err
}

func (s *UserService) UpdateProfile(userID uint, req ProfileUpdateRequest) (*model.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Language != "" {
		user.Language = req.Language
	}
	if req.Avatar != "" {
		user.Avatar = req.Avatar
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ListUsers(page, limit int, role, keyword string) ([]model.User, int64, error) {
	return s.UserRepo.List(page, limit, role, keyword)
}

type AdminUserUpdateRequest struct {
	Name string         `json:"name"`
	Role model.UserRole `json:"role"`
}

func (s *UserService) AdminUpdateUser(userID uint, req AdminUserUpdateRequest) (*model.User, error) {
	user, err := s.GetUser(userID)
	if err != nil {
		return nil, err
	}

	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Role != "" {
		user.Role = req.Role
	}

	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) SetDisabled(userID uint, disabled bool) error {
	if _, err := s.GetUser(userID); err != nil {
		return err
	}
	return s.UserRepo.SetDisabled(userID, disabled)
}

func (s *UserService) ResetPassword(userID uint, newPassword string) error {
	user, err := s.GetUser(userID)
	if err != nil {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hashed)
	return s.UserRepo.Update(user)
}

func (s *UserService) DeleteUser(userID uint) error {
	return s.UserRepo.Delete(userID)
}
