package usecase

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"kainan-backend/internal/domain"
	"kainan-backend/pkg/utils"
)

type AuthUsecase struct {
	userRepo domain.UserRepository
	tokens   *utils.TokenManager
}

func NewAuthUsecase(userRepo domain.UserRepository, tokens *utils.TokenManager) *AuthUsecase {
	return &AuthUsecase{userRepo: userRepo, tokens: tokens}
}

type RegisterReq struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

func (u *AuthUsecase) Register(ctx context.Context, req RegisterReq) (*domain.User, string, error) {
	if existing, err := u.userRepo.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, "", fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
	}
	if err := u.userRepo.Create(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := u.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (u *AuthUsecase) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := u.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("invalid email or password")
	}

	token, err := u.tokens.Generate(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID string) (*domain.User, error) {
	return u.userRepo.GetByID(ctx, userID)
}
