package service

import (
	"context"
	"strings"

	"atelier/internal/models"
	"atelier/internal/repository"
	"atelier/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

type AccountService struct {
	accountRepo repository.AccountRepository
	hashCost    int
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

func NewAccountService(accountRepo repository.AccountRepository) *AccountService {
	return &AccountService{accountRepo: accountRepo, hashCost: bcrypt.DefaultCost}
}

// Register creates an account together with its default artist profile.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := validation.ValidateUsername(username); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidateEmail(email); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	taken, err := s.accountRepo.UsernameTaken(ctx, username)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("Username already taken", nil)
	}
	taken, err = s.accountRepo.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, models.NewConflictError("Email already registered", nil)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	account := &models.Account{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Profile:  &models.Profile{Role: models.RoleArtist},
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// Authenticate checks a username or email and password pair.
func (s *AccountService) Authenticate(ctx context.Context, login, password string) (*models.Account, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, models.NewValidationError("Username and password are required")
	}

	var (
		account *models.Account
		err     error
	)
	if strings.Contains(login, "@") {
		account, err = s.accountRepo.GetByEmail(ctx, login)
	} else {
		account, err = s.accountRepo.GetByUsername(ctx, login)
	}
	if err != nil {
		if models.IsCode(err, models.CodeNotFound) {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(password)) != nil {
		return nil, models.NewUnauthorizedError("Invalid credentials")
	}
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id uint) (*models.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

func (s *AccountService) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	return s.accountRepo.GetByUsername(ctx, strings.TrimSpace(username))
}
