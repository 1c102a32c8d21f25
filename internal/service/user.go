package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/smarttracker/backend/internal/db"
	"github.com/smarttracker/backend/internal/model"
)

const minPasswordLength = 8

// Passwords that match one of these (case-insensitively) are rejected at
// registration regardless of length.
var weakPasswords = []string{
	"password", "12345678", "qwerty123", "admin123", "letmein",
}

type UserService struct {
	repo UserRepository
	log  *slog.Logger
}

func NewUserService(repo UserRepository, log *slog.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

// Register creates a new user. Uniqueness is pre-checked case-insensitively
// for friendly error codes; the storage-level unique indexes are the
// authoritative guard against concurrent registrations, and a violation on
// insert maps back to the same duplicate codes.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.UserResponse, error) {
	s.log.Info("registration attempt", "username", req.Username)

	if fields := validateRegisterRequest(req); len(fields) > 0 {
		return nil, newValidationError(fields)
	}

	taken, err := s.repo.ExistsByUsernameCI(ctx, req.Username)
	if err != nil {
		return nil, newInternalError(err)
	}
	if taken {
		return nil, newDuplicateError(CodeUsernameExists,
			fmt.Sprintf("Username '%s' is already taken", req.Username))
	}

	taken, err = s.repo.ExistsByEmailCI(ctx, req.Email)
	if err != nil {
		return nil, newInternalError(err)
	}
	if taken {
		return nil, newDuplicateError(CodeEmailExists,
			fmt.Sprintf("Email '%s' is already registered", req.Email))
	}

	if err := validatePasswordStrength(req.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, newInternalError(err)
	}

	user := &model.User{
		Username:              strings.ToLower(req.Username),
		Email:                 strings.ToLower(req.Email),
		PasswordHash:          string(hash),
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Enabled:               true,
		AccountNonLocked:      true,
		AccountNonExpired:     true,
		CredentialsNonExpired: true,
	}

	saved, err := s.repo.Save(ctx, user)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrDuplicateUsername):
			return nil, newDuplicateError(CodeUsernameExists,
				fmt.Sprintf("Username '%s' is already taken", req.Username))
		case errors.Is(err, db.ErrDuplicateEmail):
			return nil, newDuplicateError(CodeEmailExists,
				fmt.Sprintf("Email '%s' is already registered", req.Email))
		default:
			return nil, newInternalError(err)
		}
	}

	s.log.Info("user registered", "id", saved.ID, "username", saved.Username)

	resp := saved.ToResponse()
	return &resp, nil
}

func (s *UserService) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	exists, err := s.repo.ExistsByUsernameCI(ctx, username)
	if err != nil {
		return false, newInternalError(err)
	}
	return exists, nil
}

func (s *UserService) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	exists, err := s.repo.ExistsByEmailCI(ctx, email)
	if err != nil {
		return false, newInternalError(err)
	}
	return exists, nil
}

// IsPasswordValid is the quick pre-flight check behind the standalone
// validate-password endpoint. It checks length only; the denylist applies
// at registration.
func IsPasswordValid(password string) bool {
	return len(password) >= minPasswordLength
}

func validateRegisterRequest(req model.RegisterRequest) map[string]string {
	fields := make(map[string]string)

	username := strings.TrimSpace(req.Username)
	switch {
	case username == "":
		fields["username"] = "Username is required"
	case len(username) < 3 || len(username) > 50:
		fields["username"] = "Username must be between 3 and 50 characters"
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		fields["email"] = "Email is required"
	} else if _, err := mail.ParseAddress(email); err != nil {
		fields["email"] = "Email must be a valid email address"
	}

	if req.Password == "" {
		fields["password"] = "Password is required"
	} else if req.ConfirmPassword != "" && req.Password != req.ConfirmPassword {
		fields["confirmPassword"] = "Passwords do not match"
	}
	if req.ConfirmPassword == "" {
		fields["confirmPassword"] = "Password confirmation is required"
	}

	if strings.TrimSpace(req.FirstName) == "" {
		fields["firstName"] = "First name is required"
	}
	if strings.TrimSpace(req.LastName) == "" {
		fields["lastName"] = "Last name is required"
	}

	return fields
}

func validatePasswordStrength(password string) *Error {
	if len(password) < minPasswordLength {
		return newIllegalArgumentError("Password must be at least 8 characters long")
	}
	for _, weak := range weakPasswords {
		if strings.EqualFold(password, weak) {
			return newIllegalArgumentError("Password is too weak. Please choose a stronger password")
		}
	}
	return nil
}
