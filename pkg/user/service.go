package user

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"eduplatform/pkg/generator"
)

const idLength = 24

type ServiceInterface interface {
	Register(name, email, password string) (*User, error)
	Login(email, password string) (*User, error)
}

type Service struct {
	Repo Repository
	Cost int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewService(repo Repository) *Service {
	return &Service{Repo: repo, Cost: bcrypt.DefaultCost}
}

func (s *Service) Register(name, email, password string) (*User, error) {
	if err := ValidateRegistration(name, email, password); err != nil {
		return nil, err
	}
	email = NormalizeEmail(email)

	exist, err := s.Repo.FindByEmail(email)
	if exist != nil && err == nil {
		return nil, ErrUserExists
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return nil, fmt.Errorf("hashing password error: %w", err)
	}

	userID, err := generator.GenerateRandomID(idLength)
	if err != nil {
		return nil, fmt.Errorf("UserID gen error: %w", err)
	}

	user := &User{
		ID:       userID,
		Name:     strings.TrimSpace(name),
		Email:    email,
		Password: string(hashedPassword),
	}

	if err := s.Repo.Create(user); err != nil {
		return nil, err
	}

	return user, nil
}

// Login reports ErrInvalidCredentials for unknown emails and wrong
// passwords alike, and pays for a bcrypt comparison in both cases.
func (s *Service) Login(email, password string) (*User, error) {
	if err := ValidateLogin(email, password); err != nil {
		return nil, err
	}

	user, err := s.Repo.FindByEmail(NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummy(), []byte(password))
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func (s *Service) cost() int {
	if s.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

func (s *Service) dummy() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.cost())
	})
	return s.dummyHash
}
