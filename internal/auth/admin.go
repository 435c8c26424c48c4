package auth

import (
	"github.com/mrlokans/biblion/internal/database"
	"github.com/mrlokans/biblion/internal/database/users"
	"github.com/mrlokans/biblion/internal/entities"
	"github.com/mrlokans/biblion/internal/services"
)

var (
	ErrLastAdmin  = services.Validation("Cannot remove the last administrator")
	ErrDeleteSelf = services.Validation("You cannot delete your own account")
)

// ListUsers returns every account with its owned-books count.
func (s *Service) ListUsers() ([]users.UserWithStats, error) {
	return s.users.ListUsers()
}

// UpdateRole changes a user's role. The last administrator cannot be demoted.
func (s *Service) UpdateRole(userID uint, role entities.UserRole) (*entities.User, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	if user.IsAdmin() {
		if err := s.ensureAnotherAdmin(); err != nil {
			return nil, err
		}
	}
	if err := s.users.UpdateRole(userID, role); err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.Role = role
	return user, nil
}

// ResetPassword sets a new password without checking the old one.
func (s *Service) ResetPassword(userID uint, password string) error {
	hash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePasswordHash(userID, hash); err != nil {
		if database.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// DeleteUser removes an account on behalf of an administrator. Admins cannot
// delete themselves and the last administrator always remains.
func (s *Service) DeleteUser(actor services.Actor, userID uint) (*entities.User, error) {
	if actor.UserID == userID {
		return nil, ErrDeleteSelf
	}
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user.IsAdmin() {
		if err := s.ensureAnotherAdmin(); err != nil {
			return nil, err
		}
	}
	if err := s.users.DeleteUser(userID); err != nil {
		if database.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) ensureAnotherAdmin() error {
	count, err := s.users.CountAdmins()
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrLastAdmin
	}
	return nil
}
