package services

import "github.com/mrlokans/biblion/internal/entities"

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	UserID uint
	Name   string
	Email  string
	Role   entities.UserRole
}

func ActorFromUser(u *entities.User) Actor {
	return Actor{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func (a Actor) IsAdmin() bool {
	return a.Role == entities.UserRoleAdmin
}

// User returns a detached user value carrying the actor's identity.
func (a Actor) User() *entities.User {
	return &entities.User{ID: a.UserID, Name: a.Name, Email: a.Email, Role: a.Role}
}

// Owns reports whether a free-text owner names this actor.
func (a Actor) Owns(owner string) bool {
	return a.User().Owns(owner)
}
