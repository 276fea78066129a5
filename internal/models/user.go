package models

import "time"

// Subscription tiers a user can hold.
const (
	SubscriptionStarter  = "starter"
	SubscriptionPro      = "pro"
	SubscriptionBusiness = "business"
)

// ValidSubscription reports whether s is one of the known tiers.
func ValidSubscription(s string) bool {
	switch s {
	case SubscriptionStarter, SubscriptionPro, SubscriptionBusiness:
		return true
	}
	return false
}

// User represents a user account in the system.
type User struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	PasswordHash      string    `json:"-"` // Never expose this to the client
	AvatarURL         string    `json:"avatarURL"`
	Subscription      string    `json:"subscription"`
	Verify            bool      `json:"verify"`
	VerificationToken string    `json:"-"`
	Token             string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
}

// PublicUser is the projection returned on registration.
type PublicUser struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
}

// Profile is the projection returned to an authenticated user.
type Profile struct {
	Email        string `json:"email"`
	Subscription string `json:"subscription"`
	AvatarURL    string `json:"avatarURL"`
}

// Public returns the registration-time projection of the user.
func (u User) Public() PublicUser {
	return PublicUser{Name: u.Name, Email: u.Email, Subscription: u.Subscription}
}

// Profile returns the authenticated projection of the user.
func (u User) Profile() Profile {
	return Profile{Email: u.Email, Subscription: u.Subscription, AvatarURL: u.AvatarURL}
}
