package domain

// UserProfile mirrors the service's user representation.
type UserProfile struct {
	ID           int    `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
}

// DisplayName returns "First Last", falling back to the username.
func (u UserProfile) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Username
	}
}

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthToken is the login response body.
type AuthToken struct {
	Token string `json:"auth_token"`
}

// Registration is the sign-up request body.
type Registration struct {
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// Subscription is an author the current user follows, with a preview of
// their recipes.
type Subscription struct {
	UserProfile
	Recipes      []RecipeShort `json:"recipes"`
	RecipesCount int           `json:"recipes_count"`
}

// SubscriptionPage is one page of GET /users/subscriptions/.
type SubscriptionPage struct {
	Count   int            `json:"count"`
	Results []Subscription `json:"results"`
}

// SubscriptionQuery holds the paging parameters for subscriptions.
type SubscriptionQuery struct {
	Page         int
	Limit        int
	RecipesLimit int
}

// SessionStatus is the bootstrap state of the client session.
type SessionStatus int

const (
	// SessionUnknown is the state before bootstrap has run.
	SessionUnknown SessionStatus = iota
	SessionUnauthenticated
	SessionAuthenticated
)

// String returns a human-readable session status.
func (s SessionStatus) String() string {
	switch s {
	case SessionUnknown:
		return "unknown"
	case SessionUnauthenticated:
		return "unauthenticated"
	case SessionAuthenticated:
		return "authenticated"
	default:
		return "invalid"
	}
}
