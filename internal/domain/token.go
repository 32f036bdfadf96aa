package domain

// DefaultTokenType is used when the backend omits the token type.
const DefaultTokenType = "Bearer"

// TokenPair is the credential set of an authenticated session.
// Either both tokens are present or neither is.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
}

// IsComplete returns true if both tokens are present.
func (p TokenPair) IsComplete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// IsEmpty returns true if neither token is present.
func (p TokenPair) IsEmpty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Validate rejects partial pairs.
func (p TokenPair) Validate() error {
	if p.IsComplete() {
		return nil
	}
	var errs []FieldError
	if p.AccessToken == "" {
		errs = append(errs, FieldError{Field: "accessToken", Message: "required"})
	}
	if p.RefreshToken == "" {
		errs = append(errs, FieldError{Field: "refreshToken", Message: "required"})
	}
	return NewValidationErrors(errs)
}

// WithDefaults fills in the token type when it is empty.
func (p TokenPair) WithDefaults() TokenPair {
	if p.TokenType == "" {
		p.TokenType = DefaultTokenType
	}
	return p
}

// Credentials holds a username/password login attempt.
type Credentials struct {
	Username string `json:"username" validate:"required,max=50"`
	Password string `json:"password" validate:"required,max=128"`
}

// Registration holds the data of a new account.
type Registration struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,max=128"`
}

// LoginResult is returned by a successful credential exchange.
type LoginResult struct {
	Tokens TokenPair
	Role   string
}

// RefreshResult carries a newly minted access token.
type RefreshResult struct {
	AccessToken string
	TokenType   string
}
