package authkit

// OTPType selects the identifier namespace a code is issued under. Email
// and phone codes for the same logical user are independent records.
type OTPType string

const (
	// OTPTypeEmail issues codes keyed by a normalized email address.
	OTPTypeEmail OTPType = "email"
	// OTPTypePhone issues codes keyed by a normalized phone number.
	OTPTypePhone OTPType = "phone"
)

// Environment gates behavior that must never reach production, such as the
// fixed bypass code.
type Environment string

const (
	// EnvProduction disables every development convenience.
	EnvProduction Environment = "production"
	// EnvDevelopment enables the configured bypass code, when set.
	EnvDevelopment Environment = "development"
	// EnvTest behaves like development with respect to bypass codes.
	EnvTest Environment = "test"
)
