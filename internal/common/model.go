package common

// Account roles. Anything else stored on an account document counts as undetermined.
const (
	RolePatient   = "patient"
	RoleTherapist = "therapist"
)

// IsKnownRole reports whether role is one of the account roles.
func IsKnownRole(role string) bool {
	return role == RolePatient || role == RoleTherapist
}

// Routes of the web client that API responses point to.
const (
	SignInPath = "/signin"
)
