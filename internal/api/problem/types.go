package problem

// Problem type URIs referenced by error responses.
const (
	TypeValidation   = "https://campusevents.dev/problems/validation-error"
	TypeUnauthorized = "https://campusevents.dev/problems/unauthorized"
	TypeForbidden    = "https://campusevents.dev/problems/forbidden"
	TypeNotFound     = "https://campusevents.dev/problems/not-found"
	TypeConflict     = "https://campusevents.dev/problems/conflict"
	TypeServerError  = "https://campusevents.dev/problems/server-error"
)
