package logging

const (
	// KeyAppName is the logging key for the application name.
	KeyAppName = "app"

	// KeyError is the logging key for errors.
	KeyError = "err"

	// KeyDal is the logging key for the data access layer in use.
	KeyDal = "dal"

	// KeyTenant is the logging key for the tenant that an operation belongs to.
	KeyTenant = "tenant"

	// KeyTicket is the logging key for the ticket that an operation belongs to.
	KeyTicket = "ticket"

	// KeyUser is the logging key for the acting discord user.
	KeyUser = "user"

	// EnvLogDebug is the environment variable that enables debug logging when
	// set to any non-empty value.
	EnvLogDebug = "LOG_DEBUG"
)
