// Package envloader resolves the parking garage test environment.
//
// A Loader seeds the process environment from a .env file (godotenv) once
// per process, then reads URL, VALID_EMAIL, INVALID_EMAIL and PASSWORD
// through an injected go-simpler/env Source. Missing variables are
// reported together in a single ConfigurationError.
package envloader
