// Package env holds the environment variable names of the commands
package env

const (
	// Prefix is the prefix of every environment variable
	Prefix = "BOLIVIABLUE_"

	// DBURLSuffix is the suffix of the Postgres DSN variable
	DBURLSuffix = "DB_URL"
)
