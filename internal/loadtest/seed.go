// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package loadtest

import (
	"fmt"
	"os"
	"regexp"
)

// userInsertPattern matches the INSERT statements in the backend's user
// seed SQL: username, email, password hash (ignored), full name.
var userInsertPattern = regexp.MustCompile(
	`INSERT INTO users.*VALUES\s*\(\s*'([^']+)',\s*'([^']+)',\s*'[^']+',\s*'([^']+)'\s*\)`)

// ParseUsersFromSeed extracts the simulated user population from a SQL
// seed file.
func ParseUsersFromSeed(path string) ([]User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %s: %w", path, err)
	}

	var users []User
	for _, m := range userInsertPattern.FindAllStringSubmatch(string(data), -1) {
		users = append(users, User{
			Username: m[1],
			Email:    m[2],
			FullName: m[3],
		})
	}

	if len(users) == 0 {
		return nil, fmt.Errorf("no users found in seed file %s", path)
	}
	return users, nil
}
