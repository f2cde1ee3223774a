package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var projectKeyPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidateProjectKey checks a project short name such as "AGV".
func ValidateProjectKey(key string) error {
	if key == "" {
		return fmt.Errorf("project key cannot be empty")
	}
	if !projectKeyPattern.MatchString(key) {
		return fmt.Errorf("invalid project key %q", key)
	}
	return nil
}

// ParseTicketID splits a readable id like "AGV-918" into project and number.
func ParseTicketID(id string) (project string, number int, ok bool) {
	id = strings.TrimSpace(id)
	i := strings.LastIndex(id, "-")
	if i <= 0 || i == len(id)-1 {
		return "", 0, false
	}
	project = id[:i]
	if ValidateProjectKey(project) != nil {
		return "", 0, false
	}
	for _, r := range id[i+1:] {
		if r < '0' || r > '9' {
			return "", 0, false
		}
	}
	n, err := strconv.Atoi(id[i+1:])
	if err != nil {
		return "", 0, false
	}
	return project, n, true
}
