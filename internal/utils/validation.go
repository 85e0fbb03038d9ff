package utils

import (
	"strconv"
	"strings"
)

// ParseTodoID parses a todo id argument. Ids are positive integers;
// a leading '#' as shown by the selector is accepted.
func ParseTodoID(arg string) (int, error) {
	s := strings.TrimPrefix(strings.TrimSpace(arg), "#")
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, ErrInvalidTodoID(arg)
	}
	return id, nil
}
