package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// ParsedTokenRef is a scanner input resolved into either a token UUID or a
// bare sequential number. Exactly one of the fields is set.
type ParsedTokenRef struct {
	ID string
	No int
}

// TokenRef parses a raw scanner/search input. Accepted forms: a UUID, a
// decimal number, or a decimal number with a leading "#".
func TokenRef(raw string) (ParsedTokenRef, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ParsedTokenRef{}, fmt.Errorf("empty token reference")
	}

	if id, err := uuid.Parse(s); err == nil {
		return ParsedTokenRef{ID: id.String()}, nil
	}

	s = strings.TrimPrefix(s, "#")
	no, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || no <= 0 {
		return ParsedTokenRef{}, fmt.Errorf("invalid token reference %q", raw)
	}
	return ParsedTokenRef{No: no}, nil
}
