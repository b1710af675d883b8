package postgres

import (
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/iho/minibank/internal/domain"
)

// ULIDGenerator generates ULID-based IDs. ULIDs are sortable by creation
// time, which keeps log ordering stable without exposing a clock-plus-
// random scheme in the ID itself.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

// Generate generates a new ULID.
func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}

// AccountNumberGenerator produces candidate 10-digit account numbers.
// Candidates are uniformly random; uniqueness is enforced by the caller
// against the store, not here.
type AccountNumberGenerator struct{}

// NewAccountNumberGenerator creates a new AccountNumberGenerator.
func NewAccountNumberGenerator() *AccountNumberGenerator {
	return &AccountNumberGenerator{}
}

// Generate returns a zero-padded 10-digit number.
func (g *AccountNumberGenerator) Generate() string {
	n := rand.Uint64N(10_000_000_000)

	digits := strconv.FormatUint(n, 10)
	if len(digits) < domain.AccountNumberLength {
		digits = strings.Repeat("0", domain.AccountNumberLength-len(digits)) + digits
	}

	return digits
}
