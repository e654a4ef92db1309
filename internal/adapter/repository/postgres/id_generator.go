package postgres

import (
	"github.com/oklog/ulid/v2"
)

// ULIDGenerator issues entity IDs for accounts, entries, lines and outbox
// rows. IDs from one process sort in creation order.
type ULIDGenerator struct{}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

func (g *ULIDGenerator) Generate() string {
	return ulid.Make().String()
}
