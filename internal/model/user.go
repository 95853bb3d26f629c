package model

import "time"

// User is the minimal customer record this core needs: an identity to
// attribute holds and orders to, a contact address for ticket
// delivery, and a loyalty point balance incremented on settlement.
type User struct {
    ID        uint64    // users.id
    Email     string    // users.email
    Points    uint32    // users.points
    CreatedAt time.Time // users.created_at
    UpdatedAt time.Time // users.updated_at
}
