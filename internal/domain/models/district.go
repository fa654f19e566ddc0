// internal/domain/models/district.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// District is the unit of coordinator authority. Names are unique
// case-insensitively through NameCI.
type District struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"` // ← always stored
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
