package domain

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh 24-hex-character issue identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id has the shape of an issue identifier.
func ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
