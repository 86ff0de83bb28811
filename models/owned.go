package models

// Owned is implemented by every record that belongs to a single user.
// Mutation handlers check the acting user against OwnerID through one shared
// function instead of repeating the comparison per resource type.
type Owned interface {
	OwnerID() uint
}
