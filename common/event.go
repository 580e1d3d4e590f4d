package common

// ObjectChange is emitted when an object is created, updated or deleted.  A
// nil Object means the object was deleted.
type ObjectChange struct {
	ID     string
	Object *Object
}

// StateChange is emitted when a state is updated or deleted.  A nil State
// means the state was deleted.
type StateChange struct {
	ID    string
	State *State
}
