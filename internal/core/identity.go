package core

import "github.com/google/uuid"

// NewEntityID mints a fresh, process-unique EntityID. internal/catalogue
// calls this exactly once per sqlite_master object identity; the id is
// carried forward across reloads as long as that identity persists (see
// spec.md §3 invariant on entity_id stability) and a new one is minted
// when the object reappears after a reload that did not see it.
func NewEntityID() EntityID {
	return EntityID(uuid.NewString())
}

// NewColumnID mints a fresh ColumnID, assigned once per column at parse
// time and used by internal/planner's TableEdit to track a column across an
// edit.
func NewColumnID() ColumnID {
	return ColumnID(uuid.NewString())
}
