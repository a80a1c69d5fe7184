// Package access holds the pure authorization decisions for the resource
// graph. Every function works only on already-resolved aggregates and an
// actor id; nothing here touches the store.
package access

import (
	"errors"

	"teamboard/internal/models"
)

// Denial reasons. Callers map these to the HTTP error taxonomy: the first
// group is forbidden, the second group is a conflict.
var (
	ErrNotMember         = errors.New("access denied: not a project member")
	ErrNotOwner          = errors.New("only the project owner can do this")
	ErrNotCreatorOrOwner = errors.New("only the task creator or project owner can delete")

	ErrAlreadyMember     = errors.New("user is already a member")
	ErrOwnerRemoval      = errors.New("cannot remove the project owner")
	ErrAssigneeNotMember = errors.New("assigned user is not a project member")
)

// ViewProject gates reading a project and listing its tasks.
func ViewProject(p *models.Project, actorID uint) error {
	if !p.HasMember(actorID) {
		return ErrNotMember
	}
	return nil
}

// ManageProject gates updating project fields or status and deleting the
// project.
func ManageProject(p *models.Project, actorID uint) error {
	if p.OwnerID != actorID {
		return ErrNotOwner
	}
	return nil
}

// AddMember gates inserting targetID into the member set.
func AddMember(p *models.Project, actorID, targetID uint) error {
	if p.OwnerID != actorID {
		return ErrNotOwner
	}
	if p.HasMember(targetID) {
		return ErrAlreadyMember
	}
	return nil
}

// RemoveMember gates removing targetID from the member set. The owner can
// never be removed, which keeps the owner-is-a-member invariant intact.
func RemoveMember(p *models.Project, actorID, targetID uint) error {
	if p.OwnerID != actorID {
		return ErrNotOwner
	}
	if p.OwnerID == targetID {
		return ErrOwnerRemoval
	}
	return nil
}

// CreateTask gates creating a task under the project.
func CreateTask(p *models.Project, actorID uint) error {
	if !p.HasMember(actorID) {
		return ErrNotMember
	}
	return nil
}

// AssignTask gates pointing a task at assigneeID. Checked only at assignment
// time; it is never re-validated when membership changes later.
func AssignTask(p *models.Project, assigneeID uint) error {
	if !p.HasMember(assigneeID) {
		return ErrAssigneeNotMember
	}
	return nil
}

// ViewTask gates reading or updating a task: any current member of the
// task's project may mutate any field, including reassignment.
func ViewTask(p *models.Project, actorID uint) error {
	if !p.HasMember(actorID) {
		return ErrNotMember
	}
	return nil
}

// DeleteTask gates deleting a task.
func DeleteTask(t *models.Task, p *models.Project, actorID uint) error {
	if t.CreatedByID != actorID && p.OwnerID != actorID {
		return ErrNotCreatorOrOwner
	}
	return nil
}

// AddComment gates appending a comment to a task of the project.
func AddComment(p *models.Project, actorID uint) error {
	if !p.HasMember(actorID) {
		return ErrNotMember
	}
	return nil
}

// IsConflict reports whether err is one of the conflict-class denials.
func IsConflict(err error) bool {
	return errors.Is(err, ErrAlreadyMember) ||
		errors.Is(err, ErrOwnerRemoval) ||
		errors.Is(err, ErrAssigneeNotMember)
}
