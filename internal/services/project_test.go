package services

import (
	"errors"
	"net/http"
	"testing"

	"gorm.io/gorm"

	"teamboard/internal/models"
	"teamboard/pkg/response"
)

// appStatus extracts the mapped HTTP status, or 0 for non-AppErrors.
func appStatus(err error) int {
	var appErr *response.AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return 0
}

func TestProjectService_Create(t *testing.T) {
	db := newTestDB(t)
	pub := &capturePublisher{}
	svc := NewProjectService(db, pub)
	owner := createUser(t, db, "alice")

	project, err := svc.Create(&CreateProjectRequest{Name: "Website", Description: "Marketing site"}, owner.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if project.Name != "Website" {
		t.Errorf("Name = %q, expected %q", project.Name, "Website")
	}
	if project.Status != models.ProjectStatusActive {
		t.Errorf("Status = %q, expected %q", project.Status, models.ProjectStatusActive)
	}
	if project.OwnerID != owner.ID {
		t.Errorf("OwnerID = %d, expected %d", project.OwnerID, owner.ID)
	}
	if project.Owner == nil || project.Owner.ID != owner.ID {
		t.Error("Owner should be resolved")
	}

	// The owner is a member from the first commit
	if !project.HasMember(owner.ID) {
		t.Error("owner should be in the member set")
	}
	if len(project.Members) != 1 {
		t.Errorf("expected 1 member, got %d", len(project.Members))
	}

	ev := pub.last(t)
	if ev.Type != EventProjectCreated {
		t.Errorf("event Type = %q, expected %q", ev.Type, EventProjectCreated)
	}
	if ev.ProjectID != 0 {
		t.Errorf("projectCreated should be global, got channel %d", ev.ProjectID)
	}
}

func TestProjectService_Create_WhitespaceName(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	owner := createUser(t, db, "alice")

	// Padding passes the binding length check on the raw value; the trimmed
	// value must still satisfy the bound
	_, err := svc.Create(&CreateProjectRequest{Name: "   "}, owner.ID)
	if appStatus(err) != http.StatusBadRequest {
		t.Errorf("whitespace-only name: expected 400, got %v", err)
	}

	_, err = svc.Create(&CreateProjectRequest{Name: " ab "}, owner.ID)
	if appStatus(err) != http.StatusBadRequest {
		t.Errorf("padded short name: expected 400, got %v", err)
	}

	var count int64
	db.Model(&models.Project{}).Count(&count)
	if count != 0 {
		t.Errorf("no project should be stored, got %d", count)
	}

	// Padding around a valid name is fine and gets trimmed
	project, err := svc.Create(&CreateProjectRequest{Name: "  Padded  "}, owner.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if project.Name != "Padded" {
		t.Errorf("Name = %q, expected %q", project.Name, "Padded")
	}
}

func TestProjectService_Update_WhitespaceName(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	owner := createUser(t, db, "alice")
	project := createProject(t, svc, "Original", owner.ID)

	blank := "   "
	if _, err := svc.Update(project.ID, &UpdateProjectRequest{Name: &blank}, owner.ID); appStatus(err) != http.StatusBadRequest {
		t.Errorf("whitespace-only name: expected 400, got %v", err)
	}

	got, _, err := svc.Get(project.ID, owner.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Original" {
		t.Errorf("name should be unchanged, got %q", got.Name)
	}
}

func TestProjectService_Create_UnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)

	_, err := svc.Create(&CreateProjectRequest{Name: "Ghost"}, 999)
	if appStatus(err) != http.StatusNotFound {
		t.Errorf("expected 404 for unknown actor, got %v", err)
	}
}

func TestProjectService_List(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	p1 := createProject(t, svc, "Alice One", alice.ID)
	createProject(t, svc, "Bob Only", bob.ID)

	// Listing is scoped to membership, not ownership
	if _, err := svc.AddMember(p1.ID, &AddMemberRequest{UserID: bob.ID}, alice.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	aliceProjects, err := svc.List(alice.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(aliceProjects) != 1 {
		t.Fatalf("alice should see 1 project, got %d", len(aliceProjects))
	}

	bobProjects, err := svc.List(bob.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(bobProjects) != 2 {
		t.Errorf("bob should see 2 projects, got %d", len(bobProjects))
	}
}

func TestProjectService_List_TaskCount(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	tasks := NewTaskService(db, nil)
	owner := createUser(t, db, "alice")
	project := createProject(t, svc, "Counted", owner.ID)

	for i := 0; i < 3; i++ {
		if _, err := tasks.Create(&CreateTaskRequest{Title: "Some task", ProjectID: project.ID}, owner.ID); err != nil {
			t.Fatalf("task Create() error = %v", err)
		}
	}

	listed, err := svc.List(owner.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if listed[0].TaskCount != 3 {
		t.Errorf("TaskCount = %d, expected 3", listed[0].TaskCount)
	}

	// Counted at read time: deleting a task is reflected immediately
	var taskID uint
	db.Model(&models.Task{}).Where("project_id = ?", project.ID).Limit(1).Pluck("id", &taskID)
	if err := tasks.Delete(taskID, owner.ID); err != nil {
		t.Fatalf("task Delete() error = %v", err)
	}

	listed, _ = svc.List(owner.ID)
	if listed[0].TaskCount != 2 {
		t.Errorf("TaskCount after delete = %d, expected 2", listed[0].TaskCount)
	}
}

func TestProjectService_Get_NonMember(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	owner := createUser(t, db, "alice")
	outsider := createUser(t, db, "mallory")
	project := createProject(t, svc, "Private", owner.ID)

	if _, _, err := svc.Get(project.ID, outsider.ID); appStatus(err) != http.StatusForbidden {
		t.Errorf("expected 403 for non-member, got %v", err)
	}

	if _, _, err := svc.Get(project.ID, owner.ID); err != nil {
		t.Errorf("member Get() error = %v", err)
	}

	if _, _, err := svc.Get(999, owner.ID); appStatus(err) != http.StatusNotFound {
		t.Errorf("expected 404 for missing project, got %v", err)
	}
}

func TestProjectService_Update_Partial(t *testing.T) {
	db := newTestDB(t)
	pub := &capturePublisher{}
	svc := NewProjectService(db, pub)
	owner := createUser(t, db, "alice")
	project, err := svc.Create(&CreateProjectRequest{Name: "Original", Description: "Keep me"}, owner.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	pub.reset()

	name := "Renamed"
	updated, err := svc.Update(project.ID, &UpdateProjectRequest{Name: &name}, owner.ID)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Renamed" {
		t.Errorf("Name = %q, expected %q", updated.Name, "Renamed")
	}
	if updated.Description != "Keep me" {
		t.Errorf("omitted description should be untouched, got %q", updated.Description)
	}

	// An explicit empty description clears it
	empty := ""
	updated, err = svc.Update(project.ID, &UpdateProjectRequest{Description: &empty}, owner.ID)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Description != "" {
		t.Errorf("explicit empty description should clear, got %q", updated.Description)
	}

	status := models.ProjectStatusArchived
	updated, err = svc.Update(project.ID, &UpdateProjectRequest{Status: &status}, owner.ID)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Status != models.ProjectStatusArchived {
		t.Errorf("Status = %q, expected %q", updated.Status, models.ProjectStatusArchived)
	}

	ev := pub.last(t)
	if ev.Type != EventProjectUpdated {
		t.Errorf("event Type = %q, expected %q", ev.Type, EventProjectUpdated)
	}
	if ev.ProjectID != project.ID {
		t.Errorf("event channel = %d, expected %d", ev.ProjectID, project.ID)
	}
}

func TestProjectService_Update_NotOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	owner := createUser(t, db, "alice")
	member := createUser(t, db, "bob")
	project := createProject(t, svc, "Owned", owner.ID)

	if _, err := svc.AddMember(project.ID, &AddMemberRequest{UserID: member.ID}, owner.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	name := "Hijacked"
	if _, err := svc.Update(project.ID, &UpdateProjectRequest{Name: &name}, member.ID); appStatus(err) != http.StatusForbidden {
		t.Errorf("member update: expected 403, got %v", err)
	}
}

func TestProjectService_Delete_Cascade(t *testing.T) {
	db := newTestDB(t)
	pub := &capturePublisher{}
	projects := NewProjectService(db, pub)
	tasks := NewTaskService(db, nil)
	owner := createUser(t, db, "alice")
	project := createProject(t, projects, "Doomed", owner.ID)

	task, err := tasks.Create(&CreateTaskRequest{Title: "Doomed task", ProjectID: project.ID}, owner.ID)
	if err != nil {
		t.Fatalf("task Create() error = %v", err)
	}
	if _, err := tasks.AddComment(task.ID, &AddCommentRequest{Text: "doomed comment"}, owner.ID); err != nil {
		t.Fatalf("AddComment() error = %v", err)
	}
	pub.reset()

	if err := projects.Delete(project.ID, owner.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// Everything under the project is gone
	var count int64
	db.Model(&models.Task{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 tasks after cascade, got %d", count)
	}
	db.Model(&models.Comment{}).Where("task_id = ?", task.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 comments after cascade, got %d", count)
	}
	db.Model(&models.ProjectMember{}).Where("project_id = ?", project.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected 0 memberships after cascade, got %d", count)
	}

	if err := db.First(&models.Project{}, project.ID).Error; !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("project should be deleted, got %v", err)
	}

	ev := pub.last(t)
	if ev.Type != EventProjectDeleted {
		t.Errorf("event Type = %q, expected %q", ev.Type, EventProjectDeleted)
	}
}

func TestProjectService_Delete_NotOwner(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	owner := createUser(t, db, "alice")
	member := createUser(t, db, "bob")
	project := createProject(t, svc, "Safe", owner.ID)

	if _, err := svc.AddMember(project.ID, &AddMemberRequest{UserID: member.ID}, owner.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	if err := svc.Delete(project.ID, member.ID); appStatus(err) != http.StatusForbidden {
		t.Errorf("member delete: expected 403, got %v", err)
	}
}

func TestProjectService_AddMember(t *testing.T) {
	db := newTestDB(t)
	pub := &capturePublisher{}
	svc := NewProjectService(db, pub)
	owner := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	project := createProject(t, svc, "Team", owner.ID)
	pub.reset()

	updated, err := svc.AddMember(project.ID, &AddMemberRequest{UserID: bob.ID}, owner.ID)
	if err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	if !updated.HasMember(bob.ID) {
		t.Error("bob should be in the member set")
	}
	if len(updated.Members) != 2 {
		t.Errorf("expected 2 members, got %d", len(updated.Members))
	}
	// Insertion order: owner first
	if updated.Members[0].ID != owner.ID {
		t.Errorf("first member should be the owner, got %d", updated.Members[0].ID)
	}

	ev := pub.last(t)
	if ev.Type != EventMemberAdded {
		t.Errorf("event Type = %q, expected %q", ev.Type, EventMemberAdded)
	}
	if ev.ProjectID != project.ID {
		t.Errorf("event channel = %d, expected %d", ev.ProjectID, project.ID)
	}

	// Duplicate add is a conflict (400)
	if _, err := svc.AddMember(project.ID, &AddMemberRequest{UserID: bob.ID}, owner.ID); appStatus(err) != http.StatusBadRequest {
		t.Errorf("duplicate add: expected 400, got %v", err)
	}

	// Only the owner may add
	carol := createUser(t, db, "carol")
	if _, err := svc.AddMember(project.ID, &AddMemberRequest{UserID: carol.ID}, bob.ID); appStatus(err) != http.StatusForbidden {
		t.Errorf("member add: expected 403, got %v", err)
	}

	// Unknown target user
	if _, err := svc.AddMember(project.ID, &AddMemberRequest{UserID: 999}, owner.ID); appStatus(err) != http.StatusNotFound {
		t.Errorf("unknown user: expected 404, got %v", err)
	}
}

func TestProjectService_RemoveMember(t *testing.T) {
	db := newTestDB(t)
	pub := &capturePublisher{}
	svc := NewProjectService(db, pub)
	owner := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	project := createProject(t, svc, "Team", owner.ID)

	if _, err := svc.AddMember(project.ID, &AddMemberRequest{UserID: bob.ID}, owner.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}
	pub.reset()

	updated, err := svc.RemoveMember(project.ID, bob.ID, owner.ID)
	if err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}
	if updated.HasMember(bob.ID) {
		t.Error("bob should be removed from the member set")
	}

	ev := pub.last(t)
	if ev.Type != EventMemberRemoved {
		t.Errorf("event Type = %q, expected %q", ev.Type, EventMemberRemoved)
	}

	// The owner can never be removed (conflict, 400)
	if _, err := svc.RemoveMember(project.ID, owner.ID, owner.ID); appStatus(err) != http.StatusBadRequest {
		t.Errorf("owner removal: expected 400, got %v", err)
	}

	// Removal is a hard delete, so re-adding the same user works
	if _, err := svc.AddMember(project.ID, &AddMemberRequest{UserID: bob.ID}, owner.ID); err != nil {
		t.Errorf("re-add after removal should work, got %v", err)
	}
}

func TestProjectService_RemoveMember_KeepsAssignment(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectService(db, nil)
	tasks := NewTaskService(db, nil)
	owner := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	project := createProject(t, projects, "Team", owner.ID)

	if _, err := projects.AddMember(project.ID, &AddMemberRequest{UserID: bob.ID}, owner.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	task, err := tasks.Create(&CreateTaskRequest{Title: "Bob's task", ProjectID: project.ID, AssignedToID: &bob.ID}, owner.ID)
	if err != nil {
		t.Fatalf("task Create() error = %v", err)
	}

	if _, err := projects.RemoveMember(project.ID, bob.ID, owner.ID); err != nil {
		t.Fatalf("RemoveMember() error = %v", err)
	}

	// Assignment is checked at assignment time only; removal leaves it stale
	got, err := tasks.Get(task.ID, owner.ID)
	if err != nil {
		t.Fatalf("task Get() error = %v", err)
	}
	if got.AssignedToID == nil || *got.AssignedToID != bob.ID {
		t.Error("existing assignment should survive member removal")
	}
}

func TestProjectService_MemberProjectIDs(t *testing.T) {
	db := newTestDB(t)
	svc := NewProjectService(db, nil)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	p1 := createProject(t, svc, "One", alice.ID)
	createProject(t, svc, "Two", bob.ID)

	if _, err := svc.AddMember(p1.ID, &AddMemberRequest{UserID: bob.ID}, alice.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	ids, err := svc.MemberProjectIDs(bob.ID)
	if err != nil {
		t.Fatalf("MemberProjectIDs() error = %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("bob should belong to 2 projects, got %d", len(ids))
	}

	ids, _ = svc.MemberProjectIDs(alice.ID)
	if len(ids) != 1 {
		t.Errorf("alice should belong to 1 project, got %d", len(ids))
	}
}
