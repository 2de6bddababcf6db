package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"taskflow/database"
	"taskflow/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", PasswordHash: "x", IsActive: true}
	if err := NewUserRepository(db).Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

func ptr[T any](v T) *T { return &v }

func TestCreateAssignsOwnerServerSide(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	cats := NewCategoryRepository(db)
	cat := &models.Category{UserID: bob.ID, Name: "Work", Color: models.DefaultCategoryColor}
	if err := cats.Create(ctx, alice.ID, cat); err != nil {
		t.Fatalf("create category: %v", err)
	}
	if cat.UserID != alice.ID {
		t.Fatalf("category owner = %d, want %d", cat.UserID, alice.ID)
	}

	tasks := NewTaskRepository(db)
	task := &models.Task{UserID: bob.ID, Title: "t", Status: models.StatusPending, Priority: models.PriorityMedium}
	if err := tasks.Create(ctx, alice.ID, task); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.UserID != alice.ID {
		t.Fatalf("task owner = %d, want %d", task.UserID, alice.ID)
	}
}

func TestForeignRowsLookMissing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	tasks := NewTaskRepository(db)
	task := &models.Task{Title: "secret", Status: models.StatusPending, Priority: models.PriorityMedium}
	if err := tasks.Create(ctx, alice.ID, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	if _, err := tasks.FindByID(ctx, bob.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("find foreign task err = %v, want ErrNotFound", err)
	}
	if _, err := tasks.FindByID(ctx, bob.ID, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("find missing task err = %v, want ErrNotFound", err)
	}
	_, err := tasks.Update(ctx, bob.ID, task.ID, func(tk *models.Task) error {
		tk.Title = "hijacked"
		return nil
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("update foreign task err = %v", err)
	}
	if _, err := tasks.Delete(ctx, bob.ID, task.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete foreign task err = %v", err)
	}

	got, err := tasks.FindByID(ctx, alice.ID, task.ID)
	if err != nil {
		t.Fatalf("owner find: %v", err)
	}
	if got.Title != "secret" {
		t.Fatalf("title changed to %q", got.Title)
	}

	list, err := tasks.List(ctx, bob.ID, TaskFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("bob sees %d tasks", len(list))
	}
}

func TestCompletionCoupledToStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	tasks := NewTaskRepository(db)

	task := &models.Task{Title: "done on arrival", Status: models.StatusCompleted, Priority: models.PriorityLow}
	if err := tasks.Create(ctx, alice.ID, task); err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.CompletedAt == nil {
		t.Fatalf("created completed task without completed_at")
	}
	first := *task.CompletedAt

	complete := func(tk *models.Task) error { tk.Status = models.StatusCompleted; return nil }
	again, err := tasks.Update(ctx, alice.ID, task.ID, complete)
	if err != nil {
		t.Fatalf("complete again: %v", err)
	}
	if again.CompletedAt == nil || !again.CompletedAt.Equal(first) {
		t.Fatalf("completed_at moved: %v -> %v", first, again.CompletedAt)
	}

	reopened, err := tasks.Update(ctx, alice.ID, task.ID, func(tk *models.Task) error {
		tk.Status = models.StatusPending
		return nil
	})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.CompletedAt != nil {
		t.Fatalf("reopened task kept completed_at %v", reopened.CompletedAt)
	}
}

func TestUpdateAbortsOnMutateError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	tasks := NewTaskRepository(db)

	task := &models.Task{Title: "keep", Status: models.StatusPending, Priority: models.PriorityLow}
	if err := tasks.Create(ctx, alice.ID, task); err != nil {
		t.Fatalf("create: %v", err)
	}
	boom := errors.New("boom")
	_, err := tasks.Update(ctx, alice.ID, task.ID, func(tk *models.Task) error {
		tk.Title = "changed"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	got, _ := tasks.FindByID(ctx, alice.ID, task.ID)
	if got.Title != "keep" {
		t.Fatalf("partial write happened: %q", got.Title)
	}
}

func TestDeleteCategoryDetachesTasks(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	cats := NewCategoryRepository(db)
	tasks := NewTaskRepository(db)

	cat := &models.Category{Name: "Work", Color: models.DefaultCategoryColor}
	if err := cats.Create(ctx, alice.ID, cat); err != nil {
		t.Fatalf("create category: %v", err)
	}
	for _, title := range []string{"a", "b"} {
		task := &models.Task{Title: title, Status: models.StatusPending, Priority: models.PriorityMedium, CategoryID: &cat.ID}
		if err := tasks.Create(ctx, alice.ID, task); err != nil {
			t.Fatalf("create task: %v", err)
		}
		if task.Category == nil || task.Category.Name != "Work" {
			t.Fatalf("category not preloaded after create")
		}
	}

	listed, err := cats.List(ctx, alice.ID, CategoryFilter{})
	if err != nil {
		t.Fatalf("list categories: %v", err)
	}
	if len(listed) != 1 || listed[0].TaskCount != 2 {
		t.Fatalf("categories = %+v", listed)
	}

	if _, err := cats.Delete(ctx, alice.ID, cat.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	remaining, err := tasks.List(ctx, alice.ID, TaskFilter{})
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("tasks deleted with category: %d left", len(remaining))
	}
	for _, tk := range remaining {
		if tk.CategoryID != nil {
			t.Fatalf("task %d still points at category %d", tk.ID, *tk.CategoryID)
		}
	}
}

func TestCategoryNameUniquePerUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	cats := NewCategoryRepository(db)

	if err := cats.Create(ctx, alice.ID, &models.Category{Name: "Home", Color: "#ffffff"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := cats.Create(ctx, bob.ID, &models.Category{Name: "Home", Color: "#ffffff"}); err != nil {
		t.Fatalf("same name for another user should be allowed: %v", err)
	}
	if err := cats.Create(ctx, alice.ID, &models.Category{Name: "Home", Color: "#ffffff"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate name for the same user: err = %v, want ErrDuplicate", err)
	}
	taken, err := cats.NameTaken(ctx, alice.ID, "Home", 0)
	if err != nil || !taken {
		t.Fatalf("NameTaken = %v, %v", taken, err)
	}
}

func TestTaskFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	tasks := NewTaskRepository(db)

	now := time.Now().UTC()
	mk := func(title string, status models.TaskStatus, prio models.TaskPriority, due *time.Time) *models.Task {
		task := &models.Task{Title: title, Description: "body of " + title, Status: status, Priority: prio, DueDate: due}
		if err := tasks.Create(ctx, alice.ID, task); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		return task
	}
	late := mk("Late report", models.StatusPending, models.PriorityHigh, ptr(now.Add(-48*time.Hour)))
	mk("Late but done", models.StatusCompleted, models.PriorityLow, ptr(now.Add(-48*time.Hour)))
	soon := mk("Soon", models.StatusInProgress, models.PriorityMedium, ptr(now.Add(72*time.Hour)))
	mk("Someday", models.StatusPending, models.PriorityHigh, nil)

	overdue, err := tasks.List(ctx, alice.ID, TaskFilter{DueBefore: &now, OpenOnly: true})
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(overdue) != 1 || overdue[0].ID != late.ID {
		t.Fatalf("overdue = %v", titles(overdue))
	}

	from := now.Add(24 * time.Hour)
	to := now.Add(96 * time.Hour)
	window, err := tasks.List(ctx, alice.ID, TaskFilter{DueFrom: &from, DueBefore: &to})
	if err != nil {
		t.Fatalf("window: %v", err)
	}
	if len(window) != 1 || window[0].ID != soon.ID {
		t.Fatalf("window = %v", titles(window))
	}

	found, err := tasks.List(ctx, alice.ID, TaskFilter{Search: "LATE"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("search = %v", titles(found))
	}

	found, err = tasks.List(ctx, alice.ID, TaskFilter{Search: "body of some"})
	if err != nil {
		t.Fatalf("search description: %v", err)
	}
	if len(found) != 1 || found[0].Title != "Someday" {
		t.Fatalf("description search = %v", titles(found))
	}

	found, err = tasks.List(ctx, alice.ID, TaskFilter{Search: "%"})
	if err != nil {
		t.Fatalf("wildcard search: %v", err)
	}
	if len(found) != 0 {
		t.Fatalf("literal %% matched %v", titles(found))
	}

	high := models.PriorityHigh
	pending := models.StatusPending
	found, err = tasks.List(ctx, alice.ID, TaskFilter{Priority: &high, Status: &pending})
	if err != nil {
		t.Fatalf("exact filters: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("high+pending = %v", titles(found))
	}

	// Default order: priority desc, due date asc with nulls last.
	all, err := tasks.List(ctx, alice.ID, TaskFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{"Late report", "Someday", "Soon", "Late but done"}
	if got := titles(all); !equal(got, want) {
		t.Fatalf("default order = %v, want %v", got, want)
	}

	byDue, err := tasks.List(ctx, alice.ID, TaskFilter{Ordering: []string{"-due_date", "bogus"}})
	if err != nil {
		t.Fatalf("ordered list: %v", err)
	}
	if got := titles(byDue); got[0] != "Soon" || got[len(got)-1] != "Someday" {
		t.Fatalf("-due_date order = %v", got)
	}
}

func TestAggregateCounts(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	cats := NewCategoryRepository(db)
	tasks := NewTaskRepository(db)

	work := &models.Category{Name: "Work", Color: "#000000"}
	if err := cats.Create(ctx, alice.ID, work); err != nil {
		t.Fatalf("create category: %v", err)
	}
	for _, tk := range []*models.Task{
		{Title: "a", Status: models.StatusPending, Priority: models.PriorityHigh, CategoryID: &work.ID},
		{Title: "b", Status: models.StatusCompleted, Priority: models.PriorityHigh, CategoryID: &work.ID},
		{Title: "c", Status: models.StatusInProgress, Priority: models.PriorityLow},
	} {
		if err := tasks.Create(ctx, alice.ID, tk); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if err := tasks.Create(ctx, bob.ID, &models.Task{Title: "bob", Status: models.StatusPending, Priority: models.PriorityMedium}); err != nil {
		t.Fatalf("create bob task: %v", err)
	}

	byStatus, err := tasks.CountByStatus(ctx, alice.ID)
	if err != nil {
		t.Fatalf("by status: %v", err)
	}
	if byStatus[models.StatusPending] != 1 || byStatus[models.StatusCompleted] != 1 || byStatus[models.StatusInProgress] != 1 {
		t.Fatalf("by status = %v", byStatus)
	}

	byPriority, err := tasks.CountByPriority(ctx, alice.ID)
	if err != nil {
		t.Fatalf("by priority: %v", err)
	}
	if len(byPriority) != 2 || byPriority[models.PriorityHigh] != 2 || byPriority[models.PriorityLow] != 1 {
		t.Fatalf("by priority = %v", byPriority)
	}

	byCategory, err := tasks.CountByCategoryName(ctx, alice.ID)
	if err != nil {
		t.Fatalf("by category: %v", err)
	}
	if len(byCategory) != 1 || byCategory["Work"] != 2 {
		t.Fatalf("by category = %v", byCategory)
	}

	start := time.Now().UTC().Add(-time.Hour)
	done, err := tasks.CountCompletedBetween(ctx, alice.ID, start, start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("completed between: %v", err)
	}
	if done != 1 {
		t.Fatalf("completed between = %d", done)
	}
}

func TestSQLRevocationStore(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	store := NewSQLRevocationStore(db)

	revoked, err := store.IsRevoked(ctx, "abc")
	if err != nil || revoked {
		t.Fatalf("fresh id revoked=%v err=%v", revoked, err)
	}
	if err := store.Revoke(ctx, "abc", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if err := store.Revoke(ctx, "abc", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("second revoke should be absorbed: %v", err)
	}
	revoked, err = store.IsRevoked(ctx, "abc")
	if err != nil || !revoked {
		t.Fatalf("revoked id revoked=%v err=%v", revoked, err)
	}

	if err := store.Revoke(ctx, "old", time.Now().Add(-time.Hour)); err != nil {
		t.Fatalf("revoke expired: %v", err)
	}
	if revoked, _ := store.IsRevoked(ctx, "old"); revoked {
		t.Fatalf("expired entry still reported as revoked")
	}
}

func titles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, tk := range tasks {
		out[i] = tk.Title
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
