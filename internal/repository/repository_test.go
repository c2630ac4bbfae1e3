package repository

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"vue-dashboard-api/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Role{},
		&domain.Permission{},
		&domain.PersonalAccessToken{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedUsers(t *testing.T, repo UserRepository, n int) []domain.User {
	t.Helper()
	users := make([]domain.User, 0, n)
	for i := 1; i <= n; i++ {
		u := domain.User{
			Name:  fmt.Sprintf("User %02d", i),
			Email: fmt.Sprintf("user%02d@example.com", i),
		}
		if err := repo.Create(&u); err != nil {
			t.Fatalf("create user %d: %v", i, err)
		}
		users = append(users, u)
	}
	return users
}

func TestUserRepositoryListPagedDefaultsAndTotals(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	seedUsers(t, repo, 20)

	page, err := repo.ListPaged(UserListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Page != DefaultPage || page.PageSize != DefaultPageSize {
		t.Fatalf("expected defaults %d/%d, got %d/%d", DefaultPage, DefaultPageSize, page.Page, page.PageSize)
	}
	if page.Total != 20 {
		t.Fatalf("expected total 20, got %d", page.Total)
	}
	if page.TotalPages != 2 {
		t.Fatalf("expected 2 pages, got %d", page.TotalPages)
	}
	if len(page.Items) != DefaultPageSize {
		t.Fatalf("expected %d items, got %d", DefaultPageSize, len(page.Items))
	}

	second, err := repo.ListPaged(UserListQuery{PageRequest: PageRequest{Page: 2}})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(second.Items) != 5 {
		t.Fatalf("expected 5 items on last page, got %d", len(second.Items))
	}
	if second.Items[0].ID <= page.Items[len(page.Items)-1].ID {
		t.Fatal("expected stable id ordering across pages")
	}
}

func TestUserRepositoryListPagedSearch(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	seedUsers(t, repo, 5)
	special := domain.User{Name: "Needle Smith", Email: "needle@example.com"}
	if err := repo.Create(&special); err != nil {
		t.Fatalf("create: %v", err)
	}

	byName, err := repo.ListPaged(UserListQuery{Search: "Needle"})
	if err != nil {
		t.Fatalf("search by name: %v", err)
	}
	if byName.Total != 1 || byName.Items[0].Email != "needle@example.com" {
		t.Fatalf("expected single match by name, got total=%d", byName.Total)
	}

	byEmail, err := repo.ListPaged(UserListQuery{Search: "user03@"})
	if err != nil {
		t.Fatalf("search by email: %v", err)
	}
	if byEmail.Total != 1 {
		t.Fatalf("expected single match by email, got total=%d", byEmail.Total)
	}
}

func TestUserRepositoryEmailTakenExcludesSelf(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	users := seedUsers(t, repo, 2)

	taken, err := repo.EmailTaken(users[0].Email, 0)
	if err != nil || !taken {
		t.Fatalf("expected taken, got %v err=%v", taken, err)
	}
	taken, err = repo.EmailTaken(users[0].Email, users[0].ID)
	if err != nil || taken {
		t.Fatalf("expected not taken when excluding self, got %v err=%v", taken, err)
	}
}

func TestUserRepositoryRoleAssignment(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	roles := NewRoleRepository(db)

	admin := domain.Role{Name: "admin"}
	editor := domain.Role{Name: "editor"}
	if err := roles.Create(&admin); err != nil {
		t.Fatalf("create role: %v", err)
	}
	if err := roles.Create(&editor); err != nil {
		t.Fatalf("create role: %v", err)
	}
	u := seedUsers(t, users, 1)[0]

	if err := users.AddRole(u.ID, admin.ID); err != nil {
		t.Fatalf("add role: %v", err)
	}
	got, err := users.FindByID(u.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got.Roles) != 1 || got.Roles[0].Name != "admin" {
		t.Fatalf("expected admin role, got %+v", got.Roles)
	}

	if err := users.SetRoles(u.ID, []domain.Role{editor}); err != nil {
		t.Fatalf("set roles: %v", err)
	}
	got, err = users.FindByID(u.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got.Roles) != 1 || got.Roles[0].Name != "editor" {
		t.Fatalf("expected roles replaced with editor, got %+v", got.Roles)
	}
}

func TestUserRepositoryDeleteMissingRow(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	err := repo.Delete(9999)
	if !IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestRoleRepositorySyncPermissions(t *testing.T) {
	db := newTestDB(t)
	roles := NewRoleRepository(db)
	perms := NewPermissionRepository(db)

	role := domain.Role{Name: "manager"}
	if err := roles.Create(&role); err != nil {
		t.Fatalf("create role: %v", err)
	}
	created, err := perms.FindOrCreateByNames([]string{"users.view", "users.edit"})
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}
	if err := roles.SyncPermissions(&role, created); err != nil {
		t.Fatalf("sync: %v", err)
	}

	got, err := roles.FindByName("manager")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got.Permissions) != 2 {
		t.Fatalf("expected 2 permissions, got %d", len(got.Permissions))
	}

	replacement, err := perms.FindOrCreateByNames([]string{"users.view"})
	if err != nil {
		t.Fatalf("find or create: %v", err)
	}
	if err := roles.SyncPermissions(got, replacement); err != nil {
		t.Fatalf("resync: %v", err)
	}
	got, err = roles.FindByName("manager")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got.Permissions) != 1 || got.Permissions[0].Name != "users.view" {
		t.Fatalf("expected permissions replaced, got %+v", got.Permissions)
	}
}

func TestPermissionRepositoryFindOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	perms := NewPermissionRepository(db)

	first, err := perms.FindOrCreateByNames([]string{"dashboard.view"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := perms.FindOrCreateByNames([]string{"dashboard.view"})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first[0].ID != second[0].ID {
		t.Fatalf("expected same row, got %d and %d", first[0].ID, second[0].ID)
	}
	count, err := perms.Count()
	if err != nil || count != 1 {
		t.Fatalf("expected single permission row, got %d err=%v", count, err)
	}
}

func TestTokenRepositoryLifecycle(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	tokens := NewTokenRepository(db)
	u := seedUsers(t, users, 1)[0]

	first := domain.PersonalAccessToken{UserID: u.ID, Name: "Personal Access Token", TokenHash: "hash-a"}
	second := domain.PersonalAccessToken{UserID: u.ID, Name: "Personal Access Token", TokenHash: "hash-b"}
	if err := tokens.Create(&first); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := tokens.Create(&second); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := tokens.FindByID(first.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.TokenHash != "hash-a" {
		t.Fatalf("unexpected hash %q", got.TokenHash)
	}

	deleted, err := tokens.DeleteByUserID(u.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
	if _, err := tokens.FindByID(first.ID); !IsNotFound(err) {
		t.Fatalf("expected not-found after revocation, got %v", err)
	}
}

func TestNormalizePageRequestBounds(t *testing.T) {
	cases := []struct {
		name     string
		in       PageRequest
		page     int
		pageSize int
	}{
		{"zero values", PageRequest{}, DefaultPage, DefaultPageSize},
		{"negative page", PageRequest{Page: -3, PageSize: 10}, DefaultPage, 10},
		{"oversized page size", PageRequest{Page: 2, PageSize: 5000}, 2, MaxPageSize},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := normalizePageRequest(tc.in)
			if got.Page != tc.page || got.PageSize != tc.pageSize {
				t.Fatalf("got %d/%d, want %d/%d", got.Page, got.PageSize, tc.page, tc.pageSize)
			}
		})
	}
}
