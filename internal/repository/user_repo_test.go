package repository

import (
	"context"
	"errors"
	"testing"

	"investsystem/internal/model"
)

func TestUserRepoCreateAndLookup(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewMemoryStore())

	user := &model.User{ID: "u1", Name: "Ravi", Mobile: "9876543210", Balance: 300}
	if err := repo.Create(ctx, nil, user); err != nil {
		t.Fatal(err)
	}

	byID, err := repo.GetByID(ctx, nil, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if byID.Balance != 300 {
		t.Errorf("Balance = %d, want 300", byID.Balance)
	}

	byMobile, err := repo.GetByMobile(ctx, nil, "9876543210")
	if err != nil {
		t.Fatal(err)
	}
	if byMobile.ID != "u1" {
		t.Errorf("ID = %q, want u1", byMobile.ID)
	}

	if _, err := repo.GetByID(ctx, nil, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound, 得到 %v", err)
	}
}

// Update 返回的是更新后的副本，对返回值的修改不应影响存储内容
func TestUserRepoUpdateReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewMemoryStore())
	repo.Create(ctx, nil, &model.User{ID: "u1", Balance: 100})

	updated, err := repo.Update(ctx, nil, "u1", func(u *model.User) error {
		u.Balance = 50
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	updated.Balance = 999

	stored, _ := repo.GetByID(ctx, nil, "u1")
	if stored.Balance != 50 {
		t.Errorf("存储中 Balance = %d, want 50", stored.Balance)
	}
}

func TestUserRepoUpdateMissingUser(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(NewMemoryStore())

	_, err := repo.Update(ctx, nil, "ghost", func(u *model.User) error { return nil })
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("期望 ErrUserNotFound, 得到 %v", err)
	}
}
