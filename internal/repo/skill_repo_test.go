package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/skillswap-backend/internal/domain"
)

func TestSkillAssertions_ReplaceOnSet(t *testing.T) {
	db := newRepoDB(t)
	seedUsers(t, db, 1)
	ctx := context.Background()

	skills := []domain.Skill{{Name: "Python"}, {Name: "Go"}}
	if err := db.Create(&skills).Error; err != nil {
		t.Fatalf("seed skills: %v", err)
	}

	cat, err := ListSkills(ctx, db)
	if err != nil || len(cat) != 2 || cat[0].Name != "Go" {
		t.Fatalf("ListSkills=%+v err=%v", cat, err)
	}
	if s, err := GetSkill(ctx, db, skills[0].ID); err != nil || s.Name != "Python" {
		t.Fatalf("GetSkill=%+v err=%v", s, err)
	}
	if _, err := GetSkill(ctx, db, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	py := skills[0].ID
	if err := UpsertHave(ctx, db, 1, py, "beginner"); err != nil {
		t.Fatalf("UpsertHave: %v", err)
	}
	if err := UpsertHave(ctx, db, 1, py, "advanced"); err != nil {
		t.Fatalf("UpsertHave replace: %v", err)
	}
	have, err := ListHave(ctx, db, 1)
	if err != nil || len(have) != 1 || have[0].Level != "advanced" || have[0].Skill.Name != "Python" {
		t.Fatalf("ListHave=%+v err=%v", have, err)
	}

	goID := skills[1].ID
	for i := 0; i < 2; i++ {
		if err := UpsertWant(ctx, db, 1, goID); err != nil {
			t.Fatalf("UpsertWant #%d: %v", i, err)
		}
	}
	want, err := ListWant(ctx, db, 1)
	if err != nil || len(want) != 1 || want[0].Skill.Name != "Go" {
		t.Fatalf("ListWant=%+v err=%v", want, err)
	}

	if err := DeleteHave(ctx, db, 1, py); err != nil {
		t.Fatalf("DeleteHave: %v", err)
	}
	if err := DeleteHave(ctx, db, 1, py); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second DeleteHave, got %v", err)
	}
	if err := DeleteWant(ctx, db, 1, goID); err != nil {
		t.Fatalf("DeleteWant: %v", err)
	}
	if err := DeleteWant(ctx, db, 1, goID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second DeleteWant, got %v", err)
	}
}

func TestUpsertHave_InvalidLevelRejected(t *testing.T) {
	db := newRepoDB(t)
	seedUsers(t, db, 1)
	s := &domain.Skill{Name: "Go"}
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("seed skill: %v", err)
	}
	if err := UpsertHave(context.Background(), db, 1, s.ID, "guru"); err == nil {
		t.Fatalf("expected CHECK violation for unknown level")
	}
}
