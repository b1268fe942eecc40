package repository

import (
	"strings"
	"testing"
)

func TestBuildLikeConditionSQLite(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("sqlite", "email", "display_name", "  ")
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if condition != "email LIKE ? OR display_name LIKE ?" {
		t.Fatalf("unexpected condition: %s", condition)
	}
}

func TestBuildLikeConditionPostgres(t *testing.T) {
	condition, argCount := buildLikeConditionByDialect("postgres", "name", "description")
	if argCount != 2 {
		t.Fatalf("arg count want 2 got %d", argCount)
	}
	if !strings.Contains(condition, "name ILIKE ?") {
		t.Fatalf("postgres should use ILIKE, got %s", condition)
	}
}

func TestLikeOperatorByDialect(t *testing.T) {
	if op := likeOperatorByDialect(" PostgreSQL "); op != "ILIKE" {
		t.Fatalf("want ILIKE got %s", op)
	}
	if op := likeOperatorByDialect("sqlite"); op != "LIKE" {
		t.Fatalf("want LIKE got %s", op)
	}
	if op := likeOperatorByDialect(""); op != "LIKE" {
		t.Fatalf("empty dialect should default to LIKE, got %s", op)
	}
}

func TestRepeatLikeArgs(t *testing.T) {
	args := repeatLikeArgs("%test%", 3)
	if len(args) != 3 {
		t.Fatalf("args len want 3 got %d", len(args))
	}
	for idx, arg := range args {
		if arg != "%test%" {
			t.Fatalf("args[%d] want %%test%% got %v", idx, arg)
		}
	}
}
