package models

import (
	"fmt"
	"testing"

	mysqlDriver "github.com/go-sql-driver/mysql"
)

func TestIsDuplicateKeyErr(t *testing.T) {
	dup := &mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry 'a@b.c' for key 'users.email'"}
	if !isDuplicateKeyErr(dup) {
		t.Fatalf("error 1062 must be detected as duplicate key")
	}
	if !isDuplicateKeyErr(fmt.Errorf("create user: %w", dup)) {
		t.Fatalf("wrapped error 1062 must be detected as duplicate key")
	}

	if isDuplicateKeyErr(&mysqlDriver.MySQLError{Number: 1213}) {
		t.Fatalf("deadlock error must not be treated as duplicate key")
	}
	if isDuplicateKeyErr(fmt.Errorf("plain error")) {
		t.Fatalf("non-mysql error must not be treated as duplicate key")
	}
	if isDuplicateKeyErr(nil) {
		t.Fatalf("nil error must not be treated as duplicate key")
	}
}
