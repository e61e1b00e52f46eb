package main

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/homework-assistant-api/internal/database"
	"github.com/noah-isme/homework-assistant-api/internal/models"
	"github.com/noah-isme/homework-assistant-api/internal/repository"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestAddUserThenAssignMissing(t *testing.T) {
	t.Setenv("HOMEWORK_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.ConnectSQLite(dsn)
	require.NoError(t, err)

	out, err := run(t, "migrate", "--database-url", dsn)
	require.NoError(t, err)
	require.Contains(t, out, "schema up to date")

	out, err = run(t, "add-user", "--database-url", dsn,
		"--name", "Ms Rivera", "--email", "Rivera@School.test", "--password", "secret", "--role", "teacher")
	require.NoError(t, err)
	require.Contains(t, out, "created teacher")

	var teacher models.User
	require.NoError(t, db.Where("email = ?", "rivera@school.test").First(&teacher).Error)

	homework := models.Homework{TeacherID: teacher.ID, Title: "Algebra 1", DueDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)}
	records, err := repository.NewHomeworkRepository(db).CreateWithAssignments(context.Background(), &homework)
	require.NoError(t, err)
	require.Empty(t, records)

	_, err = run(t, "add-user", "--database-url", dsn,
		"--name", "Alice", "--email", "alice@school.test", "--password", "secret")
	require.NoError(t, err)

	out, err = run(t, "assign-missing", "--database-url", dsn, "--homework-id", fmt.Sprint(homework.ID))
	require.NoError(t, err)
	require.Contains(t, out, "to 1 new students")

	var count int64
	require.NoError(t, db.Model(&models.StudentHomework{}).Where("homework_id = ?", homework.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestListUsersByRole(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.ConnectSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	for _, user := range []struct{ name, email, role string }{
		{"Ms Rivera", "rivera@school.test", "teacher"},
		{"Alice", "alice@school.test", "student"},
		{"Bob", "bob@school.test", "student"},
	} {
		_, err := run(t, "add-user", "--database-url", dsn,
			"--name", user.name, "--email", user.email, "--password", "secret", "--role", user.role)
		require.NoError(t, err)
	}

	out, err := run(t, "list-users", "--database-url", dsn)
	require.NoError(t, err)
	require.Contains(t, out, "alice@school.test")
	require.Contains(t, out, "bob@school.test")
	require.NotContains(t, out, "rivera@school.test")
	require.Contains(t, out, "2 of 3 users are students")

	out, err = run(t, "list-users", "--database-url", dsn, "--role", "Teacher")
	require.NoError(t, err)
	require.Contains(t, out, "1 of 3 users are teachers")

	_, err = run(t, "list-users", "--database-url", dsn, "--role", "admin")
	require.Error(t, err)
}

func TestAddUserRejectsDuplicateEmail(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := database.ConnectSQLite(dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	args := []string{"add-user", "--database-url", dsn, "--name", "Bob", "--email", "bob@school.test", "--password", "pw"}
	_, err = run(t, args...)
	require.NoError(t, err)

	_, err = run(t, args...)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already registered")
}

func TestMigrateRolesRequiresPostgres(t *testing.T) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())

	_, err := run(t, "migrate-roles", "--database-url", dsn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "requires postgres")
}

func TestCommandsNeedADatabase(t *testing.T) {
	t.Setenv("HOMEWORK_DATABASE_URL", "")
	t.Setenv("DATABASE_URL", "")

	_, err := run(t, "migrate")
	require.EqualError(t, err, "database url is required")
}
