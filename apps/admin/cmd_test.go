package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appfs "github.com/trezcool/darasa/assets"
	"github.com/trezcool/darasa/core/user"
	"github.com/trezcool/darasa/storage/database/inmem"
	"github.com/trezcool/darasa/testutil"
)

var usrRepo user.Repository

func setup(t *testing.T) *commandLine {
	// set up DB & repos
	db := inmemdb.NewDB()
	t.Cleanup(func() { _ = db.Close() })
	usrRepo = inmemdb.NewUserRepository(db)

	// start CLI
	return &commandLine{usrSvc: user.NewService(usrRepo)}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	t.Run("memory engine", func(t *testing.T) {
		err := cli.run([]string{"admin", "migrate", "up"})
		assert.Equal(t, errNoDatabase, err)
	})

	cli.db = new(sql.DB) // never used by the mocked goose
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		if dir != appfs.MigrationsDir {
			return fmt.Errorf("unexpected migrations dir %q", dir)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			} else if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() expected an error")
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	existing := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "mdr", false, false, false)

	errTests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"adduser", "-username", "lol"}, wantErr: errHelp},
	}
	for _, tt := range errTests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword("")

		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, cli.run(args))
		})
	}

	t.Run("create admin", func(t *testing.T) {
		mockPassword("p@ss")
		require.NoError(t, cli.run([]string{"admin", "adduser", "-username", " Boss ", "-email", "BOSS@test.cd", "-admin"}))

		usr, err := usrRepo.GetUser(ctx, user.GetFilter{Username: "boss"})
		require.NoError(t, err)
		assert.Equal(t, "boss@test.cd", usr.Email)
		assert.True(t, usr.IsAdmin)
		assert.False(t, usr.IsInstructor)
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword("p@ss"))
	})

	t.Run("create instructor", func(t *testing.T) {
		mockPassword("p@ss")
		require.NoError(t, cli.run([]string{"admin", "adduser", "-username", "teach", "-instructor"}))

		usr, err := usrRepo.GetUser(ctx, user.GetFilter{Username: "teach"})
		require.NoError(t, err)
		assert.True(t, usr.IsInstructor)
		assert.False(t, usr.IsAdmin)
	})

	t.Run("update existing", func(t *testing.T) {
		mockPassword("new-pass")
		require.NoError(t, cli.run([]string{"admin", "adduser", "-username", "AWE", "-admin", "-instructor"}))

		usr, err := usrRepo.GetUser(ctx, user.GetFilter{ID: existing.ID})
		require.NoError(t, err)
		assert.Equal(t, existing.Email, usr.Email, "email is kept when not provided")
		assert.True(t, usr.IsAdmin)
		assert.True(t, usr.IsInstructor)
		assert.True(t, usr.IsActive, "the user is reactivated")
		assert.NoError(t, usr.CheckPassword("new-pass"))

		users, err := usrRepo.QueryUsers(ctx, &user.QueryFilter{}, nil)
		require.NoError(t, err)
		assert.Len(t, users, 3)
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "awe", "awe@test.cd", "mdr", false, false, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with uppercase username", args: []string{"resetpassword", "-username", "AWE"}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
				usr = refreshedUsr
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
	assert.NoError(t, usr.CheckPassword("lmao"))
}
