package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
	sqlxrepos "github.com/trezcool/darasa/storage/database/sqlx"
)

const (
	EnginePostgres = "postgres"
	EngineMemory   = "memory"
)

// Repositories bundles the repositories of one storage engine.
type Repositories struct {
	Users       user.Repository
	Courses     course.Repository
	Enrollments enrollment.Repository
	Quizzes     quiz.Repository

	// DB is nil for the memory engine.
	DB    *sqlx.DB
	close func() error
}

func (r *Repositories) Close() error {
	if r.close == nil {
		return nil
	}
	return r.close()
}

// NewRepositories sets up the storage engine of conf.
// For Postgres, the database is created if it does not exist yet and migrated when migrate is true.
func NewRepositories(conf *core.Config, migrate bool) (*Repositories, error) {
	switch conf.Database.Engine {
	case EngineMemory:
		return NewMemoryRepositories(inmemdb.NewDB()), nil
	case EnginePostgres, "":
		if err := CreateIfNotExist(conf); err != nil {
			return nil, errors.Wrap(err, "creating database")
		}
		db, err := Open(conf)
		if err != nil {
			return nil, err
		}
		if migrate {
			if err = Migrate(db, "up"); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		return NewPostgresRepositories(db), nil
	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
}

func NewPostgresRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Users:       sqlxrepos.NewUserRepository(db),
		Courses:     sqlxrepos.NewCourseRepository(db),
		Enrollments: sqlxrepos.NewEnrollmentRepository(db),
		Quizzes:     sqlxrepos.NewQuizRepository(db),
		DB:          db,
		close:       db.Close,
	}
}

func NewMemoryRepositories(db *inmemdb.DB) *Repositories {
	return &Repositories{
		Users:       inmemdb.NewUserRepository(db),
		Courses:     inmemdb.NewCourseRepository(db),
		Enrollments: inmemdb.NewEnrollmentRepository(db),
		Quizzes:     inmemdb.NewQuizRepository(db),
		close:       db.Close,
	}
}
