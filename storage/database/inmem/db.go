// Package inmemdb implements the repositories in memory.
// It enforces the same unique & foreign key constraints, and the same cascades, as the Postgres schema.
package inmemdb

import (
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/core/enrollment"
	"github.com/trezcool/darasa/core/quiz"
	"github.com/trezcool/darasa/core/user"
)

// DB holds every table behind a single lock, so cascades are atomic.
type DB struct {
	mu  sync.RWMutex
	seq map[string]int

	users       map[int]user.User
	courses     map[int]course.Course
	lessons     map[int]course.Lesson
	enrollments map[int]enrollment.Enrollment
	progress    map[int]enrollment.Progress
	quizzes     map[int]quiz.Quiz
	questions   map[int]quiz.Question
	answers     map[int]quiz.Answer
}

func NewDB() *DB {
	db := new(DB)
	db.reset()
	return db
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.reset()
}

func (db *DB) reset() {
	db.seq = make(map[string]int)
	db.users = make(map[int]user.User)
	db.courses = make(map[int]course.Course)
	db.lessons = make(map[int]course.Lesson)
	db.enrollments = make(map[int]enrollment.Enrollment)
	db.progress = make(map[int]enrollment.Progress)
	db.quizzes = make(map[int]quiz.Quiz)
	db.questions = make(map[int]quiz.Question)
	db.answers = make(map[int]quiz.Answer)
}

func (db *DB) Close() error { return nil }

func (db *DB) nextID(table string) int {
	db.seq[table]++
	return db.seq[table]
}

// cascades; callers hold the write lock

func (db *DB) deleteUsers(ids []int) int {
	count := 0
	for _, id := range ids {
		if _, ok := db.users[id]; !ok {
			continue
		}
		var crsIDs []int
		for _, crs := range db.courses {
			if crs.InstructorID == id {
				crsIDs = append(crsIDs, crs.ID)
			}
		}
		db.deleteCourses(crsIDs)
		for eid, enr := range db.enrollments {
			if enr.StudentID == id {
				delete(db.enrollments, eid)
			}
		}
		for pid, prg := range db.progress {
			if prg.StudentID == id {
				delete(db.progress, pid)
			}
		}
		for aid, ans := range db.answers {
			if ans.StudentID == id {
				delete(db.answers, aid)
			}
		}
		delete(db.users, id)
		count++
	}
	return count
}

func (db *DB) deleteCourses(ids []int) int {
	count := 0
	for _, id := range ids {
		if _, ok := db.courses[id]; !ok {
			continue
		}
		var lsnIDs, qzIDs []int
		for _, lsn := range db.lessons {
			if lsn.CourseID == id {
				lsnIDs = append(lsnIDs, lsn.ID)
			}
		}
		for _, qz := range db.quizzes {
			if qz.CourseID == id {
				qzIDs = append(qzIDs, qz.ID)
			}
		}
		db.deleteLessons(lsnIDs)
		db.deleteQuizzes(qzIDs)
		for eid, enr := range db.enrollments {
			if enr.CourseID == id {
				delete(db.enrollments, eid)
			}
		}
		delete(db.courses, id)
		count++
	}
	return count
}

func (db *DB) deleteLessons(ids []int) int {
	count := 0
	for _, id := range ids {
		if _, ok := db.lessons[id]; !ok {
			continue
		}
		for pid, prg := range db.progress {
			if prg.LessonID == id {
				delete(db.progress, pid)
			}
		}
		delete(db.lessons, id)
		count++
	}
	return count
}

func (db *DB) deleteQuizzes(ids []int) int {
	count := 0
	for _, id := range ids {
		if _, ok := db.quizzes[id]; !ok {
			continue
		}
		var qnIDs []int
		for _, qn := range db.questions {
			if qn.QuizID == id {
				qnIDs = append(qnIDs, qn.ID)
			}
		}
		db.deleteQuestions(qnIDs)
		delete(db.quizzes, id)
		count++
	}
	return count
}

func (db *DB) deleteQuestions(ids []int) int {
	count := 0
	for _, id := range ids {
		if _, ok := db.questions[id]; !ok {
			continue
		}
		for aid, ans := range db.answers {
			if ans.QuestionID == id {
				delete(db.answers, aid)
			}
		}
		delete(db.questions, id)
		count++
	}
	return count
}

// ordering

// sortObjects sorts objs by the `db` tagged fields named in ordering, then by ID.
func sortObjects(objs interface{}, ordering []core.DBOrdering) {
	rv := reflect.ValueOf(objs)
	sort.SliceStable(objs, func(i, j int) bool {
		a, b := rv.Index(i), rv.Index(j)
		for _, ord := range ordering {
			c := compare(column(a, ord.Field), column(b, ord.Field))
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return compare(column(a, "id"), column(b, "id")) < 0
	})
}

func column(obj reflect.Value, name string) interface{} {
	typ := obj.Type()
	for i := 0; i < typ.NumField(); i++ {
		if typ.Field(i).Tag.Get("db") == name {
			return obj.Field(i).Interface()
		}
	}
	return nil
}

func compare(a, b interface{}) int {
	switch av := a.(type) {
	case int:
		bv := b.(int)
		if av < bv {
			return -1
		} else if av > bv {
			return 1
		}
	case string:
		return strings.Compare(av, b.(string))
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		} else if !av {
			return -1
		}
		return 1
	case time.Time:
		return compareTimes(av, b.(time.Time))
	case null.Time:
		bv := b.(null.Time)
		switch {
		case !av.Valid && !bv.Valid:
			return 0
		case !av.Valid: // NULLs last
			return 1
		case !bv.Valid:
			return -1
		}
		return compareTimes(av.Time, bv.Time)
	}
	return 0
}

func compareTimes(a, b time.Time) int {
	if a.Before(b) {
		return -1
	} else if a.After(b) {
		return 1
	}
	return 0
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
