package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/course"
	"github.com/trezcool/darasa/testutil"
)

var (
	errOnlyInstructors = httpErr{Error: "only instructors can create courses"}
	errNotCourseOwner  = httpErr{Error: "only the course instructor can perform this action"}
)

func Test_courseApi(t *testing.T) {
	env := setup(t)
	urepo, crepo := env.repos.Users, env.repos.Courses

	teacher := testutil.CreateUser(t, urepo, "teacher", "teacher@test.cd", "", true, false, true)
	other := testutil.CreateUser(t, urepo, "other", "other@test.cd", "", true, false, true)
	student := testutil.CreateUser(t, urepo, "student", "student@test.cd", "", false, false, true)
	admin := testutil.CreateUser(t, urepo, "admin", "admin@test.cd", "", false, true, true)

	goCrs := testutil.CreateCourse(t, crepo, teacher, "Go")
	pyCrs := testutil.CreateCourse(t, crepo, other, "Python")
	dbCrs := testutil.CreateCourse(t, crepo, teacher, "Databases")

	teacherToken := getToken(t, env.conf, teacher)
	otherToken := getToken(t, env.conf, other)
	studentToken := getToken(t, env.conf, student)

	env.run(t, []httpTest{
		{name: "Auth required", path: "/api/courses", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "list", path: "/api/courses", token: studentToken, wantData: marchallList(t, goCrs, pyCrs, dbCrs)},
		{name: "list by title", path: "/api/courses?ordering=title", token: studentToken, wantData: marchallList(t, dbCrs, goCrs, pyCrs)},
		{
			name: "filter by instructor", path: "/api/courses?instructor=" + itoa(teacher.ID), token: studentToken,
			wantData: marchallList(t, goCrs, dbCrs),
		},
		{name: "search", path: "/api/courses?search=pyth", token: studentToken, wantData: marchallList(t, pyCrs)},
		{name: "retrieve", path: "/api/courses/" + itoa(goCrs.ID), token: studentToken, wantData: marchallObj(t, goCrs)},
		{
			name: "retrieve: not found", path: "/api/courses/999", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "course not found"}),
		},
		{
			name: "retrieve: invalid id", path: "/api/courses/lol", token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "create: instructors only", method: http.MethodPost, path: "/api/courses", token: studentToken,
			body: []byte(`{"title": "Hacking", "description": "lol"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errOnlyInstructors),
		},
		{
			name: "create: admins are not instructors", method: http.MethodPost, path: "/api/courses", token: getToken(t, env.conf, admin),
			body: []byte(`{"title": "Hacking", "description": "lol"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errOnlyInstructors),
		},
		{
			name: "create: invalid", method: http.MethodPost, path: "/api/courses", token: teacherToken,
			body: []byte(`{"title": "   "}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"title": "this field is required", "description": "this field is required"}`),
		},
		{
			name: "create: wrong field type", method: http.MethodPost, path: "/api/courses", token: teacherToken,
			body: []byte(`{"title": 5, "description": "lol"}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"title": "invalid type, expected string"}`),
		},
		{
			name: "update: owner only", method: http.MethodPatch, path: "/api/courses/" + itoa(goCrs.ID), token: otherToken,
			body: []byte(`{"title": "Mine now"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errNotCourseOwner),
		},
		{
			name: "delete: owner only", method: http.MethodDelete, path: "/api/courses/" + itoa(goCrs.ID), token: otherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errNotCourseOwner),
		},
		{name: "delete: missing", method: http.MethodDelete, path: "/api/courses/999", token: teacherToken, wantCode: http.StatusNoContent},
	})

	t.Run("create: the instructor is the requester", func(t *testing.T) {
		body := []byte(`{"title": " Rust ", "description": "Learn Rust", "instructor": ` + itoa(other.ID) + `}`)
		req, rec := newAuthRequest(http.MethodPost, "/api/courses", teacherToken, body)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got course.Course
		decode(t, rec, &got)
		assert.Equal(t, "Rust", got.Title)
		assert.Equal(t, teacher.Summary(), got.Instructor)
	})

	t.Run("PATCH keeps the other fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, "/api/courses/"+itoa(goCrs.ID), teacherToken, []byte(`{"title": "Go 101"}`))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got course.Course
		decode(t, rec, &got)
		assert.Equal(t, "Go 101", got.Title)
		assert.Equal(t, goCrs.Description, got.Description)
		assert.Equal(t, teacher.Summary(), got.Instructor)
	})

	t.Run("PUT replaces every field", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPut, "/api/courses/"+itoa(goCrs.ID), teacherToken, []byte(`{"title": "Go 102"}`))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"description": "this field is required"}`, rec.Body.String())
	})

	t.Run("admins manage every course", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, "/api/courses/"+itoa(pyCrs.ID), getToken(t, env.conf, admin), []byte(`{"description": "Snakes"}`))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got course.Course
		decode(t, rec, &got)
		assert.Equal(t, "Snakes", got.Description)
		assert.Equal(t, other.Summary(), got.Instructor)
	})
}

func Test_courseApi_cascadeDelete(t *testing.T) {
	env := setup(t)
	teacher := testutil.CreateUser(t, env.repos.Users, "teacher", "", "", true, false, true)
	student := testutil.CreateUser(t, env.repos.Users, "student", "", "", false, false, true)

	crs := testutil.CreateCourse(t, env.repos.Courses, teacher, "Go")
	lsn := testutil.CreateLesson(t, env.repos.Courses, crs, "Basics")
	enr := testutil.CreateEnrollment(t, env.repos.Enrollments, student, crs)
	prg := testutil.CreateProgress(t, env.repos.Enrollments, student, lsn)
	qz := testutil.CreateQuiz(t, env.repos.Quizzes, crs, "Basics quiz")
	qn := testutil.CreateQuestion(t, env.repos.Quizzes, qz, "2+2?", "4")
	ans := testutil.CreateAnswer(t, env.repos.Quizzes, student, qn, "4")

	req, rec := newAuthRequest(http.MethodDelete, "/api/courses/"+itoa(crs.ID), getToken(t, env.conf, teacher))
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	adminToken := getToken(t, env.conf, testutil.CreateUser(t, env.repos.Users, "admin", "", "", false, true, true))
	notFound := func(resource string) []byte { return marchallObj(t, httpErr{Error: resource + " not found"}) }
	env.run(t, []httpTest{
		{name: "course", path: "/api/courses/" + itoa(crs.ID), token: adminToken, wantCode: http.StatusNotFound, wantData: notFound("course")},
		{name: "lesson", path: "/api/lessons/" + itoa(lsn.ID), token: adminToken, wantCode: http.StatusNotFound, wantData: notFound("lesson")},
		{name: "enrollment", path: "/api/enrollments/" + itoa(enr.ID), token: adminToken, wantCode: http.StatusNotFound, wantData: notFound("enrollment")},
		{name: "progress", path: "/api/progress/" + itoa(prg.ID), token: adminToken, wantCode: http.StatusNotFound, wantData: notFound("progress")},
		{name: "quiz", path: "/api/quizzes/" + itoa(qz.ID), token: adminToken, wantCode: http.StatusNotFound, wantData: notFound("quiz")},
		{name: "question", path: "/api/questions/" + itoa(qn.ID), token: adminToken, wantCode: http.StatusNotFound, wantData: notFound("question")},
		{name: "answer", path: "/api/answers/" + itoa(ans.ID), token: adminToken, wantCode: http.StatusNotFound, wantData: notFound("answer")},
		{name: "the student survives", path: "/api/users/" + itoa(student.ID), token: adminToken, wantData: marchallObj(t, student)},
	})
}

func Test_lessonApi(t *testing.T) {
	env := setup(t)
	urepo, crepo := env.repos.Users, env.repos.Courses

	teacher := testutil.CreateUser(t, urepo, "teacher", "", "", true, false, true)
	other := testutil.CreateUser(t, urepo, "other", "", "", true, false, true)
	student := testutil.CreateUser(t, urepo, "student", "", "", false, false, true)

	goCrs := testutil.CreateCourse(t, crepo, teacher, "Go")
	pyCrs := testutil.CreateCourse(t, crepo, other, "Python")
	lsn1 := testutil.CreateLesson(t, crepo, goCrs, "Basics")
	lsn2 := testutil.CreateLesson(t, crepo, pyCrs, "Indentation")
	lsn3 := testutil.CreateLesson(t, crepo, goCrs, "Advanced")

	teacherToken := getToken(t, env.conf, teacher)
	otherToken := getToken(t, env.conf, other)
	studentToken := getToken(t, env.conf, student)

	env.run(t, []httpTest{
		{name: "list", path: "/api/lessons", token: studentToken, wantData: marchallList(t, lsn1, lsn2, lsn3)},
		{name: "filter by course", path: "/api/lessons?course=" + itoa(goCrs.ID), token: studentToken, wantData: marchallList(t, lsn1, lsn3)},
		{name: "order by -title", path: "/api/lessons?ordering=-title", token: studentToken, wantData: marchallList(t, lsn2, lsn1, lsn3)},
		{name: "retrieve", path: "/api/lessons/" + itoa(lsn2.ID), token: studentToken, wantData: marchallObj(t, lsn2)},
		{
			name: "create: course owner only", method: http.MethodPost, path: "/api/lessons", token: otherToken,
			body:     []byte(`{"course": ` + itoa(goCrs.ID) + `, "title": "Mine", "content": "lol"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errNotCourseOwner),
		},
		{
			name: "create: students cannot", method: http.MethodPost, path: "/api/lessons", token: studentToken,
			body:     []byte(`{"course": ` + itoa(goCrs.ID) + `, "title": "Mine", "content": "lol"}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errNotCourseOwner),
		},
		{
			name: "create: unknown course", method: http.MethodPost, path: "/api/lessons", token: teacherToken,
			body:     []byte(`{"course": 999, "title": "Lost", "content": "lol"}`),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"course": core.InvalidPKText(999)}),
		},
		{
			name: "create: invalid", method: http.MethodPost, path: "/api/lessons", token: teacherToken,
			body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: []byte(`{"course": "this field is required", "title": "this field is required", "content": "this field is required"}`),
		},
		{
			name: "update: course owner only", method: http.MethodPatch, path: "/api/lessons/" + itoa(lsn1.ID), token: otherToken,
			body: []byte(`{"title": "Mine"}`), wantCode: http.StatusForbidden, wantData: marchallObj(t, errNotCourseOwner),
		},
		{
			name: "update: cannot move to a course owned by someone else", method: http.MethodPatch, path: "/api/lessons/" + itoa(lsn1.ID),
			token: teacherToken, body: []byte(`{"course": ` + itoa(pyCrs.ID) + `}`),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errNotCourseOwner),
		},
		{
			name: "delete: course owner only", method: http.MethodDelete, path: "/api/lessons/" + itoa(lsn2.ID), token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errNotCourseOwner),
		},
		{name: "delete", method: http.MethodDelete, path: "/api/lessons/" + itoa(lsn3.ID), token: teacherToken, wantCode: http.StatusNoContent},
		{
			name: "deleted", path: "/api/lessons/" + itoa(lsn3.ID), token: teacherToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "lesson not found"}),
		},
	})

	t.Run("create", func(t *testing.T) {
		body := []byte(`{"course": ` + itoa(goCrs.ID) + `, "title": " Channels ", "content": "Do not communicate by sharing memory"}`)
		req, rec := newAuthRequest(http.MethodPost, "/api/lessons", teacherToken, body)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var got course.Lesson
		decode(t, rec, &got)
		assert.NotZero(t, got.ID)
		assert.Equal(t, goCrs.ID, got.CourseID)
		assert.Equal(t, "Channels", got.Title)
	})

	t.Run("PATCH keeps the other fields", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPatch, "/api/lessons/"+itoa(lsn1.ID), teacherToken, []byte(`{"content": "Hello, World"}`))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var got course.Lesson
		decode(t, rec, &got)
		assert.Equal(t, course.Lesson{ID: lsn1.ID, CourseID: goCrs.ID, Title: lsn1.Title, Content: "Hello, World"}, got)
	})
}
