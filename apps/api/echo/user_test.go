package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/user"
)

func TestUserApi_login(t *testing.T) {
	env := setup(t)
	sch := env.createSchool(t, "Mwalimu Academy")
	usr := env.createUser(t, "Jane Admin", "jane@test.cd", access.RoleSchoolAdmin, sch.ID, nil)

	tests := []httpTest{
		{
			name:     "empty credentials",
			body:     []byte(`{}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown email",
			body:     []byte(`{"email": "nobody@test.cd", "password": "V3ryS3cr3t!"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     []byte(`{"email": "jane@test.cd", "password": "nope"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "valid credentials",
			body:     []byte(`{"email": "jane@test.cd", "password": "V3ryS3cr3t!"}`),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			env.app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
				var res LoginResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
				assert.NotEmpty(t, res.Token)
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("deactivated account", func(t *testing.T) {
		usr.SetActive(false)
		_, err := env.usrRepo.UpdateUser(context.Background(), user.User{ID: usr.ID}, usr.IsActive)
		require.NoError(t, err)

		req, rec := newRequest(http.MethodPost, "/v1/users/login",
			[]byte(`{"email": "jane@test.cd", "password": "V3ryS3cr3t!"}`))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestUserApi_authRequired(t *testing.T) {
	env := setup(t)

	tests := []httpTest{
		{name: "query users", method: http.MethodGet, path: "/v1/users"},
		{name: "retrieve user", method: http.MethodGet, path: "/v1/users/xyz"},
		{name: "create user", method: http.MethodPost, path: "/v1/users/register"},
		{name: "refresh token", method: http.MethodPost, path: "/v1/users/token-refresh"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path)
			env.app.ServeHTTP(rec, req)
			tt.wantCode = http.StatusUnauthorized
			tt.wantData = marchallObj(t, errMissingToken)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestUserApi_teacherCreatesStudent(t *testing.T) {
	env := setup(t)
	sch := env.createSchool(t, "Tumaini High")
	teacher := env.createUser(t, "Mr Banza", "banza@test.cd", access.RoleTeacher, sch.ID,
		[]string{"attendance-view", "marks-view"})
	token := getToken(t, teacher)

	countUsers := func(t *testing.T) int {
		users, err := env.usrRepo.QueryUsers(context.Background(), nil, nil)
		require.NoError(t, err)
		return len(users)
	}

	t.Run("subset of held features is accepted", func(t *testing.T) {
		body := []byte(`{
			"name": "Junior Kalala",
			"email": "junior@test.cd",
			"password": "Str0ng&Sane",
			"password_confirm": "Str0ng&Sane",
			"role": "STUDENT",
			"allowed_features": ["attendance-view"]
		}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", token, body)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		// tenant is forced to the teacher's school
		assert.Equal(t, sch.ID, created.SchoolID)
		assert.Equal(t, access.RoleStudent, created.Role)
	})

	t.Run("features not held are all reported and nothing is created", func(t *testing.T) {
		before := countUsers(t)

		body := []byte(`{
			"name": "Miriam Kasongo",
			"email": "miriam@test.cd",
			"password": "Str0ng&Sane",
			"password_confirm": "Str0ng&Sane",
			"role": "STUDENT",
			"allowed_features": ["attendance-view", "payments", "tc"]
		}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", token, body)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

		var res struct {
			Message string   `json:"message"`
			Invalid []string `json:"invalid"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "you cannot grant features you do not hold", res.Message)
		assert.ElementsMatch(t, []string{"payments", "tc"}, res.Invalid)
		assert.Equal(t, before, countUsers(t))
	})

	t.Run("teachers cannot create non-student accounts", func(t *testing.T) {
		before := countUsers(t)

		body := []byte(`{
			"name": "Other Teacher",
			"email": "other@test.cd",
			"password": "Str0ng&Sane",
			"password_confirm": "Str0ng&Sane",
			"role": "TEACHER"
		}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", token, body)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

		var res struct {
			Message string `json:"message"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "teachers can only create student accounts", res.Message)
		assert.Equal(t, before, countUsers(t))
	})
}

func TestUserApi_createRoleCaps(t *testing.T) {
	env := setup(t)
	sch := env.createSchool(t, "Tumaini High")
	schAdmin := env.createUser(t, "Head", "head@test.cd", access.RoleSchoolAdmin, sch.ID, nil)
	student := env.createUser(t, "Kid", "kid@test.cd", access.RoleStudent, sch.ID, nil)

	t.Run("students may not create accounts", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, student),
			[]byte(`{"name": "X", "email": "x@test.cd", "password": "Str0ng&Sane", "password_confirm": "Str0ng&Sane", "role": "STUDENT"}`))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("schooladmin cannot mint superadmins", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, schAdmin),
			[]byte(`{"name": "X", "email": "x@test.cd", "password": "Str0ng&Sane", "password_confirm": "Str0ng&Sane", "role": "SUPERADMIN"}`))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("schooladmin creates a teacher in their school", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", getToken(t, schAdmin),
			[]byte(`{"name": "T", "email": "t@test.cd", "password": "Str0ng&Sane", "password_confirm": "Str0ng&Sane", "role": "TEACHER"}`))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, sch.ID, created.SchoolID)
	})
}

func TestUserApi_tenantIsolation(t *testing.T) {
	env := setup(t)
	schA := env.createSchool(t, "School A")
	schB := env.createSchool(t, "School B")
	adminA := env.createUser(t, "Admin A", "admin.a@test.cd", access.RoleSchoolAdmin, schA.ID, nil)
	adminB := env.createUser(t, "Admin B", "admin.b@test.cd", access.RoleSchoolAdmin, schB.ID, nil)
	studentB := env.createUser(t, "Student B", "student.b@test.cd", access.RoleStudent, schB.ID, nil)
	super := env.createUser(t, "Root", "root@test.cd", access.RoleSuperAdmin, "", nil)

	t.Run("cross-tenant read is forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+studentB.ID, getToken(t, adminA))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})

	t.Run("missing ID reads as 404 even cross-tenant", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/4d0937dc-295b-4e68-b841-4e0ed89409a4", getToken(t, adminA))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("same-tenant read succeeds", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+studentB.ID, getToken(t, adminB))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("superadmin reads across tenants", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users/"+studentB.ID, getToken(t, super))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("query is scoped to the caller's school", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/users", getToken(t, adminB))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var users []user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
		for _, u := range users {
			assert.Equal(t, schB.ID, u.SchoolID)
		}
		assert.Len(t, users, 2) // adminB + studentB
	})
}

func TestUserApi_selfDelete(t *testing.T) {
	env := setup(t)
	sch := env.createSchool(t, "School A")
	admin := env.createUser(t, "Admin", "admin@test.cd", access.RoleSchoolAdmin, sch.ID, nil)
	other := env.createUser(t, "Other", "other@test.cd", access.RoleStudent, sch.ID, nil)
	token := getToken(t, admin)

	t.Run("deleting own account is rejected", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+admin.ID, token)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

		// still there
		_, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: admin.ID})
		assert.NoError(t, err)
	})

	t.Run("non-admin hits the role guard before the self check", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+other.ID, getToken(t, other))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})

	t.Run("deleting another account succeeds", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/users/"+other.ID, token)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		_, err := env.usrRepo.GetUser(context.Background(), user.GetFilter{ID: other.ID})
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestUserApi_update(t *testing.T) {
	env := setup(t)
	sch := env.createSchool(t, "School A")
	admin := env.createUser(t, "Admin", "admin@test.cd", access.RoleSchoolAdmin, sch.ID, nil)
	teacher := env.createUser(t, "Teacher", "teacher@test.cd", access.RoleTeacher, sch.ID, []string{"marks-view"})

	t.Run("admin grants features to a teacher", func(t *testing.T) {
		body := []byte(`{"allowed_features": ["marks-view", "marks-entry"]}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+teacher.ID, getToken(t, admin), body)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.ElementsMatch(t, []string{"marks-view", "marks-entry"}, updated.AllowedFeatures)
	})

	t.Run("non-admin cannot change their own allow-list", func(t *testing.T) {
		body := []byte(`{"allowed_features": ["payments"]}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+teacher.ID, getToken(t, teacher), body)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})

	t.Run("non-admin updates own profile", func(t *testing.T) {
		body := []byte(`{"mobile": "+243812345678"}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/users/"+teacher.ID, getToken(t, teacher), body)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated user.User
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "+243812345678", updated.Mobile)
	})
}

func TestUserApi_tokenRefreshPicksUpGrants(t *testing.T) {
	env := setup(t)
	sch := env.createSchool(t, "School A")
	teacher := env.createUser(t, "Teacher", "teacher@test.cd", access.RoleTeacher, sch.ID, []string{"marks-view"})
	token := getToken(t, teacher)

	// admin grants a new feature after the token was issued
	_, err := env.usrRepo.UpdateUser(context.Background(), user.User{
		ID:              teacher.ID,
		AllowedFeatures: []string{"marks-view", "payments"},
	}, nil)
	require.NoError(t, err)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	// the fresh token unlocks the new feature
	req, rec = newAuthRequest(http.MethodGet, "/v1/access/tabs?tab=payments", res.Token)
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var decision struct {
		Verdict string `json:"verdict"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decision))
	assert.Equal(t, "allow", decision.Verdict)
}

func TestUserApi_queryRoles(t *testing.T) {
	env := setup(t)
	sch := env.createSchool(t, "School A")
	admin := env.createUser(t, "Admin", "admin@test.cd", access.RoleSchoolAdmin, sch.ID, nil)
	student := env.createUser(t, "Kid", "kid@test.cd", access.RoleStudent, sch.ID, nil)

	req, rec := newAuthRequest(http.MethodGet, "/v1/users/roles", getToken(t, admin))
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var choices []access.RoleChoice
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &choices))
	assert.Len(t, choices, len(access.AllRoles))

	req, rec = newAuthRequest(http.MethodGet, "/v1/users/roles", getToken(t, student))
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
