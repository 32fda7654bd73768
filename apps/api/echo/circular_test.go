package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/circular"
)

func TestCircularApi(t *testing.T) {
	env := setup(t)
	schA := env.createSchool(t, "School A")
	schB := env.createSchool(t, "School B")
	admin := env.createUser(t, "Admin A", "admin.a@test.cd", access.RoleSchoolAdmin, schA.ID, nil)
	commsTeacher := env.createUser(t, "Comms", "comms@test.cd", access.RoleTeacher, schA.ID, []string{"communication"})
	plainTeacher := env.createUser(t, "Plain", "plain@test.cd", access.RoleTeacher, schA.ID, []string{"marks-view"})
	circA := env.createCircular(t, schA.ID, "Sports day")
	circB := env.createCircular(t, schB.ID, "Closed Friday")

	t.Run("list is scoped to the caller's school", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/circulars", getToken(t, admin))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var circs []circular.Circular
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &circs))
		require.Len(t, circs, 1)
		assert.Equal(t, circA.ID, circs[0].ID)
	})

	t.Run("teacher with the communication feature creates one", func(t *testing.T) {
		body := []byte(`{"title": "PTA meeting", "body": "This Saturday.", "audience": "all"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/circulars", getToken(t, commsTeacher), body)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var created circular.Circular
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.Equal(t, schA.ID, created.SchoolID)
		assert.Equal(t, commsTeacher.ID, created.CreatedBy)
	})

	t.Run("teacher without the feature is blocked", func(t *testing.T) {
		body := []byte(`{"title": "Nope", "body": "nope"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/circulars", getToken(t, plainTeacher), body)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

		circs, err := env.circRepo.QueryCirculars(context.Background(), &circular.QueryFilter{SchoolID: schA.ID})
		require.NoError(t, err)
		for _, c := range circs {
			assert.NotEqual(t, "Nope", c.Title)
		}
	})

	t.Run("cross-tenant detail read is forbidden", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/circulars/"+circB.ID, getToken(t, admin))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})

	t.Run("missing ID reads as 404", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/circulars/4d0937dc-295b-4e68-b841-4e0ed89409a4", getToken(t, admin))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("update and delete go through the feature gate", func(t *testing.T) {
		body := []byte(`{"title": "Sports day (updated)"}`)
		req, rec := newAuthRequest(http.MethodPut, "/v1/circulars/"+circA.ID, getToken(t, plainTeacher), body)
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodPut, "/v1/circulars/"+circA.ID, getToken(t, admin), body)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated circular.Circular
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Sports day (updated)", updated.Title)

		req, rec = newAuthRequest(http.MethodDelete, "/v1/circulars/"+circA.ID, getToken(t, admin))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func TestSchoolApi(t *testing.T) {
	env := setup(t)
	schA := env.createSchool(t, "School A")
	schB := env.createSchool(t, "School B")
	super := env.createUser(t, "Root", "root@test.cd", access.RoleSuperAdmin, "", nil)
	admin := env.createUser(t, "Admin A", "admin.a@test.cd", access.RoleSchoolAdmin, schA.ID, nil)

	t.Run("only superadmins list the registry", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schools", getToken(t, admin))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/schools", getToken(t, super))
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("schooladmin reads own school only", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/schools/"+schA.ID, getToken(t, admin))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodGet, "/v1/schools/"+schB.ID, getToken(t, admin))
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("superadmin manages the registry", func(t *testing.T) {
		body := []byte(`{"name": "School C"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/schools", getToken(t, super), body)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})
}
