package echoapi

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core/access"
)

func TestAccessApi_evaluateTab(t *testing.T) {
	env := setup(t)
	sch := env.createSchool(t, "School A")
	admin := env.createUser(t, "Admin", "admin@test.cd", access.RoleSchoolAdmin, sch.ID, nil)
	teacher := env.createUser(t, "Teacher", "teacher@test.cd", access.RoleTeacher, sch.ID,
		[]string{"attendance-view", "communication"})
	student := env.createUser(t, "Kid", "kid@test.cd", access.RoleStudent, sch.ID, nil)

	getDecision := func(t *testing.T, token, tab string) access.Decision {
		t.Helper()
		req, rec := newAuthRequest(http.MethodGet, "/v1/access/tabs?tab="+tab, token)
		env.app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var raw struct {
			Verdict string `json:"verdict"`
			Target  string `json:"target"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))

		var verdict access.Verdict
		for v := access.VerdictPending; v <= access.VerdictDenyInline; v++ {
			if v.String() == raw.Verdict {
				verdict = v
			}
		}
		return access.Decision{Verdict: verdict, Target: raw.Target}
	}

	tests := []struct {
		name  string
		token string
		tab   string
		want  access.Decision
	}{
		{"admin passes any tab", getToken(t, admin), "payments", access.Decision{Verdict: access.VerdictAllow}},
		{"teacher passes held feature", getToken(t, teacher), "attendance", access.Decision{Verdict: access.VerdictAllow}},
		{"tab aliases resolve to the governing feature", getToken(t, teacher), "circulars", access.Decision{Verdict: access.VerdictAllow}},
		{"dashboard is always available to teachers", getToken(t, teacher), "dashboard", access.Decision{Verdict: access.VerdictAllow}},
		{"teacher denied missing feature stays in portal", getToken(t, teacher), "payments",
			access.Decision{Verdict: access.VerdictDenyInline, Target: access.FallbackTab}},
		{"blank tab means no restriction", getToken(t, teacher), "", access.Decision{Verdict: access.VerdictAllow}},
		{"students are redirected away", getToken(t, student), "marks",
			access.Decision{Verdict: access.VerdictRedirectUnauthorized, Target: access.UnauthorizedPath}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, getDecision(t, tt.token, tt.tab))
		})
	}

	t.Run("decisions are stable across repeated evaluation", func(t *testing.T) {
		token := getToken(t, teacher)
		first := getDecision(t, token, "payments")
		second := getDecision(t, token, "payments")
		assert.Equal(t, first, second)
	})

	t.Run("unauthenticated callers get 401", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/v1/access/tabs?tab=marks")
		env.app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAccessApi_queryFeatures(t *testing.T) {
	env := setup(t)
	sch := env.createSchool(t, "School A")
	admin := env.createUser(t, "Admin", "admin@test.cd", access.RoleSchoolAdmin, sch.ID, nil)

	req, rec := newAuthRequest(http.MethodGet, "/v1/access/features", getToken(t, admin))
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var features []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &features))
	assert.Len(t, features, len(access.AllFeatures))
	assert.Contains(t, features, "attendance-view")
	assert.Contains(t, features, "tc")
}
