package user

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
)

func validationTags(t *testing.T, err error) []string {
	t.Helper()
	if err == nil {
		return nil
	}
	vErrs, ok := errors.Cause(err).(validator.ValidationErrors)
	if !ok {
		t.Fatalf("expected validator.ValidationErrors, got %T: %v", err, err)
	}
	tags := make([]string, 0, len(vErrs))
	for _, fe := range vErrs {
		tags = append(tags, fe.Tag())
	}
	return tags
}

func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func TestPasswordPolicy(t *testing.T) {
	tests := []struct {
		name    string
		usrName string
		email   string
		pwd     string
		wantTag string // empty: password accepted
	}{
		{name: "too short", email: "t@test.test", pwd: "Sh0rt!", wantTag: pwdMinLenTag},
		{name: "whitespace", email: "t@test.test", pwd: "Pass word1!", wantTag: pwdNoSpaceTag},
		{name: "all numeric", email: "t@test.test", pwd: "123456789", wantTag: pwdNotAllNumTag},
		{name: "no complexity", email: "t@test.test", pwd: "abcdefgh", wantTag: pwdComplexityTag},
		{name: "similar to email", usrName: "Jane Doe", email: "jane.doe@test.test", pwd: "Jane.doe@test1", wantTag: pwdAttrSimTag},
		{name: "common password", usrName: "Someone", email: "some@one.com", pwd: "P@ssw0rd", wantTag: pwdNoCommonTag},
		{name: "valid", usrName: "Jane Doe", email: "jane.doe@test.test", pwd: "V3ryS3cr3t!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nu := NewUser{
				Name:            tt.usrName,
				Email:           tt.email,
				Password:        tt.pwd,
				PasswordConfirm: tt.pwd,
				Role:            access.RoleStudent,
			}
			tags := validationTags(t, core.Validate.Struct(&nu))
			if tt.wantTag == "" {
				if len(tags) > 0 {
					t.Errorf("expected password to be accepted, got tags %v", tags)
				}
				return
			}
			if !containsTag(tags, tt.wantTag) {
				t.Errorf("expected tag %q, got %v", tt.wantTag, tags)
			}
		})
	}
}

func TestRoleAndFeatureTags(t *testing.T) {
	nu := NewUser{
		Name:            "Jane Doe",
		Email:           "jane.doe@test.test",
		Password:        "V3ryS3cr3t!",
		PasswordConfirm: "V3ryS3cr3t!",
		Role:            access.Role("BOGUS"),
	}
	if tags := validationTags(t, core.Validate.Struct(&nu)); !containsTag(tags, roleTag) {
		t.Errorf("expected tag %q, got %v", roleTag, tags)
	}

	nu.Role = access.RoleTeacher
	nu.AllowedFeatures = []string{"attendance-view", "bogus"}
	if tags := validationTags(t, core.Validate.Struct(&nu)); !containsTag(tags, featuresTag) {
		t.Errorf("expected tag %q, got %v", featuresTag, tags)
	}

	nu.AllowedFeatures = []string{"attendance-view", "marks-entry"}
	if tags := validationTags(t, core.Validate.Struct(&nu)); len(tags) > 0 {
		t.Errorf("expected valid user, got tags %v", tags)
	}
}
