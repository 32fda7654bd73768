package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/access"
	"github.com/trezcool/shule/core/user"
)

// grantFeatures replaces a teacher's feature allow-list. Sessions pick the
// new list up on their next token refresh.
func (cli *commandLine) grantFeatures(email string, features []string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: core.CleanString(email, true /* lower */)})
	if err != nil {
		return err
	}
	if !usr.IsTeacher() {
		return fmt.Errorf("%s is not a teacher account", usr.Email)
	}

	for i, f := range features {
		features[i] = core.CleanString(f, true /* lower */)
	}
	features = access.NormalizeFeatures(features) // tab aliases resolve to canonical ids
	if invalid := access.InvalidFeatures(features); len(invalid) > 0 {
		return fmt.Errorf("unknown features: %s", strings.Join(invalid, ", "))
	}

	usr.AllowedFeatures = features
	usr.UpdatedAt = time.Now().UTC()
	if _, err := cli.usrRepo.UpdateUser(ctx, usr, nil); err != nil {
		return err
	}
	return nil
}
