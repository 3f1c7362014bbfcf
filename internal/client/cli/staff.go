package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
)

// Users lists registrations known to the remote authority.
func (a *App) Users(ctx context.Context) error {
	users, err := a.staffService.ListUsers(ctx)
	if err != nil {
		printlnFn("Could not list users:", describeError(err))
		return err
	}
	printlnFn(fmt.Sprintf("%-6s %-30s %-12s %-10s %s", "ID", "NAME", "CONTACT", "ROLE", "STATUS"))
	for _, u := range users {
		id := "-"
		if u.ID != nil {
			id = strconv.FormatInt(*u.ID, 10)
		}
		p := u.Profile()
		printlnFn(fmt.Sprintf("%-6s %-30s %-12s %-10s %s", id, p.FullName(), deref(u.Contact), deref(u.Role), deref(u.Status)))
	}
	return nil
}

func (a *App) Approve(ctx context.Context, arg string) error {
	return a.review(ctx, arg, a.staffService.Approve)
}

func (a *App) Reject(ctx context.Context, arg string) error {
	return a.review(ctx, arg, a.staffService.Reject)
}

func (a *App) review(ctx context.Context, arg string, fn func(context.Context, int64) (*models.RemoteUser, error)) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	u, err := fn(ctx, id)
	if err != nil {
		printlnFn("Review failed:", describeError(err))
		return err
	}
	printlnFn(fmt.Sprintf("User %d is now %s.", id, deref(u.Status)))
	return nil
}

// Remove deletes a registration on the remote authority.
func (a *App) Remove(ctx context.Context, arg string) error {
	id, err := parseID(arg)
	if err != nil {
		return err
	}
	if err := a.staffService.Delete(ctx, id); err != nil {
		printlnFn("Delete failed:", describeError(err))
		return err
	}
	printlnFn(fmt.Sprintf("User %d deleted.", id))
	return nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		printlnFn("Usage: <command> <user id>")
		return 0, fmt.Errorf("invalid user id %q", arg)
	}
	return id, nil
}
