package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/barangayconnect/internal/common"
)

// Update edits the signed-in user's cached record. Enter keeps a value.
// Resident edits are pushed by the next sync pass.
func (a *App) Update(ctx context.Context) error {
	rec, err := a.authService.CurrentRecord(ctx)
	if err != nil {
		printlnFn("Update failed:", describeError(err))
		return err
	}

	fields := []struct {
		prompt string
		dst    *string
	}{
		{"First name", &rec.FirstName},
		{"Middle name", &rec.MiddleName},
		{"Last name", &rec.LastName},
		{"Date of birth", &rec.DOB},
		{"Gender", &rec.Gender},
		{"Civil status", &rec.CivilStatus},
		{"Purok", &rec.Purok},
		{"Barangay", &rec.Barangay},
		{"City", &rec.City},
		{"Province", &rec.Province},
		{"Postal code", &rec.PostalCode},
	}
	for _, f := range fields {
		v, err := getWithDefault(a.reader, f.prompt, *f.dst, a.out)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	path, err := a.ask("New photo file path (Enter to keep)")
	if err != nil {
		return err
	}
	if photo, err := ReadPhoto(path); err != nil {
		printlnFn("Could not read photo:", err)
		return err
	} else if photo != "" {
		rec.Photo = photo
	}

	change, err := a.ask("Change password? (y/N)")
	if err != nil {
		return err
	}
	var password []byte
	if strings.EqualFold(change, "y") {
		if password, err = getPassword(a.out); err != nil {
			return err
		}
		defer common.WipeByteArray(password)
	}

	if err := a.authService.UpdateUser(ctx, rec, string(password)); err != nil {
		printlnFn("Update failed:", describeError(err))
		return err
	}

	if rec.Role.IsStaff() {
		printlnFn("Saved.")
		return nil
	}
	printlnFn("Saved locally. It will be sent to the barangay office on the next sync.")
	if a.Mode() == ModeOnline {
		go a.backgroundSync(context.WithoutCancel(ctx))
	}
	return nil
}

// List prints every account cached on this device.
func (a *App) List(ctx context.Context) error {
	list, err := a.authService.AllRegistrations(ctx)
	if err != nil {
		printlnFn("List failed:", describeError(err))
		return err
	}
	if len(list) == 0 {
		printlnFn("No local registrations.")
		return nil
	}

	printlnFn(fmt.Sprintf("%-5s %-7s %-30s %-12s %-10s %-9s %s", "LOCAL", "REMOTE", "NAME", "CONTACT", "ROLE", "STATUS", "SYNC"))
	for _, r := range list {
		remote := "-"
		if r.RemoteID != nil {
			remote = fmt.Sprint(*r.RemoteID)
		}
		local := "-"
		if r.LocalID != 0 {
			local = fmt.Sprint(r.LocalID)
		}
		sync := r.Sync.String()
		if r.Role.IsStaff() {
			sync = "-"
		}
		printlnFn(fmt.Sprintf("%-5s %-7s %-30s %-12s %-10s %-9s %s",
			local, remote, r.FullName(), r.Contact, r.Role, r.Status, sync))
	}
	return nil
}

// DupCheck reports whether a contact or a full name is already registered on
// this device. Remote uniqueness is only decided at registration time.
func (a *App) DupCheck(ctx context.Context) error {
	contactNo, err := a.ask("Contact number (Enter to skip)")
	if err != nil {
		return err
	}
	if contactNo != "" {
		dup, err := a.authService.IsDuplicateContact(ctx, contactNo)
		if err != nil {
			printlnFn("Check failed:", describeError(err))
			return err
		}
		printlnFn(fmt.Sprintf("Contact registered locally: %t", dup))
	}

	first, err := a.ask("First name (Enter to skip)")
	if err != nil || first == "" {
		return err
	}
	middle, err := a.ask("Middle name")
	if err != nil {
		return err
	}
	last, err := a.ask("Last name")
	if err != nil {
		return err
	}
	dup, err := a.authService.IsDuplicateName(ctx, first, middle, last)
	if err != nil {
		printlnFn("Check failed:", describeError(err))
		return err
	}
	printlnFn(fmt.Sprintf("Name registered locally: %t", dup))
	return nil
}

// Sync runs a sync pass in the foreground.
func (a *App) Sync(ctx context.Context) error {
	report, err := a.syncService.Sync(ctx)
	if err != nil {
		printlnFn("Sync failed:", describeError(err))
		return err
	}
	if !report.Ran {
		printlnFn("Sync skipped: offline or already running.")
		return nil
	}
	printlnFn(fmt.Sprintf("Sync done: %d pushed, %d failed, %d skipped.", report.Pushed, report.Failed, report.Skipped))
	return nil
}
