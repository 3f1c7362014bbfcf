package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
	"github.com/dmitrijs2005/barangayconnect/internal/client/services"
	"github.com/dmitrijs2005/barangayconnect/internal/common"
)

// getSimpleText, getWithDefault and getPassword are indirections used to
// facilitate testing.
var (
	getSimpleText  = GetSimpleText
	getWithDefault = GetWithDefault
	getPassword    = GetPassword
)

func (a *App) ask(prompt string) (string, error) {
	return getSimpleText(a.reader, prompt, a.out)
}

// Register collects the registration form, rejects contacts and names that
// already exist on this device, submits the form and caches the result so
// the same person can later log in offline.
func (a *App) Register(ctx context.Context) error {
	form, err := a.readRegistrationForm()
	if err != nil {
		return err
	}

	if dup, err := a.authService.IsDuplicateContact(ctx, form.Contact); err == nil && dup {
		printlnFn("This contact number is already registered on this device.")
		return nil
	}
	if dup, err := a.authService.IsDuplicateName(ctx, form.FirstName, form.MiddleName, form.LastName); err == nil && dup {
		printlnFn("A resident with the same name is already registered on this device.")
		return nil
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	form.Password = string(password)

	u, err := a.authService.Register(ctx, form)
	if err != nil {
		printlnFn("Registration failed:", describeError(err))
		return err
	}
	if err := a.authService.SaveOfflineCopy(ctx, u, form.Password); err != nil {
		a.logger.Warn(ctx, "offline copy not saved", "error", err)
	}

	p := u.Profile()
	printlnFn(fmt.Sprintf("Registered %s. Status: %s", p.FullName(), deref(u.Status)))
	return nil
}

func (a *App) readRegistrationForm() (models.RegistrationForm, error) {
	var form models.RegistrationForm

	fields := []struct {
		prompt string
		dst    *string
	}{
		{"First name", &form.FirstName},
		{"Middle name (optional)", &form.MiddleName},
		{"Last name", &form.LastName},
		{"Date of birth (YYYY-MM-DD)", &form.DOB},
		{"Gender", &form.Gender},
		{"Civil status", &form.CivilStatus},
		{"Contact number", &form.Contact},
		{"Purok", &form.Purok},
		{"Barangay", &form.Barangay},
		{"City", &form.City},
		{"Province", &form.Province},
		{"Postal code", &form.PostalCode},
		{"Role (resident, secretary, captain) [resident]", &form.Role},
	}
	for _, f := range fields {
		v, err := a.ask(f.prompt)
		if err != nil {
			return form, err
		}
		*f.dst = v
	}

	path, err := a.ask("Photo file path")
	if err != nil {
		return form, err
	}
	if form.Photo, err = ReadPhoto(path); err != nil {
		printlnFn("Could not read photo:", err)
		return form, err
	}
	return form, nil
}

// Login authenticates against the remote authority. It never falls back to
// the local cache on its own; when offline it points the user to "offline".
func (a *App) Login(ctx context.Context) error {
	contactNo, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, err := a.authService.Login(ctx, contactNo, string(password))
	if err != nil {
		printlnFn("Login failed:", describeError(err))
		if errors.Is(err, services.ErrOffline) {
			a.setMode(ModeOffline)
			printlnFn("Use 'offline' to log in with the credentials cached on this device.")
		}
		return err
	}

	a.setMode(ModeOnline)
	printlnFn(fmt.Sprintf("Welcome, %s (%s)", id.Profile.FullName(), id.Role))
	return nil
}

// OfflineLogin verifies the credentials against this device only.
func (a *App) OfflineLogin(ctx context.Context) error {
	contactNo, password, err := a.readCredentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	id, err := a.authService.OfflineLogin(ctx, contactNo, string(password))
	if err != nil {
		printlnFn("Offline login failed:", describeError(err))
		return err
	}
	printlnFn(fmt.Sprintf("Welcome back, %s (%s, offline)", id.Profile.FullName(), id.Role))
	return nil
}

func (a *App) readCredentials() (string, []byte, error) {
	contactNo, err := a.ask("Enter contact number")
	if err != nil {
		return "", nil, err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return contactNo, password, nil
}

// AutoLogin restores the last cached identity at start-up.
func (a *App) AutoLogin(ctx context.Context) {
	id, err := a.authService.AutoLogin(ctx)
	if err != nil {
		return
	}
	printlnFn(fmt.Sprintf("Signed in as %s (%s)", id.Profile.FullName(), id.Role))
}

func (a *App) WhoAmI(ctx context.Context) error {
	id, ok := a.authService.Current()
	if !ok {
		printlnFn("Not logged in.")
		return nil
	}

	lines := []string{
		"Name:    " + id.Profile.FullName(),
		"Contact: " + id.Contact,
		"Role:    " + string(id.Role),
	}
	if id.Status != "" {
		lines = append(lines, "Status:  "+id.Status)
	}
	addr := joinNonEmpty(id.Profile.Purok, id.Profile.Barangay, id.Profile.City, id.Profile.Province, id.Profile.PostalCode)
	if addr != "" {
		lines = append(lines, "Address: "+addr)
	}
	if uri := a.authService.CurrentPhotoURI(); uri != "" {
		lines = append(lines, fmt.Sprintf("Photo:   %d bytes as data URI", len(uri)))
	}
	printlnFn(strings.Join(lines, "\n"))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	a.authService.Logout(ctx)
	printlnFn("Logged out.")
	return nil
}

// Wipe logs out and deletes every account cached on this device.
func (a *App) Wipe(ctx context.Context) error {
	answer, err := a.ask("Type 'yes' to delete all accounts stored on this device")
	if err != nil {
		return err
	}
	if answer != "yes" {
		printlnFn("Cancelled.")
		return nil
	}
	if err := a.authService.ClearAll(ctx); err != nil {
		printlnFn("Wipe failed:", describeError(err))
		return err
	}
	printlnFn("Local data cleared.")
	return nil
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
