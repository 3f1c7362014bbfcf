package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/client/client"
	"github.com/dmitrijs2005/barangayconnect/internal/client/models"
	"github.com/dmitrijs2005/barangayconnect/internal/common"
	"github.com/dmitrijs2005/barangayconnect/internal/cryptox"
	"github.com/dmitrijs2005/barangayconnect/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func janeForm() models.RegistrationForm {
	return models.RegistrationForm{
		Profile: models.Profile{
			FirstName: "  Jane ",
			LastName:  "Cruz",
			DOB:       "1990-04-01T00:00:00.000Z",
			Barangay:  "San Isidro",
		},
		Contact:  "+639171234567",
		Password: "s3cret",
		Photo:    "data:image/png;base64,iVBORw0KGgo=",
	}
}

func TestRegister_PhotoRequired(t *testing.T) {
	f := newFixture(t, true)
	form := janeForm()
	form.Photo = "data:image/jpeg;base64,"

	_, err := f.auth.Register(context.Background(), form)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "photo", ve.Field)
	assert.Equal(t, "photo required", ve.Error())
	assert.Zero(t, f.client.RegisterCalls)
}

func TestRegister_OfflineLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.auth.Register(context.Background(), janeForm())
	require.ErrorIs(t, err, ErrOffline)

	assert.Zero(t, f.client.RegisterCalls)
	all, err := f.accounts.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRegister_SendsSanitizedPayload(t *testing.T) {
	f := newFixture(t, true)
	f.client.RegisterRet = remoteResident(idptr(77), "Jane", "Cruz", "09171234567", common.StatusPending)

	u, err := f.auth.Register(context.Background(), janeForm())
	require.NoError(t, err)
	assert.Equal(t, "Jane", *u.FirstName)

	p := f.client.LastRegister
	require.NotNil(t, p.FirstName)
	assert.Equal(t, "Jane", *p.FirstName)
	assert.Equal(t, "09171234567", *p.Contact)
	assert.Equal(t, "1990-04-01", *p.DOB)
	assert.Equal(t, "iVBORw0KGgo=", *p.Photo)
	assert.Equal(t, models.RoleResident, p.Role)
	assert.Nil(t, p.MiddleName)
	assert.Nil(t, p.City)
}

func TestRegister_ErrorMapping(t *testing.T) {
	tests := []struct {
		name  string
		ret   *models.RemoteUser
		err   error
		check func(t *testing.T, err error)
	}{
		{
			name: "remote detail passed through",
			err:  &client.StatusError{Code: 400, Detail: "Contact already registered"},
			check: func(t *testing.T, err error) {
				var rr *RemoteRejectedError
				require.ErrorAs(t, err, &rr)
				assert.Equal(t, "Contact already registered", rr.Message)
			},
		},
		{
			name: "no detail falls back",
			err:  &client.StatusError{Code: 500},
			check: func(t *testing.T, err error) {
				assert.EqualError(t, err, "registration failed")
			},
		},
		{
			name: "network failure is offline",
			err:  fmt.Errorf("%w: dial tcp: refused", client.ErrUnavailable),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrOffline)
			},
		},
		{
			name: "missing firstName",
			ret:  &models.RemoteUser{ID: idptr(1)},
			check: func(t *testing.T, err error) {
				var pe *ProtocolError
				require.ErrorAs(t, err, &pe)
				assert.Equal(t, "unexpected response", pe.Error())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, true)
			f.client.RegisterRet, f.client.RegisterErr = tt.ret, tt.err

			_, err := f.auth.Register(context.Background(), janeForm())
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestRegisterThenSaveOfflineCopy_Durable(t *testing.T) {
	ctx := context.Background()
	f := newDurableFixture(t, true)
	f.client.RegisterRet = remoteResident(idptr(77), "Jane", "Cruz", "09171234567", common.StatusPending)

	u, err := f.auth.Register(ctx, janeForm())
	require.NoError(t, err)
	require.NoError(t, f.auth.SaveOfflineCopy(ctx, u, "s3cret"))

	all, err := f.accounts.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)

	rec := all[0]
	require.NotNil(t, rec.RemoteID)
	assert.Equal(t, int64(77), *rec.RemoteID)
	assert.Equal(t, models.Synced, rec.Sync)
	assert.Empty(t, rec.PendingPlaintext)

	ok, err := cryptox.Verify(rec.PasswordHash, []byte("s3cret"))
	require.NoError(t, err)
	assert.True(t, ok)

	// saving the same response again keeps a single row
	require.NoError(t, f.auth.SaveOfflineCopy(ctx, u, "s3cret"))
	again, err := f.accounts.FindByContact(ctx, "09171234567")
	require.NoError(t, err)
	assert.Equal(t, rec.LocalID, again.LocalID)
	ok, err = cryptox.Verify(again.PasswordHash, []byte("s3cret"))
	require.NoError(t, err)
	assert.True(t, ok)
}

// A typed password that happens to look like a stored digest is still a
// password: it gets hashed, and offline login with it works.
func TestDigestLookingPassword_IsHashed(t *testing.T) {
	const typed = "$argon2id$v=19$m=8,t=1,p=1$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	ctx := context.Background()

	t.Run("login then offline login", func(t *testing.T) {
		f := newFixture(t, true)
		f.client.LoginRet = remoteResident(idptr(5), "Jane", "Cruz", "09171234567", common.StatusApproved)

		_, err := f.auth.Login(ctx, "09171234567", typed)
		require.NoError(t, err)

		rec, err := f.accounts.FindByContact(ctx, "09171234567")
		require.NoError(t, err)
		assert.NotEqual(t, typed, rec.PasswordHash)

		f.auth.Logout(ctx)
		f.net.online.Store(false)

		id, err := f.auth.OfflineLogin(ctx, "09171234567", typed)
		require.NoError(t, err)
		assert.Equal(t, "Jane", id.Profile.FirstName)
	})

	t.Run("unsynced copy keeps plaintext", func(t *testing.T) {
		f := newFixture(t, true)
		u := remoteResident(nil, "Jane", "Cruz", "09171234567", common.StatusPending)

		require.NoError(t, f.auth.SaveOfflineCopy(ctx, u, typed))

		rec, err := f.accounts.FindByContact(ctx, "09171234567")
		require.NoError(t, err)
		assert.Equal(t, []byte(typed), rec.PendingPlaintext)
		ok, err := cryptox.Verify(rec.PasswordHash, []byte(typed))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("update", func(t *testing.T) {
		f := newFixture(t, true)
		require.NoError(t, f.auth.SaveOfflineCopy(ctx, remoteResident(idptr(3), "Jane", "Cruz", "09171234567", "Approved"), "old"))
		rec, err := f.accounts.FindByContact(ctx, "09171234567")
		require.NoError(t, err)

		require.NoError(t, f.auth.UpdateUser(ctx, rec, typed))

		f.net.online.Store(false)
		_, err = f.auth.OfflineLogin(ctx, "09171234567", typed)
		require.NoError(t, err)
	})
}

func TestOfflineLogin_CorruptDigestIsSkipped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	require.NoError(t, f.auth.SaveOfflineCopy(ctx, remoteResident(idptr(3), "Jane", "Cruz", "09171234567", "Approved"), "pw"))

	rec, err := f.accounts.FindByContact(ctx, "09171234567")
	require.NoError(t, err)
	rec.PasswordHash = "$argon2id$v=19$m=0,t=0,p=0$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"
	require.NoError(t, f.accounts.Update(ctx, rec))

	assert.NotPanics(t, func() {
		_, err = f.auth.OfflineLogin(ctx, "09171234567", "pw")
	})
	assert.ErrorIs(t, err, ErrNoLocalRecord)
}

func TestSaveOfflineCopy_WithoutRemoteIDKeepsPending(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)

	u := remoteResident(nil, "Jane", "Cruz", "09171234567", common.StatusPending)
	require.NoError(t, f.auth.SaveOfflineCopy(ctx, u, "s3cret"))

	rec, err := f.accounts.FindByContact(ctx, "09171234567")
	require.NoError(t, err)
	assert.Equal(t, models.Unsynced, rec.Sync)
	assert.Equal(t, []byte("s3cret"), rec.PendingPlaintext)
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("offline", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.auth.Login(ctx, "09171234567", "pw")
		require.ErrorIs(t, err, ErrOffline)
	})

	t.Run("resident not approved", func(t *testing.T) {
		f := newFixture(t, true)
		f.client.LoginRet = remoteResident(idptr(5), "Jane", "Cruz", "09171234567", common.StatusPending)

		_, err := f.auth.Login(ctx, "+63 917 123 4567", "pw")

		var na *NotApprovedError
		require.ErrorAs(t, err, &na)
		assert.Equal(t, common.StatusPending, na.Status)
		assert.Equal(t, "09171234567", f.client.LastLoginUser)
		assert.False(t, f.session.LoggedIn())
	})

	t.Run("missing role", func(t *testing.T) {
		f := newFixture(t, true)
		u := remoteResident(idptr(5), "Jane", "Cruz", "09171234567", common.StatusApproved)
		u.Role = nil
		f.client.LoginRet = u

		_, err := f.auth.Login(ctx, "09171234567", "pw")
		var pe *ProtocolError
		require.ErrorAs(t, err, &pe)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newFixture(t, true)
		f.client.LoginErr = &client.StatusError{Code: 401, Detail: "Incorrect password"}

		_, err := f.auth.Login(ctx, "09171234567", "pw")
		var rr *RemoteRejectedError
		require.ErrorAs(t, err, &rr)
		assert.Equal(t, "Incorrect password", rr.Error())
	})

	t.Run("approved resident is cached", func(t *testing.T) {
		f := newFixture(t, true)
		f.client.LoginRet = remoteResident(idptr(5), "Jane", "Cruz", "09171234567", common.StatusApproved)

		id, err := f.auth.Login(ctx, "09171234567", "pw")
		require.NoError(t, err)
		assert.Equal(t, "Jane", id.Profile.FirstName)

		cur, ok := f.auth.Current()
		require.True(t, ok)
		assert.Equal(t, "09171234567", cur.Contact)

		rec, err := f.accounts.FindByContact(ctx, "09171234567")
		require.NoError(t, err)
		assert.True(t, rec.IsSynced())
		ok, err = cryptox.Verify(rec.PasswordHash, []byte("pw"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("staff gets token and blob", func(t *testing.T) {
		f := newFixture(t, true)
		u := remoteResident(idptr(1), "Pedro", "Santos", "09181112222", "")
		u.Role = strptr("captain")
		u.AccessToken = "tok"
		f.client.LoginRet = u

		id, err := f.auth.Login(ctx, "09181112222", "pw")
		require.NoError(t, err)
		assert.Equal(t, models.RoleCaptain, id.Role)
		assert.Equal(t, "tok", f.client.LastAccessToken)

		_, err = f.blobs.Get(ctx, "captain-09181112222")
		require.NoError(t, err)
		_, err = f.accounts.FindByContact(ctx, "09181112222")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestOfflineLogin(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	f.client.LoginRet = remoteResident(idptr(5), "Jane", "Cruz", "09171234567", common.StatusApproved)
	_, err := f.auth.Login(ctx, "09171234567", "pw")
	require.NoError(t, err)

	staff := remoteResident(idptr(2), "Ana", "Reyes", "09180000000", "")
	staff.Role = strptr("secretary")
	require.NoError(t, f.auth.SaveOfflineCopy(ctx, staff, "staffpw"))

	f.auth.Logout(ctx)
	f.net.online.Store(false)

	t.Run("correct password", func(t *testing.T) {
		id, err := f.auth.OfflineLogin(ctx, "+639171234567", "pw")
		require.NoError(t, err)
		assert.Equal(t, "Jane", id.Profile.FirstName)
		assert.True(t, f.session.LoggedIn())
		f.auth.Logout(ctx)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := f.auth.OfflineLogin(ctx, "09171234567", "nope")
		require.ErrorIs(t, err, ErrNoLocalRecord)
		assert.False(t, f.session.LoggedIn())
	})

	t.Run("unknown contact", func(t *testing.T) {
		_, err := f.auth.OfflineLogin(ctx, "09990000000", "pw")
		require.ErrorIs(t, err, ErrNoLocalRecord)
	})

	t.Run("staff from blob store", func(t *testing.T) {
		id, err := f.auth.OfflineLogin(ctx, "09180000000", "staffpw")
		require.NoError(t, err)
		assert.Equal(t, models.RoleSecretary, id.Role)
		f.auth.Logout(ctx)
	})
}

func TestAutoLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing cached", func(t *testing.T) {
		f := newFixture(t, false)
		_, err := f.auth.AutoLogin(ctx)
		require.ErrorIs(t, err, ErrNoLocalRecord)
	})

	t.Run("latest resident", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.auth.SaveOfflineCopy(ctx, remoteResident(idptr(1), "Old", "One", "09170000001", "Approved"), "a"))
		require.NoError(t, f.auth.SaveOfflineCopy(ctx, remoteResident(idptr(2), "New", "Two", "09170000002", "Approved"), "b"))

		id, err := f.auth.AutoLogin(ctx)
		require.NoError(t, err)
		assert.Equal(t, "New", id.Profile.FirstName)
	})

	t.Run("staff blob wins", func(t *testing.T) {
		f := newFixture(t, false)
		require.NoError(t, f.auth.SaveOfflineCopy(ctx, remoteResident(idptr(1), "Res", "Ident", "09170000001", "Approved"), "a"))
		staff := remoteResident(idptr(9), "Cap", "Tain", "09189999999", "")
		staff.Role = strptr("captain")
		require.NoError(t, f.auth.SaveOfflineCopy(ctx, staff, "c"))

		id, err := f.auth.AutoLogin(ctx)
		require.NoError(t, err)
		assert.Equal(t, models.RoleCaptain, id.Role)
		assert.Equal(t, "09189999999", id.Contact)
	})
}

func TestUpdateUser_ResidentBecomesUnsyncedThenSyncs(t *testing.T) {
	ctx := context.Background()
	f := newDurableFixture(t, false)

	u := remoteResident(idptr(77), "Jane", "Cruz", "09171234567", common.StatusApproved)
	require.NoError(t, f.auth.SaveOfflineCopy(ctx, u, "s3cret"))

	rec, err := f.accounts.FindByContact(ctx, "09171234567")
	require.NoError(t, err)
	require.True(t, rec.IsSynced())

	rec.Purok = "Purok 7"
	rec.LastName = "Dela Cruz"
	require.NoError(t, f.auth.UpdateUser(ctx, rec, ""))

	edited, err := f.accounts.FindByContact(ctx, "09171234567")
	require.NoError(t, err)
	assert.Equal(t, models.Unsynced, edited.Sync)
	require.NotNil(t, edited.RemoteID)
	assert.Equal(t, int64(77), *edited.RemoteID)
	assert.Equal(t, "Dela Cruz", edited.LastName)

	// offline: nothing happens
	report, err := f.sync.Sync(ctx)
	require.NoError(t, err)
	assert.False(t, report.Ran)

	f.net.online.Store(true)
	f.client.UpdateRet = remoteResident(idptr(77), "Jane", "Dela Cruz", "09171234567", common.StatusApproved)

	report, err = f.sync.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Pushed)
	assert.Equal(t, int64(77), f.client.LastUpdateID)
	assert.Equal(t, "Purok 7", *f.client.LastUpdate.Purok)
	assert.Zero(t, f.client.RegisterCalls)

	synced, err := f.accounts.FindByContact(ctx, "09171234567")
	require.NoError(t, err)
	assert.Equal(t, models.Synced, synced.Sync)
	assert.Equal(t, int64(77), *synced.RemoteID)
}

func TestUpdateUser_NewPasswordIsHashedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	require.NoError(t, f.auth.SaveOfflineCopy(ctx, remoteResident(idptr(3), "Jane", "Cruz", "09171234567", "Approved"), "old"))

	rec, err := f.accounts.FindByContact(ctx, "09171234567")
	require.NoError(t, err)
	require.NoError(t, f.auth.UpdateUser(ctx, rec, "new"))

	got, err := f.accounts.FindByContact(ctx, "09171234567")
	require.NoError(t, err)
	ok, err := cryptox.Verify(got.PasswordHash, []byte("new"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), got.PendingPlaintext)
}

func TestUpdateUser_MissingRow(t *testing.T) {
	f := newFixture(t, false)
	rec := &models.AccountRecord{LocalID: 42, Contact: "09171234567", Role: models.RoleResident}
	err := f.auth.UpdateUser(context.Background(), rec, "")
	require.ErrorIs(t, err, ErrNoLocalRecord)
}

func TestUpdateUser_StaffOverwritesBlob(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	staff := remoteResident(idptr(2), "Ana", "Reyes", "09180000000", "")
	staff.Role = strptr("secretary")
	require.NoError(t, f.auth.SaveOfflineCopy(ctx, staff, "staffpw"))

	_, err := f.auth.OfflineLogin(ctx, "09180000000", "staffpw")
	require.NoError(t, err)

	rec, err := f.auth.CurrentRecord(ctx)
	require.NoError(t, err)
	rec.City = "Tagum"
	require.NoError(t, f.auth.UpdateUser(ctx, rec, ""))

	again, err := f.auth.CurrentRecord(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Tagum", again.City)

	// password kept
	_, err = f.auth.OfflineLogin(ctx, "09180000000", "staffpw")
	require.NoError(t, err)

	unsynced, err := f.accounts.ListUnsynced(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)
}

func TestDuplicateChecks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	u := remoteResident(idptr(1), "Jane", "Cruz", "09171234567", "Approved")
	u.MiddleName = strptr("Santos")
	require.NoError(t, f.auth.SaveOfflineCopy(ctx, u, "pw"))

	dup, err := f.auth.IsDuplicateContact(ctx, "+639171234567")
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = f.auth.IsDuplicateContact(ctx, "09170000000")
	require.NoError(t, err)
	assert.False(t, dup)

	dup, err = f.auth.IsDuplicateName(ctx, "JANE", " santos", "cruz ")
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = f.auth.IsDuplicateName(ctx, "Jane", "", "Cruz")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestClearAll_KeepsOtherBlobKeys(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, true)
	require.NoError(t, f.blobs.Set(ctx, "vault-key", []byte("k")))
	require.NoError(t, f.auth.SaveOfflineCopy(ctx, remoteResident(idptr(1), "Jane", "Cruz", "09171234567", "Approved"), "pw"))
	staff := remoteResident(idptr(2), "Ana", "Reyes", "09180000000", "")
	staff.Role = strptr("secretary")
	require.NoError(t, f.auth.SaveOfflineCopy(ctx, staff, "pw"))
	_, err := f.auth.OfflineLogin(ctx, "09171234567", "pw")
	require.NoError(t, err)

	list, err := f.auth.AllRegistrations(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	require.NoError(t, f.auth.ClearAll(ctx))

	assert.False(t, f.session.LoggedIn())
	list, err = f.auth.AllRegistrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = f.blobs.Get(ctx, "vault-key")
	assert.NoError(t, err)
}

func TestCurrentPhotoURI(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, false)
	assert.Empty(t, f.auth.CurrentPhotoURI())

	require.NoError(t, f.auth.SaveOfflineCopy(ctx, remoteResident(idptr(1), "Jane", "Cruz", "09171234567", "Approved"), "pw"))
	_, err := f.auth.AutoLogin(ctx)
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", f.auth.CurrentPhotoURI())
}

func TestPing_Translates(t *testing.T) {
	f := newFixture(t, true)
	f.client.PingErr = client.ErrUnavailable
	err := f.auth.Ping(context.Background())
	assert.True(t, errors.Is(err, ErrOffline))
}

func TestCaptivePortalAnswer_IsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, "<html><body>Sign in to Wi-Fi</body></html>")
	}))
	t.Cleanup(srv.Close)

	tr, err := client.NewTransport(client.TransportHTTP, srv.URL, 2*time.Second)
	require.NoError(t, err)

	f := newFixture(t, true)
	auth := NewAuthService(client.NewHTTPClient(tr), f.accounts, f.blobs, f.session, f.net, NewLocker(), logging.NewNop())
	ctx := context.Background()

	_, err = auth.Register(ctx, janeForm())
	var pe *ProtocolError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "register", pe.Op)

	_, err = auth.Login(ctx, "09171234567", "s3cret")
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "login", pe.Op)
	assert.False(t, f.session.LoggedIn())

	all, err := f.accounts.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
