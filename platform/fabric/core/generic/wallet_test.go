/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package generic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
	"github.com/ufsp-labs/fabric-settlement/platform/fabric/core/generic/mocks"
)

func newWalletStore(labels ...string) (*WalletStore, *mocks.WalletOpener) {
	opener := &mocks.WalletOpener{Wallet: mocks.NewWallet(labels...)}
	return NewWalletStore(opener, "/tmp/wallet"), opener
}

func TestWalletOpenedOnce(t *testing.T) {
	store, opener := newWalletStore("user123")

	_, err := store.Wallet()
	require.NoError(t, err)
	_, err = store.Wallet()
	require.NoError(t, err)

	assert.Equal(t, 1, opener.OpenCalls)
}

func TestWalletOpenFailure(t *testing.T) {
	opener := &mocks.WalletOpener{OpenErr: errors.Errorf("disk gone")}
	store := NewWalletStore(opener, "/tmp/wallet")

	_, err := store.IdentityForUser("user123")
	require.Error(t, err)
	assert.True(t, errors.IsWallet(err))
}

func TestIdentityForUser(t *testing.T) {
	store, _ := newWalletStore("user123")

	id, err := store.IdentityForUser("user123")
	require.NoError(t, err)
	assert.Equal(t, "UFSPMSP", id.MSPID)
}

func TestIdentityForUserSanitizesInput(t *testing.T) {
	store, _ := newWalletStore("user123")

	// the disallowed characters are stripped before the wallet lookup
	id, err := store.IdentityForUser("user<123>")
	require.NoError(t, err)
	assert.NotEmpty(t, id.Certificate)
}

func TestIdentityForUserNotFound(t *testing.T) {
	store, _ := newWalletStore("user123")

	_, err := store.IdentityForUser("stranger")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
	assert.Contains(t, err.Error(), "stranger")
}

func TestIdentityForUserEmptyInput(t *testing.T) {
	store, opener := newWalletStore("user123")

	_, err := store.IdentityForUser("")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = store.IdentityForUser("<<<>>>")
	require.Error(t, err)
	assert.True(t, errors.IsWallet(err))

	// neither attempt may reach the wallet
	assert.Equal(t, 0, opener.OpenCalls)
}

func TestIdentityExists(t *testing.T) {
	store, _ := newWalletStore("user123")

	ok, err := store.IdentityExists("user123")
	require.NoError(t, err)
	assert.True(t, ok)

	// absence is an answer, not an error
	ok, err = store.IdentityExists("stranger")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.IdentityExists("")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestIdentityExistsCachesPositiveAnswer(t *testing.T) {
	store, opener := newWalletStore("user123")

	ok, err := store.IdentityExists("user123")
	require.NoError(t, err)
	require.True(t, ok)
	before := opener.Wallet.ExistsCalls

	ok, err = store.IdentityExists("user123")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, before, opener.Wallet.ExistsCalls)
}

func TestIdentityExistsDoesNotCacheNegativeAnswer(t *testing.T) {
	store, opener := newWalletStore("user123")

	ok, err := store.IdentityExists("late-enrollee")
	require.NoError(t, err)
	require.False(t, ok)

	// enroll and ask again: the store must consult the wallet
	require.NoError(t, opener.Wallet.Put("late-enrollee", mocks.NewWallet("late-enrollee").Identities["late-enrollee"]))
	ok, err = store.IdentityExists("late-enrollee")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIdentityExistsWalletFailure(t *testing.T) {
	store, opener := newWalletStore("user123")
	opener.Wallet.ExistsErr = errors.Errorf("io failure")

	_, err := store.IdentityExists("user123")
	require.Error(t, err)
	assert.True(t, errors.IsWallet(err))
}

func TestSanitizeID(t *testing.T) {
	assert.Equal(t, "user123", SanitizeID("user123"))
	assert.Equal(t, "user.name@org-1_x", SanitizeID("user.name@org-1_x"))
	assert.Equal(t, "userdroptable", SanitizeID("user';drop table;"))
	assert.Equal(t, "", SanitizeID("<<<>>>"))
}
