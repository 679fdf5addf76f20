/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package generic

import (
	"regexp"
	"time"

	"github.com/jellydator/ttlcache/v2"
	"go.uber.org/zap/zapcore"

	"github.com/ufsp-labs/fabric-settlement/pkg/utils/errors"
	"github.com/ufsp-labs/fabric-settlement/platform/common/services/logging"
	"github.com/ufsp-labs/fabric-settlement/platform/common/utils/lazy"
	"github.com/ufsp-labs/fabric-settlement/platform/fabric/driver"
)

var logger = logging.MustGetLogger("settlement-sdk.core.generic")

// auditLogger receives the audit-classified entries; its records are meant
// for the financial audit trail rather than for debugging.
var auditLogger = logging.MustGetLogger("settlement-sdk.audit")

// identifier sanitization: strip everything outside a small allow-list of
// alphanumerics and common identifier punctuation.
var disallowedIDChars = regexp.MustCompile(`[^A-Za-z0-9._@-]+`)

// identityExistsTTL bounds how long a positive existence lookup is served
// from cache before the wallet is consulted again.
const identityExistsTTL = 30 * time.Second

// SanitizeID strips disallowed characters from an identifier. It returns
// the sanitized identifier, which may be empty when nothing survives.
func SanitizeID(id string) string {
	return disallowedIDChars.ReplaceAllString(id, "")
}

// WalletStore manages the per-user ledger identities. The wallet handle is
// process-wide and built lazily on first use; identities are immutable once
// stored.
type WalletStore struct {
	path      string
	wallet    lazy.Holder[driver.Wallet]
	existence ttlcache.SimpleCache
}

func NewWalletStore(opener driver.WalletOpener, path string) *WalletStore {
	existence := ttlcache.NewCache()
	_ = existence.SetTTL(identityExistsTTL)
	existence.SkipTTLExtensionOnHit(true)
	return &WalletStore{
		path: path,
		wallet: lazy.NewHolder(func() (driver.Wallet, error) {
			w, err := opener.Open(path)
			if err != nil {
				return nil, errors.WrapWallet(err, "failed to open wallet at [%s]", path)
			}
			logger.Infof("wallet opened at [%s]", path)
			return w, nil
		}, func(driver.Wallet) error { return nil }),
		existence: existence,
	}
}

// Wallet returns the process-wide wallet handle, constructing it on first
// call.
func (s *WalletStore) Wallet() (driver.Wallet, error) {
	return s.wallet.Get()
}

// IdentityForUser looks the user's identity up in the wallet. The user id
// is sanitized first; an id that is empty or loses all its characters to
// sanitization never reaches the wallet.
func (s *WalletStore) IdentityForUser(userID string) (driver.Identity, error) {
	user, err := s.cleanUserID(userID)
	if err != nil {
		auditLogger.Warnf("identity lookup rejected [%s]: %s", userID, err)
		return driver.Identity{}, err
	}

	wallet, err := s.Wallet()
	if err != nil {
		auditLogger.Warnf("identity lookup failed [%s]: %s", user, err)
		return driver.Identity{}, err
	}

	ok, err := wallet.Exists(user)
	if err != nil {
		auditLogger.Warnf("identity lookup failed [%s]: %s", user, err)
		return driver.Identity{}, errors.WrapWallet(err, "failed to check identity [%s]", user)
	}
	if !ok {
		auditLogger.Warnf("identity not found [%s]", user)
		return driver.Identity{}, errors.NotFoundf("identity [%s] not found in wallet", user)
	}

	id, err := wallet.Get(user)
	if err != nil {
		auditLogger.Warnf("identity read failed [%s]: %s", user, err)
		return driver.Identity{}, errors.WrapWallet(err, "failed to read identity [%s]", user)
	}

	auditLogger.Infof("identity resolved [%s]", user)
	return id, nil
}

// IdentityExists reports whether the user's identity is stored in the
// wallet. Absence is not an error; invalid input and wallet failures are.
// Positive answers are cached for a short interval.
func (s *WalletStore) IdentityExists(userID string) (bool, error) {
	user, err := s.cleanUserID(userID)
	if err != nil {
		auditLogger.Warnf("existence check rejected [%s]: %s", userID, err)
		return false, err
	}

	if _, err := s.existence.Get(user); err == nil {
		if logger.IsEnabledFor(zapcore.DebugLevel) {
			logger.Debugf("existence cache hit [%s]", user)
		}
		return true, nil
	}

	wallet, err := s.Wallet()
	if err != nil {
		auditLogger.Warnf("existence check failed [%s]: %s", user, err)
		return false, err
	}

	ok, err := wallet.Exists(user)
	if err != nil {
		auditLogger.Warnf("existence check failed [%s]: %s", user, err)
		return false, errors.WrapWallet(err, "failed to check identity [%s]", user)
	}
	if ok {
		// only positive answers are cached so that a freshly enrolled
		// identity becomes visible immediately
		_ = s.existence.Set(user, struct{}{})
	}

	auditLogger.Infof("existence check [%s]: %t", user, ok)
	return ok, nil
}

func (s *WalletStore) cleanUserID(userID string) (string, error) {
	if userID == "" {
		return "", errors.Validationf("user id is empty")
	}
	user := SanitizeID(userID)
	if user == "" {
		return "", errors.Walletf("user id [%s] contains no allowed characters", userID)
	}
	if user != userID && logger.IsEnabledFor(zapcore.DebugLevel) {
		logger.Debugf("user id sanitized [%s] -> [%s]", userID, user)
	}
	return user, nil
}
