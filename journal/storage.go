// Copyright (c) 2026 TTBT Enterprises LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/c2FmZQ/storage"
	"github.com/c2FmZQ/storage/crypto"
	"go.uber.org/zap"
)

// MasterKeyEnv is the environment variable holding the passphrase of the
// master encryption key.
const MasterKeyEnv = "FAKEGOLD_MASTER_KEY"

// ErrUnencrypted is returned when the data directory has a master key but
// no passphrase was given.
var ErrUnencrypted = errors.New("master key exists but no passphrase is set")

// OpenStorage opens the data directory. With a passphrase the data is
// encrypted with a master key kept in dataDir/master.key, which is created
// on first use.
func OpenStorage(dataDir, passphrase string, logger *zap.Logger) (*storage.Storage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	keyFile := filepath.Join(dataDir, "master.key")

	var masterKey crypto.MasterKey
	if passphrase != "" {
		var err error
		masterKey, err = crypto.ReadMasterKey([]byte(passphrase), keyFile)
		switch {
		case os.IsNotExist(err):
			logger.Info("initializing new master encryption key")
			if masterKey, err = crypto.CreateMasterKey(); err != nil {
				return nil, fmt.Errorf("create master key: %w", err)
			}
			if err := masterKey.Save([]byte(passphrase), keyFile); err != nil {
				return nil, fmt.Errorf("save master key: %w", err)
			}
		case err != nil:
			return nil, fmt.Errorf("read master key: %w", err)
		default:
			logger.Debug("loaded master encryption key")
		}
	} else {
		if _, err := os.Stat(keyFile); err == nil {
			return nil, fmt.Errorf("%w: %s exists but %s is not set", ErrUnencrypted, keyFile, MasterKeyEnv)
		}
		logger.Debug("no master key, data is stored unencrypted", zap.String("dir", dataDir))
	}

	store := storage.New(dataDir, masterKey)
	store.EnableCompression(true)
	return store, nil
}
