// Copyright 2026 The Kitab Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads kitab's configuration.
//
// Configuration comes from a single file named by the --config flag or
// the KITAB_CONFIG environment variable. Without either, [Default] is
// used: the store lives in $XDG_DATA_HOME/kitab/idx (or
// ~/.local/share/kitab/idx) and the catalog next to it.
//
// The file is YAML (.yaml, .yml) or JSON with comments (.json, .jsonc).
// Fields the file omits keep their default values. Path fields expand
// ${VAR} and ${VAR:-default}; ${KITAB_DATA} names the default data
// directory.
//
//	store:
//	  directory: ${KITAB_DATA}/idx
//	import:
//	  algorithm: sha512
//	apply:
//	  algorithms: [sha512, sha256, md5, bzz]
//	catalog:
//	  path: ${KITAB_DATA}/catalog.db
//	  auto_index: true
//	log:
//	  level: info
//	  format: auto
package config
