// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads boxoffice's YAML configuration.
//
// The file is named by the --config flag (via [LoadFile]) or the
// BOXOFFICE_CONFIG environment variable (via [Load]). Without either,
// [Load] returns [Default]. A handful of BOXOFFICE_* variables
// override individual settings after the file is read, so a venue URL
// can be pointed elsewhere without editing YAML:
//
//	BOXOFFICE_VENUE_URL   venue.base_url
//	BOXOFFICE_PUSH_URL    venue.push_url
//	BOXOFFICE_HOLD_TTL    reservation.hold_ttl
//	BOXOFFICE_JOURNAL     reservation.journal
//
// ${HOME} and ${VAR:-default} patterns in the journal path are
// expanded. [Config.Validate] reports every problem at once.
package config
