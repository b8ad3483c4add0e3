// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package yane provides the yane runtime.
package yane

// DefaultPrelude is evaluated at the start of every run unless WithNoPrelude
// is given. Strings have no escapes, so it binds the usual control
// characters.
const DefaultPrelude = "(let nl '\n') (let tab '\t') (let cr '\r')"
