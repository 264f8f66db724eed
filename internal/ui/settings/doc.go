// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings provides a form dialog for editing a list of typed
// settings.
//
// Each Item is one of four kinds (dropdown, inline select, checkbox, text)
// and is edited by the Control for its kind. A Form lays the controls out
// vertically and tracks which values changed from their defaults; NewDialog
// wraps a Form in a dialog.Dialog whose Save or Done button resolves with
// that change-set.
package settings
