// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package display routes session output to the console and the history log.
//
// Every write lands in the History unconditionally. It also goes to the
// Console, unless the session is in fullscreen mode, where direct prints
// would corrupt the alternate screen. Those writes wait in a pending queue
// and FlushPending replays them in call order once fullscreen ends.
//
// Markdown (glamour), code (chroma) and arbitrary values are rendered to
// text first. Any rendering failure falls back to the plain input.
package display
