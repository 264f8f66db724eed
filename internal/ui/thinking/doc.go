// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package thinking implements the live "thinking" panel shown above the prompt.
//
// A producer streams text into a StreamingContent while the renderer polls a
// Control for what to draw. The Control never owns the text, only a pull
// handle (ContentSource) that it calls on every read.
//
// # States
//
//	Inactive --Start--> Collapsed <--Expand/Collapse/Toggle--> Expanded
//	Collapsed/Expanded --Finish--> Inactive
//
// While collapsed, content longer than MaxCollapsedLines-1 lines is cut and
// followed by a hint line teaching the expand key. The console transcript
// uses a plain "..." marker instead, since it is no longer interactive.
package thinking
