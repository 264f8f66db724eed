// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import "github.com/charmbracelet/lipgloss"

// =============================================================================
// ACCENT COLORS
// =============================================================================

// Cyan - Primary accent, selections, prompt prefix
var Cyan = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#88C0D0"}

// Blue - Focused buttons and menu selection
var Blue = lipgloss.AdaptiveColor{Light: "#1D4ED8", Dark: "#0066CC"}

// Emerald - Success states, checked boxes
var Emerald = lipgloss.AdaptiveColor{Light: "#059669", Dark: "#A3BE8C"}

// =============================================================================
// SEMANTIC COLORS
// =============================================================================

// Rose - Errors
var Rose = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#BF616A"}

// Amber - Warnings and system messages
var Amber = lipgloss.AdaptiveColor{Light: "#D97706", Dark: "#EBCB8B"}

// =============================================================================
// SURFACE COLORS
// =============================================================================

// SurfaceDialog - Dialog background
var SurfaceDialog = lipgloss.AdaptiveColor{Light: "#F5F5F5", Dark: "#2A2A2A"}

// SurfaceInput - Input fields, echoed user messages
var SurfaceInput = lipgloss.AdaptiveColor{Light: "#E5E7EB", Dark: "#3A3A3A"}

// SurfaceStatus - Status bar background
var SurfaceStatus = lipgloss.AdaptiveColor{Light: "#E0E7FF", Dark: "#202040"}

// Border - Dialog borders and separators
var Border = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#606060"}

// =============================================================================
// TEXT COLORS
// =============================================================================

// TextPrimary - Main body text
var TextPrimary = lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#E0E0E0"}

// TextBright - Emphasized text
var TextBright = lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}

// TextMuted - Hints, descriptions, unchecked values
var TextMuted = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#888888"}

// TextDim - Thinking content
var TextDim = lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#A0A0A0"}
