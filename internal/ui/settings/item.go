// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package settings

import (
	"errors"
	"fmt"
)

// Kind tags the variant of an Item.
type Kind int

const (
	KindDropdown Kind = iota
	KindInlineSelect
	KindCheckbox
	KindText
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindDropdown:
		return "dropdown"
	case KindInlineSelect:
		return "inline-select"
	case KindCheckbox:
		return "checkbox"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Item describes one setting. Default is a string for the select and text
// kinds and a bool for checkboxes. Use the constructors below.
type Item struct {
	Kind        Kind
	Key         string
	Label       string
	Description string
	Options     []string
	Default     any
	Password    bool
}

// Dropdown is a setting picked from options through a popup list.
func Dropdown(key, label string, options []string, def string) Item {
	return Item{Kind: KindDropdown, Key: key, Label: label, Options: options, Default: def}
}

// InlineSelect is a setting picked from options shown on one line.
func InlineSelect(key, label string, options []string, def string) Item {
	return Item{Kind: KindInlineSelect, Key: key, Label: label, Options: options, Default: def}
}

// Checkbox is a boolean setting.
func Checkbox(key, label string, def bool) Item {
	return Item{Kind: KindCheckbox, Key: key, Label: label, Default: def}
}

// Text is a free text setting, masked when password is set.
func Text(key, label, def string, password bool) Item {
	return Item{Kind: KindText, Key: key, Label: label, Default: def, Password: password}
}

// WithDescription returns a copy of the item with a description line.
func (i Item) WithDescription(desc string) Item {
	i.Description = desc
	return i
}

var (
	// ErrDuplicateKey is returned when two items share a key.
	ErrDuplicateKey = errors.New("duplicate settings key")

	// ErrInvalidItem is returned for an item whose default does not fit its kind.
	ErrInvalidItem = errors.New("invalid settings item")
)

// validate checks the item on its own.
func (i Item) validate() error {
	if i.Key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidItem)
	}
	switch i.Kind {
	case KindDropdown, KindInlineSelect:
		if len(i.Options) == 0 {
			return fmt.Errorf("%w: %s %q has no options", ErrInvalidItem, i.Kind, i.Key)
		}
		if i.Default == nil {
			return nil
		}
		if _, ok := i.Default.(string); !ok {
			return fmt.Errorf("%w: %s %q default must be a string", ErrInvalidItem, i.Kind, i.Key)
		}
	case KindCheckbox:
		if i.Default == nil {
			return nil
		}
		if _, ok := i.Default.(bool); !ok {
			return fmt.Errorf("%w: checkbox %q default must be a bool", ErrInvalidItem, i.Key)
		}
	case KindText:
		if i.Default == nil {
			return nil
		}
		if _, ok := i.Default.(string); !ok {
			return fmt.Errorf("%w: text %q default must be a string", ErrInvalidItem, i.Key)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d for %q", ErrInvalidItem, int(i.Kind), i.Key)
	}
	return nil
}
