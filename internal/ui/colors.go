package ui

// Accessors for the active theme's escape codes. CLI code composes these
// into Fprintf calls instead of touching the theme directly, so a theme
// switch takes effect immediately.

// ColorPrimary returns the active theme's primary accent code.
func ColorPrimary() string { return GetCurrentTheme().Primary }

// ColorSecondary returns the active theme's secondary code.
func ColorSecondary() string { return GetCurrentTheme().Secondary }

// ColorSuccess returns the active theme's success code.
func ColorSuccess() string { return GetCurrentTheme().Success }

// ColorWarning returns the active theme's warning code.
func ColorWarning() string { return GetCurrentTheme().Warning }

// ColorError returns the active theme's error code.
func ColorError() string { return GetCurrentTheme().Error }

// ColorInfo returns the active theme's info code.
func ColorInfo() string { return GetCurrentTheme().Info }

// ColorBold returns the active theme's bold code.
func ColorBold() string { return GetCurrentTheme().Bold }

// ColorUnderline returns the active theme's underline code.
func ColorUnderline() string { return GetCurrentTheme().Underline }

// ColorReset returns the active theme's reset code.
func ColorReset() string { return GetCurrentTheme().Reset }
