// SPDX-License-Identifier: MPL-2.0

// Package ini reads and writes the INI dialect used by the engine's
// configuration files: "[Section]" headers, "key = value" assignments and
// ";" comments. Section and key order is preserved.
package ini
