// Package ui holds the terminal palette used by the hymnal CLI.
//
// Styles degrade to plain text when output is not a terminal, so command output stays stable in pipes and tests.
package ui
