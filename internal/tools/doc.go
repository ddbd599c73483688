// Package tools runs external host programs for runtime adapters.
package tools
