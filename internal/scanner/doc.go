// Package scanner evaluates region scans against the configured thresholds.
package scanner
