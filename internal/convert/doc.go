// Package convert orchestrates a single video→GLB conversion: frame
// extraction, depth inference, and intermediate-frame cleanup, with phase and
// progress events flowing through the injected reporter.
package convert
