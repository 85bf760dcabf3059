// Package fakeua plugs github.com/EDDYCJY/fake-useragent in as a user agent
// source. It lives in its own package because the library prepares its
// browser tables on import; only the CLI imports it.
package fakeua

import (
	browser "github.com/EDDYCJY/fake-useragent"

	"categorycrawler/internal/pkg/useragent"
)

// Source returns a fresh random browser identifier on every call.
func Source() useragent.Source {
	return browser.Random
}
