package riskconf

import (
	"fmt"
	"strings"
)

// Locator addresses one configuration layer: the name of the loader that
// serves it and a loader-specific value (a file name, a map key and so on).
type Locator struct {
	Loader string
	Value  string
}

// ParseLocator parses a raw configuration locator of the form
// "loader:value".
func ParseLocator(rawLoc string) (*Locator, error) {
	if rawLoc == "" {
		return nil, fmt.Errorf("%s: empty configuration locator specified", errPref)
	}

	locTokens := strings.SplitN(rawLoc, ":", 2)

	if len(locTokens) < 2 || locTokens[0] == "" {
		return nil, fmt.Errorf("%s: missing loader name in configuration locator: %s",
			errPref, rawLoc)
	}

	return &Locator{
		Loader: locTokens[0],
		Value:  locTokens[1],
	}, nil
}

func (l *Locator) String() string {
	return fmt.Sprintf("%s:%s", l.Loader, l.Value)
}
