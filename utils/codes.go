package utils

import (
	dinder_constants "Dinder/constants/dinder"
	"fmt"
	"math/rand"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var sessionCodePattern = regexp.MustCompile(`^DIN-\d{4}$`)

// NewSessionCode returns a human-typable code such as "DIN-4821"
func NewSessionCode() string {
	n := dinder_constants.SessionCodeMin +
		rand.Intn(dinder_constants.SessionCodeMax-dinder_constants.SessionCodeMin+1)
	return fmt.Sprintf("%s%d", dinder_constants.SessionCodePrefix, n)
}

// NormalizeSessionCode upper-cases and trims a typed code, reporting whether
// it has the DIN-#### shape
func NormalizeSessionCode(code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	return code, sessionCodePattern.MatchString(code)
}

func NewParticipantID() string {
	return uuid.NewString()
}
