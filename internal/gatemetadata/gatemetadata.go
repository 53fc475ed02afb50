package gatemetadata

import (
	"encoding/json"
	"time"

	"github.com/gatelab/gate-controller/internal/gateutils"
	"github.com/gatelab/gate-controller/internal/logger"
	"github.com/xyproto/randomstring"
)

var Log = logger.GetLogger()

const IDENTIFIER_DEFAULT_LEN = 10

type GateMetaData struct {
	SoftwareVersion string    `json:"software_version"`
	Identifier      string    `json:"identifier"`
	StartedAt       time.Time `json:"started_at"`
}

// NewGateMetaData generates a random identifier when none is given.
func NewGateMetaData(identifier string) *GateMetaData {
	if identifier == "" {
		identifier = randomstring.EnglishFrequencyString(IDENTIFIER_DEFAULT_LEN)
		Log.Warn().Msgf("No gate identifier provided, generated random identifier \"%v\"", identifier)
	}

	return &GateMetaData{
		SoftwareVersion: gateutils.GetGitHash(),
		Identifier:      identifier,
		StartedAt:       time.Now().UTC(),
	}
}

func (gateMetaData *GateMetaData) String() string {
	jsonData, err := json.Marshal(gateMetaData)

	if err != nil {
		Log.Error().Msg("Error Serialising GateMetaData Object to JSON")
		return ""
	}
	return string(jsonData)
}
